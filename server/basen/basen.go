package basen

import (
	"math/big"

	"github.com/juju/errors"
)

const (
	AlphabetBase16 = "1234567890abcdef"
	AlphabetBase62 = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Encoder encodes binary data using an arbitrary base-N alphabet. It is used
// for generating short textual connection IDs.
type Encoder struct {
	alphabet string
}

// NewEncoder creates a new Encoder for the provided alphabet.
func NewEncoder(alphabet string) *Encoder {
	return &Encoder{alphabet}
}

// Encode encodes data as a base-N string. The empty slice and all-zero
// slices encode as an empty string.
func (e *Encoder) Encode(data []byte) string {
	var (
		value big.Int
		base  big.Int
		zero  big.Int
	)

	value.SetBytes(data)

	size := int64(len(e.alphabet))

	var result []byte

	for value.Cmp(&zero) != 0 {
		base.SetInt64(size)
		_, remainder := value.DivMod(&value, &base, &base)
		result = append(result, e.alphabet[remainder.Int64()])
	}

	return string(result)
}

// Decoder decodes base-N encoded strings produced by Encoder.
type Decoder struct {
	alphabet    string
	runeToValue map[rune]int
}

// NewDecoder creates a new Decoder for the provided alphabet.
func NewDecoder(alphabet string) *Decoder {
	runeToValue := make(map[rune]int, len(alphabet))

	for i, r := range alphabet {
		runeToValue[r] = i
	}

	return &Decoder{
		alphabet:    alphabet,
		runeToValue: runeToValue,
	}
}

// Decode decodes the base-N string back into bytes.
func (d *Decoder) Decode(data string) ([]byte, error) {
	var (
		n            big.Int
		factor       big.Int
		currentValue big.Int
		value        big.Int
		zero         big.Int
	)

	n.SetInt64(int64(len(d.alphabet)))

	for i, r := range data {
		val, ok := d.runeToValue[r]
		if !ok {
			return nil, errors.Errorf("character %s not found in alphabet: %s", string(r), d.alphabet)
		}

		runeValue := int64(val)
		factor.SetInt64(int64(i)).Exp(&n, &factor, &zero)
		currentValue.SetInt64(runeValue).Mul(&currentValue, &factor)
		value.Add(&value, &currentValue)
	}

	return value.Bytes(), nil
}
