package logger

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Message is a single log entry passed to a Formatter.
type Message struct {
	// Timestamp contains the time of the message.
	Timestamp time.Time

	// Namespace is the full namespace of the Logger this message was sent to.
	Namespace string

	// Level is the log level of the message.
	Level Level

	// Body has the message contents.
	Body string

	// Ctx is the message context.
	Ctx Ctx
}

// Formatter defines the rules on how to format a log entry before transport.
// For example, a Formatter might prepare the entry for writing to a log
// file, or serialize it to JSON before sending the bytes to transport.
type Formatter interface {
	// Format formats the message for transport.
	Format(message Message) ([]byte, error)
}

// StringFormatter is the default implementation of Formatter and it prepares
// the message for printing to stdout/stderr or a file.
type StringFormatter struct {
	params *StringFormatterParams
}

// StringFormatterParams are parameters for StringFormatter.
type StringFormatterParams struct {
	// DateLayout is the layout to be passed to time.Time.Format function for
	// formatting logging timestamp.
	DateLayout string

	// DisableContextKeySorting will not sort context keys before printing
	// them.
	DisableContextKeySorting bool
}

// compile-time assertion that StringFormatter implements Formatter.
var _ Formatter = &StringFormatter{}

// NewStringFormatter creates a new instance of StringFormatter.
func NewStringFormatter(params StringFormatterParams) *StringFormatter {
	if params.DateLayout == "" {
		params.DateLayout = "2006-01-02T15:04:05.000000Z07:00"
	}

	return &StringFormatter{
		params: &params,
	}
}

// Format implements Formatter.
func (f *StringFormatter) Format(message Message) ([]byte, error) {
	var b strings.Builder

	keys := make([]string, 0, len(message.Ctx))

	for k := range message.Ctx {
		keys = append(keys, k)
	}

	if !f.params.DisableContextKeySorting {
		sort.Strings(keys)
	}

	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fmt.Sprintf("%+v", message.Ctx[k]))
	}

	ret := fmt.Sprintf("%s %5s [%20s] %s%s\n",
		message.Timestamp.Format(f.params.DateLayout),
		message.Level,
		message.Namespace,
		message.Body,
		b.String(),
	)

	return []byte(ret), nil
}
