package identifiers

import "sort"

// ConnID identifies a single managed connection state machine.
type ConnID string

// WatcherID is the ID of a websocket subscriber attached to a connection.
type WatcherID string

type ConnIDs []ConnID

func (c ConnID) String() string {
	return string(c)
}

func (w WatcherID) String() string {
	return string(w)
}

var _ sort.Interface = ConnIDs(nil)

func (c ConnIDs) Len() int {
	return len(c)
}

func (c ConnIDs) Less(i, j int) bool {
	return c[i] < c[j]
}

func (c ConnIDs) Swap(i, j int) {
	c[i], c[j] = c[j], c[i]
}

type WatcherIDs []WatcherID

var _ sort.Interface = WatcherIDs(nil)

func (w WatcherIDs) Len() int {
	return len(w)
}

func (w WatcherIDs) Less(i, j int) bool {
	return w[i] < w[j]
}

func (w WatcherIDs) Swap(i, j int) {
	w[i], w[j] = w[j], w[i]
}
