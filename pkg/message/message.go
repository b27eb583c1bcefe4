// Package message composes a single IoT message from an invocation and
// dispatches it to the hub client.
package message

import (
	"strings"
)

// DefaultHeaders is the header block used when no headers are supplied.
const DefaultHeaders = "source:iotsend\n\n"

// Invocation describes one run of the utility. It is constructed by the
// command layer and consumed read-only by Send.
type Invocation struct {
	// Verbose enables debug output on the client and trace logging here.
	Verbose bool

	// RawHeaders is the user-supplied header string of key:value pairs
	// separated by ';'. Empty means DefaultHeaders.
	RawHeaders string

	// FilePath names the payload file. Empty means standard input.
	FilePath string
}

// NormalizeHeaders turns a raw ';'-separated header string into the wire
// header block: one key:value pair per line, terminated by a blank line.
// Pair order is preserved and no further key/value validation is done.
// An empty input yields DefaultHeaders.
func NormalizeHeaders(raw string) string {
	if raw == "" {
		return DefaultHeaders
	}
	block := strings.ReplaceAll(raw, ";", "\n")
	block = strings.TrimRight(block, "\n")
	return block + "\n\n"
}
