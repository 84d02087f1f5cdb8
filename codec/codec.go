// Package codec converts between wire strings and the Go values the
// reference backend produces for temporal and uuid nodes.
package codec

import "fmt"

// Codec converts a wire value W into a domain value D and back.
type Codec[W, D any] interface {
	Decode(w W) (D, error)
	Encode(d D) (W, error)
}

// FormatError reports a wire value that does not parse as Format.
type FormatError struct {
	Format string
	Input  string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Format, e.Input, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Format, e.Input)
}

func (e *FormatError) Unwrap() error { return e.Err }
