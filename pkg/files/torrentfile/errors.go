package torrentfile

import (
	"errors"
	"fmt"
)

// ErrFileTooLarge is returned for inputs above the size limit.
var ErrFileTooLarge = errors.New("torrent file is too large")

// ReadError wraps a failure to read the input.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading torrent file: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ParseError reports input that is not a well-formed torrent.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("parsing torrent file: %s: %v", e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("parsing torrent file: %v", e.Err)
	default:
		return "parsing torrent file: " + e.Msg
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(format string, args ...interface{}) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}
