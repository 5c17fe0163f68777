package constraint

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateCell     = errors.New("duplicate cell in template")
	ErrUnbalancedBraces  = errors.New("unbalanced braces")
	ErrEmptyValue        = errors.New("empty value")
	ErrMissingIndex      = errors.New("missing index reference")
	ErrDuplicateIndex    = errors.New("duplicate index")
	ErrDuplicateSetting  = errors.New("duplicate setting")
	ErrBadDirection      = errors.New("bad direction")
	ErrBadIndexValue     = errors.New("bad index value")
	ErrUnterminatedToken = errors.New("unterminated token")
)

// ParseError locates a failure in the template file. Line is 1-based.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
