package emulator

import (
	"errors"

	"github.com/ezrec/mano/translate"
)

var f = translate.From

var (
	ErrNoStart = errors.New(f("no program start found"))
	ErrLimit   = errors.New(f("instruction limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrFault is the trace of a T-state that had no micro-operation.
type ErrFault string

func (err ErrFault) Error() string {
	return f("fault: %v", string(err))
}
