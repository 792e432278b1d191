package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ErrCatchFire is returned when the halt instruction (99) executes. It is
// the conventional successful-termination signal: callers running a program
// to completion must expect it and treat it as "done", not as a defect.
var ErrCatchFire = errors.New("halt and catch fire")

// ErrNoInput is returned when an input instruction executes while the input
// queue is empty. Unlike the other terminal conditions it is recoverable by
// the caller: append more input with AddInput and re-invoke the driver.
var ErrNoInput = errors.New("no input available")

// SegfaultError reports a memory access at a negative address.
type SegfaultError struct {
	Address int64
}

func (e *SegfaultError) Error() string {
	return fmt.Sprintf("segfault at address %d", e.Address)
}

// UnknownInstructionError reports an instruction word whose opcode or mode
// digits the decoder does not recognize.
type UnknownInstructionError struct {
	Raw int64
}

func (e *UnknownInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction %d", e.Raw)
}
