package vm

import "fmt"

// ---------------------------------------------------------------------------
// Instruction encoding
//
// An instruction word packs the opcode into its two least-significant
// decimal digits. Each parameter's addressing mode occupies one further
// decimal digit: digit 2 (hundreds) for parameter 1, digit 3 for
// parameter 2, and so on.
// ---------------------------------------------------------------------------

// ParamMode determines how a parameter's encoded integer is interpreted.
type ParamMode int64

const (
	// ModePosition treats the operand as an address to dereference.
	ModePosition ParamMode = 0
	// ModeImmediate treats the operand as the literal value. Only valid
	// for input parameters; write targets are never immediate.
	ModeImmediate ParamMode = 1
	// ModeRelative treats the operand as an offset from the relative base.
	ModeRelative ParamMode = 2
)

// Opcode identifies an Intcode instruction.
type Opcode int64

const (
	OpAdd         Opcode = 1
	OpMul         Opcode = 2
	OpInput       Opcode = 3
	OpOutput      Opcode = 4
	OpJumpIfTrue  Opcode = 5
	OpJumpIfFalse Opcode = 6
	OpLessThan    Opcode = 7
	OpEquals      Opcode = 8
	OpAdjustBase  Opcode = 9
	OpHalt        Opcode = 99
)

// String returns the opcode's mnemonic.
func (op Opcode) String() string {
	switch op {
	case OpAdd:
		return "ADD"
	case OpMul:
		return "MUL"
	case OpInput:
		return "INPUT"
	case OpOutput:
		return "OUTPUT"
	case OpJumpIfTrue:
		return "JUMP_IF_TRUE"
	case OpJumpIfFalse:
		return "JUMP_IF_FALSE"
	case OpLessThan:
		return "LESS_THAN"
	case OpEquals:
		return "EQUALS"
	case OpAdjustBase:
		return "ADJUST_BASE"
	case OpHalt:
		return "HALT"
	default:
		return fmt.Sprintf("UNKNOWN_%d", int64(op))
	}
}

// Instruction is one decoded instruction word. Modes holds one entry per
// parameter in parameter order; entries past the instruction's arity stay
// ModePosition.
type Instruction struct {
	Op    Opcode
	Modes [3]ParamMode
}

// Width returns the instruction's encoded width in words (opcode plus
// parameters). Untaken jumps advance the cursor by this amount.
func (in Instruction) Width() int64 {
	switch in.Op {
	case OpAdd, OpMul, OpLessThan, OpEquals:
		return 4
	case OpJumpIfTrue, OpJumpIfFalse:
		return 3
	case OpInput, OpOutput, OpAdjustBase:
		return 2
	default:
		return 1
	}
}

// Decode decodes a raw instruction word. Unrecognized opcodes and mode
// digits (including an immediate mode on a write target) fail with
// UnknownInstructionError.
func Decode(raw int64) (Instruction, error) {
	inst := Instruction{Op: Opcode(raw % 100)}

	ok := true
	switch inst.Op {
	case OpAdd, OpMul, OpLessThan, OpEquals:
		inst.Modes[0], ok = inputMode(raw, 2, ok)
		inst.Modes[1], ok = inputMode(raw, 3, ok)
		inst.Modes[2], ok = outputMode(raw, 4, ok)
	case OpInput:
		inst.Modes[0], ok = outputMode(raw, 2, ok)
	case OpOutput, OpAdjustBase:
		inst.Modes[0], ok = inputMode(raw, 2, ok)
	case OpJumpIfTrue, OpJumpIfFalse:
		inst.Modes[0], ok = inputMode(raw, 2, ok)
		inst.Modes[1], ok = inputMode(raw, 3, ok)
	case OpHalt:
	default:
		ok = false
	}

	if !ok {
		return Instruction{}, &UnknownInstructionError{Raw: raw}
	}
	return inst, nil
}

// Encode rebuilds the raw instruction word for an opcode and its parameter
// modes. Callers use it to assemble test programs without magic numbers.
func Encode(op Opcode, modes ...ParamMode) int64 {
	raw := int64(op)
	place := int64(100)
	for _, m := range modes {
		raw += int64(m) * place
		place *= 10
	}
	return raw
}

// modeDigit extracts the decimal digit of raw at the given position
// (position 2 is the hundreds digit).
func modeDigit(raw int64, position int) int64 {
	place := int64(1)
	for i := 0; i < position; i++ {
		place *= 10
	}
	return raw / place % 10
}

func inputMode(raw int64, position int, ok bool) (ParamMode, bool) {
	switch m := modeDigit(raw, position); m {
	case 0, 1, 2:
		return ParamMode(m), ok
	default:
		return ModePosition, false
	}
}

func outputMode(raw int64, position int, ok bool) (ParamMode, bool) {
	switch m := modeDigit(raw, position); m {
	case 0, 2:
		return ParamMode(m), ok
	default:
		return ModePosition, false
	}
}
