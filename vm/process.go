package vm

// ---------------------------------------------------------------------------
// Process: one Intcode execution
// ---------------------------------------------------------------------------

// Process is a single Intcode program execution: a memory tape, the
// instruction counter, the relative base, a FIFO input queue, and an
// append-only output log. Processes share nothing; pipelines of several
// processes communicate only through values the caller copies from one
// process's outputs into another's input queue.
//
// A process is disposable. Once Run or Step reports a terminal condition
// other than ErrNoInput it must not be stepped again.
type Process struct {
	mem     *Memory
	counter int64
	base    int64
	inputs  []int64
	outputs []int64
}

// NewProcess creates a process over a copy of the given program image.
func NewProcess(image []int64) *Process {
	return &Process{mem: NewMemory(image)}
}

// ---------------------------------------------------------------------------
// Inspection and mutation
// ---------------------------------------------------------------------------

// Counter returns the instruction counter.
func (p *Process) Counter() int64 {
	return p.counter
}

// RelativeBase returns the relative base register.
func (p *Process) RelativeBase() int64 {
	return p.base
}

// Memory returns a copy of the materialized memory tape.
func (p *Process) Memory() []int64 {
	return p.mem.Snapshot()
}

// Outputs returns a copy of the output log, in emission order.
func (p *Process) Outputs() []int64 {
	out := make([]int64, len(p.outputs))
	copy(out, p.outputs)
	return out
}

// PendingInputs returns the number of queued, unconsumed input values.
func (p *Process) PendingInputs() int {
	return len(p.inputs)
}

// Load reads the word at address, for caller-side inspection.
func (p *Process) Load(address int64) (int64, error) {
	return p.mem.Load(address)
}

// Store writes the word at address, for caller-side patching before
// execution (e.g. injecting puzzle parameters at fixed addresses).
func (p *Process) Store(address, value int64) error {
	return p.mem.Store(address, value)
}

// AddInput appends a value to the input queue. Valid at any time,
// including between Step calls while a pipeline is suspended.
func (p *Process) AddInput(value int64) {
	p.inputs = append(p.inputs, value)
}

// ---------------------------------------------------------------------------
// Execution
// ---------------------------------------------------------------------------

// Step fetches, decodes, and executes the single instruction at the
// counter. When that instruction was an output, emitted is true and output
// carries the produced value; RunToOutput stops exactly there. A non-nil
// error is terminal (see the error taxonomy in errors.go).
func (p *Process) Step() (output int64, emitted bool, err error) {
	raw, err := p.mem.Load(p.counter)
	if err != nil {
		return 0, false, err
	}
	inst, err := Decode(raw)
	if err != nil {
		return 0, false, err
	}

	switch inst.Op {
	case OpAdd:
		err = p.binary(inst, func(a, b int64) int64 { return a + b })
	case OpMul:
		err = p.binary(inst, func(a, b int64) int64 { return a * b })
	case OpInput:
		err = p.readInput(inst)
	case OpOutput:
		output, err = p.emit(inst)
		emitted = err == nil
	case OpJumpIfTrue:
		err = p.jump(inst, func(v int64) bool { return v != 0 })
	case OpJumpIfFalse:
		err = p.jump(inst, func(v int64) bool { return v == 0 })
	case OpLessThan:
		err = p.binary(inst, func(a, b int64) int64 {
			if a < b {
				return 1
			}
			return 0
		})
	case OpEquals:
		err = p.binary(inst, func(a, b int64) int64 {
			if a == b {
				return 1
			}
			return 0
		})
	case OpAdjustBase:
		err = p.adjustBase(inst)
	case OpHalt:
		err = ErrCatchFire
	}

	if err != nil {
		return 0, false, err
	}
	return output, emitted, nil
}

// Run executes instructions until a terminal condition. Normal program
// termination surfaces as ErrCatchFire; every other error is a genuine
// defect in the program or its inputs. A program that never halts runs
// forever; callers wanting a bound must drive Step themselves.
func (p *Process) Run() error {
	for {
		if _, _, err := p.Step(); err != nil {
			return err
		}
	}
}

// RunToOutput executes instructions until the program emits an output and
// returns the produced value. Suspending here and resuming later loses no
// state, which is what lets a caller drive several processes in a
// cooperative rotation.
func (p *Process) RunToOutput() (int64, error) {
	for {
		out, emitted, err := p.Step()
		if err != nil {
			return 0, err
		}
		if emitted {
			return out, nil
		}
	}
}

// ---------------------------------------------------------------------------
// Parameter resolution
// ---------------------------------------------------------------------------

// loadInput resolves an input parameter whose operand sits at address at.
func (p *Process) loadInput(mode ParamMode, at int64) (int64, error) {
	operand, err := p.mem.Load(at)
	if err != nil {
		return 0, err
	}
	switch mode {
	case ModeImmediate:
		return operand, nil
	case ModeRelative:
		return p.mem.Load(operand + p.base)
	default:
		return p.mem.Load(operand)
	}
}

// storeOutput resolves an output parameter's destination address and
// writes value there. Output parameters are never immediate; the decoder
// already rejected that.
func (p *Process) storeOutput(mode ParamMode, at, value int64) error {
	operand, err := p.mem.Load(at)
	if err != nil {
		return err
	}
	if mode == ModeRelative {
		operand += p.base
	}
	return p.mem.Store(operand, value)
}

// ---------------------------------------------------------------------------
// Opcode handlers
// ---------------------------------------------------------------------------

// binary handles the two-input one-output instructions: Add, Mul,
// LessThan, Equals.
func (p *Process) binary(inst Instruction, op func(a, b int64) int64) error {
	a, err := p.loadInput(inst.Modes[0], p.counter+1)
	if err != nil {
		return err
	}
	b, err := p.loadInput(inst.Modes[1], p.counter+2)
	if err != nil {
		return err
	}
	if err := p.storeOutput(inst.Modes[2], p.counter+3, op(a, b)); err != nil {
		return err
	}
	p.counter += 4
	return nil
}

func (p *Process) readInput(inst Instruction) error {
	if len(p.inputs) == 0 {
		return ErrNoInput
	}
	value := p.inputs[0]
	p.inputs = p.inputs[1:]
	if err := p.storeOutput(inst.Modes[0], p.counter+1, value); err != nil {
		return err
	}
	p.counter += 2
	return nil
}

func (p *Process) emit(inst Instruction) (int64, error) {
	value, err := p.loadInput(inst.Modes[0], p.counter+1)
	if err != nil {
		return 0, err
	}
	p.outputs = append(p.outputs, value)
	p.counter += 2
	return value, nil
}

func (p *Process) jump(inst Instruction, taken func(int64) bool) error {
	cond, err := p.loadInput(inst.Modes[0], p.counter+1)
	if err != nil {
		return err
	}
	target, err := p.loadInput(inst.Modes[1], p.counter+2)
	if err != nil {
		return err
	}
	if taken(cond) {
		// A negative target surfaces as a Segfault on the next fetch.
		p.counter = target
	} else {
		p.counter += 3
	}
	return nil
}

func (p *Process) adjustBase(inst Instruction) error {
	delta, err := p.loadInput(inst.Modes[0], p.counter+1)
	if err != nil {
		return err
	}
	p.base += delta
	p.counter += 2
	return nil
}
