// Package pipeline composes several Intcode processes into amplifier
// chains. Processes never share memory; the chain moves values by copying
// one process's output into the next process's input queue.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/chazu/intcode/vm"
)

// ---------------------------------------------------------------------------
// Amplifier chains
// ---------------------------------------------------------------------------

// Serial runs one process per phase, in order. Each process receives its
// phase setting followed by the previous process's output signal; the
// first receives signal 0. The final process's first output is the chain's
// thrust value.
func Serial(image []int64, phases []int64) (int64, error) {
	signal := int64(0)
	for i, phase := range phases {
		p := vm.NewProcess(image)
		p.AddInput(phase)
		p.AddInput(signal)
		out, err := p.RunToOutput()
		if err != nil {
			return 0, fmt.Errorf("pipeline: amplifier %d: %w", i, err)
		}
		signal = out
	}
	return signal, nil
}

// Feedback runs one process per phase in a loop: the last process's output
// feeds back into the first. Each process is driven until its next output,
// then suspended while the signal moves on. The chain ends when every
// process has halted; the thrust value is the last signal emitted.
func Feedback(image []int64, phases []int64) (int64, error) {
	procs := make([]*vm.Process, len(phases))
	for i, phase := range phases {
		procs[i] = vm.NewProcess(image)
		procs[i].AddInput(phase)
	}

	signal := int64(0)
	halted := make([]bool, len(procs))
	running := len(procs)
	for running > 0 {
		for i, p := range procs {
			if halted[i] {
				continue
			}
			p.AddInput(signal)
			out, err := p.RunToOutput()
			if errors.Is(err, vm.ErrCatchFire) {
				halted[i] = true
				running--
				continue
			}
			if err != nil {
				return 0, fmt.Errorf("pipeline: amplifier %d: %w", i, err)
			}
			signal = out
		}
	}
	return signal, nil
}

// MaxThrust tries every ordering of the given phase settings and returns
// the highest thrust value any ordering produces. With feedback set the
// chains are wired as a feedback loop instead of a straight line.
func MaxThrust(image []int64, phases []int64, feedback bool) (int64, error) {
	run := Serial
	if feedback {
		run = Feedback
	}

	var best int64
	first := true
	for _, perm := range Permutations(phases) {
		thrust, err := run(image, perm)
		if err != nil {
			return 0, err
		}
		if first || thrust > best {
			best = thrust
			first = false
		}
	}
	if first {
		return 0, errors.New("pipeline: no phase settings given")
	}
	return best, nil
}

// Permutations returns every ordering of values. The input slice is not
// modified.
func Permutations(values []int64) [][]int64 {
	work := append([]int64(nil), values...)
	var out [][]int64
	permute(work, 0, &out)
	return out
}

func permute(values []int64, k int, out *[][]int64) {
	if k == len(values) {
		*out = append(*out, append([]int64(nil), values...))
		return
	}
	for i := k; i < len(values); i++ {
		values[k], values[i] = values[i], values[k]
		permute(values, k+1, out)
		values[k], values[i] = values[i], values[k]
	}
}

// ---------------------------------------------------------------------------
// Diagnostic runs
// ---------------------------------------------------------------------------

// Diagnostic runs a self-test program with a single system identifier as
// input. Such programs emit zero for every passing internal check and
// finish with one diagnostic code; Diagnostic enforces that shape and
// returns the code.
func Diagnostic(image []int64, systemID int64) (int64, error) {
	p := vm.NewProcess(image)
	p.AddInput(systemID)
	if err := p.Run(); !errors.Is(err, vm.ErrCatchFire) {
		return 0, fmt.Errorf("pipeline: diagnostic run: %w", err)
	}

	outputs := p.Outputs()
	if len(outputs) == 0 {
		return 0, errors.New("pipeline: diagnostic run produced no output")
	}
	for i, out := range outputs[:len(outputs)-1] {
		if out != 0 {
			return 0, fmt.Errorf("pipeline: diagnostic check %d failed with %d", i, out)
		}
	}
	return outputs[len(outputs)-1], nil
}
