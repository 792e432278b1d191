package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Snapshots: CBOR serialization of suspended processes
// ---------------------------------------------------------------------------

// cborEncMode uses canonical options for deterministic encoding, so equal
// process states always produce identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// snapshot is the wire form of a suspended process.
type snapshot struct {
	Memory  []int64 `cbor:"1,keyasint"`
	Counter int64   `cbor:"2,keyasint"`
	Base    int64   `cbor:"3,keyasint"`
	Inputs  []int64 `cbor:"4,keyasint,omitempty"`
	Outputs []int64 `cbor:"5,keyasint,omitempty"`
}

// MarshalSnapshot serializes the full process state to CBOR bytes. A
// process suspended between RunToOutput calls can be checkpointed with
// this and resumed later from UnmarshalSnapshot.
func MarshalSnapshot(p *Process) ([]byte, error) {
	s := snapshot{
		Memory:  p.mem.Snapshot(),
		Counter: p.counter,
		Base:    p.base,
		Inputs:  append([]int64(nil), p.inputs...),
		Outputs: append([]int64(nil), p.outputs...),
	}
	data, err := cborEncMode.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("vm: marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot reconstructs a process from snapshot bytes. The
// restored process continues exactly where the original was suspended.
func UnmarshalSnapshot(data []byte) (*Process, error) {
	var s snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	p := NewProcess(s.Memory)
	p.counter = s.Counter
	p.base = s.Base
	p.inputs = append([]int64(nil), s.Inputs...)
	p.outputs = append([]int64(nil), s.Outputs...)
	return p, nil
}
