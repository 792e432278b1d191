package vm

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

func TestSnapshotRoundTripMidRun(t *testing.T) {
	p := NewProcess([]int64{
		Encode(OpAdjustBase, ModeImmediate), 100,
		Encode(OpOutput, ModeImmediate), 1,
		Encode(OpOutput, ModeImmediate), 2,
		Encode(OpOutput, ModeImmediate), 3,
		Encode(OpHalt),
	})
	p.AddInput(55)

	// Suspend after the first output
	if out, err := p.RunToOutput(); err != nil || out != 1 {
		t.Fatalf("RunToOutput() = %d, %v, want 1", out, err)
	}

	data, err := MarshalSnapshot(p)
	if err != nil {
		t.Fatalf("MarshalSnapshot() failed: %v", err)
	}
	restored, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot() failed: %v", err)
	}

	if restored.Counter() != p.Counter() {
		t.Errorf("restored counter = %d, want %d", restored.Counter(), p.Counter())
	}
	if restored.RelativeBase() != 100 {
		t.Errorf("restored base = %d, want 100", restored.RelativeBase())
	}
	if restored.PendingInputs() != 1 {
		t.Errorf("restored PendingInputs() = %d, want 1", restored.PendingInputs())
	}
	if got := restored.Outputs(); !slices.Equal(got, []int64{1}) {
		t.Errorf("restored Outputs() = %v, want [1]", got)
	}

	// The restored process finishes exactly like the original would
	if out, err := restored.RunToOutput(); err != nil || out != 2 {
		t.Fatalf("restored RunToOutput() = %d, %v, want 2", out, err)
	}
	if out, err := restored.RunToOutput(); err != nil || out != 3 {
		t.Fatalf("restored RunToOutput() = %d, %v, want 3", out, err)
	}
	if err := restored.Run(); !errors.Is(err, ErrCatchFire) {
		t.Fatalf("restored Run() = %v, want ErrCatchFire", err)
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	image := []int64{1101, 2, 3, 7, 104, 9, 99, 0}

	a := NewProcess(image)
	b := NewProcess(image)
	runToHalt(t, a)
	runToHalt(t, b)

	da, err := MarshalSnapshot(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := MarshalSnapshot(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(da, db) {
		t.Error("equal process states produced different snapshot bytes")
	}
}

func TestSnapshotGarbage(t *testing.T) {
	if _, err := UnmarshalSnapshot([]byte("not cbor at all")); err == nil {
		t.Fatal("UnmarshalSnapshot accepted garbage bytes")
	}
}
