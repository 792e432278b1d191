package vm

// ---------------------------------------------------------------------------
// Memory: the growable integer tape
// ---------------------------------------------------------------------------

// Memory is the zero-indexed tape of signed integer words a process
// executes over. The tape starts out as long as the loaded program but is
// logically infinite: cells past the end read as zero, and a store past
// the end materializes the tape up to the touched address. Negative
// addresses are never valid and never auto-extended.
type Memory struct {
	cells []int64
}

// NewMemory copies the initial program image into a fresh tape.
func NewMemory(image []int64) *Memory {
	cells := make([]int64, len(image))
	copy(cells, image)
	return &Memory{cells: cells}
}

// Load reads the word at address. Addresses past the end of the tape read
// as the implicit zero-fill value; only negative addresses fail.
func (m *Memory) Load(address int64) (int64, error) {
	if address < 0 {
		return 0, &SegfaultError{Address: address}
	}
	if address >= int64(len(m.cells)) {
		return 0, nil
	}
	return m.cells[address], nil
}

// Store writes value at address, zero-filling any intermediate cells when
// the address lies past the current end of the tape.
func (m *Memory) Store(address, value int64) error {
	if address < 0 {
		return &SegfaultError{Address: address}
	}
	if address >= int64(len(m.cells)) {
		grown := make([]int64, address+1)
		copy(grown, m.cells)
		m.cells = grown
	}
	m.cells[address] = value
	return nil
}

// Len returns the number of materialized cells.
func (m *Memory) Len() int {
	return len(m.cells)
}

// Snapshot returns a copy of the materialized tape. Callers never get a
// live handle into the tape itself.
func (m *Memory) Snapshot() []int64 {
	out := make([]int64, len(m.cells))
	copy(out, m.cells)
	return out
}
