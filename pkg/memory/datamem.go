package memory

import (
	"bufio"
	"fmt"
	"io"
)

// minDataMemCells is the minimum size data memory is padded to on load.
const minDataMemCells = 1000

// DataMem is a read/write byte-addressable data image.
type DataMem struct {
	bytes []byte
}

// LoadDataMem reads the same line-oriented format as LoadInstrMem and
// pads the result with zero bytes to at least minDataMemCells cells.
func LoadDataMem(r io.Reader) (*DataMem, error) {
	bs, err := readByteLines(r)
	if err != nil {
		return nil, fmt.Errorf("memory: load data image: %w", err)
	}
	if len(bs) < minDataMemCells {
		bs = append(bs, make([]byte, minDataMemCells-len(bs))...)
	}
	return &DataMem{bytes: bs}, nil
}

// ReadWord assembles 4 consecutive bytes starting at ⌊a/4⌋·4 in
// big-endian order and returns a signed 32-bit interpretation.
func (m *DataMem) ReadWord(a uint32) (int32, error) {
	base := (a / 4) * 4
	if int(base)+4 > len(m.bytes) {
		return 0, fmt.Errorf("%w: data read at %#x", ErrOutOfRange, a)
	}
	return int32(assembleWord(m.bytes[base : base+4])), nil
}

// WriteWord rounds a down to a multiple of 4, extending the memory
// with zero bytes if needed, and stores the 32-bit unsigned
// bit-pattern of v as 4 big-endian bytes. Writes never fail.
func (m *DataMem) WriteWord(a uint32, v uint32) {
	base := (a / 4) * 4
	need := int(base) + 4
	if need > len(m.bytes) {
		m.bytes = append(m.bytes, make([]byte, need-len(m.bytes))...)
	}
	m.bytes[base] = byte(v >> 24)
	m.bytes[base+1] = byte(v >> 16)
	m.bytes[base+2] = byte(v >> 8)
	m.bytes[base+3] = byte(v)
}

// Dump writes the final memory image, one 8-bit byte per line in the
// same binary-digit text format it was loaded from.
func (m *DataMem) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, b := range m.bytes {
		if _, err := fmt.Fprintf(bw, "%08b\n", b); err != nil {
			return err
		}
	}
	return bw.Flush()
}
