// Package register implements the 32-entry architectural register
// file and its per-cycle dump format.
package register

import (
	"fmt"
	"io"
	"strings"
)

// NumRegisters is the size of the architectural register file.
const NumRegisters = 32

// File is the 32x32-bit architectural register file. Register 0 is
// hard-wired to zero.
type File struct {
	regs [NumRegisters]uint32
}

// Read returns the value of register i, or 0 for i == 0.
func (f *File) Read(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return f.regs[i]
}

// Write stores v into register i, silently ignoring writes to
// register 0.
func (f *File) Write(i uint32, v uint32) {
	if i == 0 {
		return
	}
	f.regs[i] = v
}

// Render writes the per-cycle dump: a header naming the cycle
// followed by 32 lines of 32-bit two's-complement binary, one per
// register in index order.
func (f *File) Render(w io.Writer, cycle int) error {
	if _, err := fmt.Fprintf(w, "State of RF after executing cycle:\t%d\n", cycle); err != nil {
		return err
	}
	for i := 0; i < NumRegisters; i++ {
		v := f.Read(uint32(i))
		if _, err := fmt.Fprintf(w, "%032b\n", v); err != nil {
			return err
		}
	}
	return nil
}

// String implements fmt.Stringer for debug output and test failures,
// rendering at cycle 0.
func (f *File) String() string {
	var sb strings.Builder
	_ = f.Render(&sb, 0)
	return sb.String()
}
