package singlecycle

import (
	"strings"
	"testing"

	"github.com/DemianMArin/rv32pipe/pkg/memory"
	"github.com/DemianMArin/rv32pipe/pkg/register"
)

// encodeWords assembles a little helper fixture of raw 32-bit words
// into the byte-per-line binary text format LoadInstrMem expects.
func encodeWords(words []uint32) string {
	var sb strings.Builder
	for _, w := range words {
		for shift := 24; shift >= 0; shift -= 8 {
			sb.WriteString(toBinLine(byte(w >> uint(shift))))
		}
	}
	return sb.String()
}

func toBinLine(b byte) string {
	s := ""
	for i := 7; i >= 0; i-- {
		if b&(1<<uint(i)) != 0 {
			s += "1"
		} else {
			s += "0"
		}
	}
	return s + "\n"
}

func buildEngine(t *testing.T, words []uint32) *Engine {
	t.Helper()
	imem, err := memory.LoadInstrMem(strings.NewReader(encodeWords(words)))
	if err != nil {
		t.Fatalf("LoadInstrMem: %v", err)
	}
	dmem, err := memory.LoadDataMem(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadDataMem: %v", err)
	}
	var regs register.File
	return New(&regs, imem, dmem)
}

func runToHalt(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 1000 && !e.Halted; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if !e.Halted {
		t.Fatalf("engine did not halt")
	}
}

func TestScenario1AddImmAndAdd(t *testing.T) {
	words := []uint32{
		0x00500093, // ADDI x1, x0, 5
		0x00700113, // ADDI x2, x0, 7
		0x002081B3, // ADD  x3, x1, x2
		0xFFFFFFFF, // HALT
	}
	e := buildEngine(t, words)
	runToHalt(t, e)
	if got := e.Regs.Read(1); got != 5 {
		t.Errorf("x1 = %d, want 5", got)
	}
	if got := e.Regs.Read(2); got != 7 {
		t.Errorf("x2 = %d, want 7", got)
	}
	if got := e.Regs.Read(3); got != 12 {
		t.Errorf("x3 = %d, want 12", got)
	}
}

func TestScenario2LoadStoreRoundTrip(t *testing.T) {
	// ADDI x1,x0,10 ; SW x1,0(x0) ; LW x2,0(x0) ; ADD x3,x2,x1 ; HALT
	sw := uint32(0)
	sw |= 1 << 20 // rs2 = x1
	sw |= 0 << 15 // rs1 = x0
	sw |= 0b010 << 12
	sw |= 0b0100011

	lw := uint32(0)
	lw |= 0 << 15 // rs1 = x0
	lw |= 0b010 << 12
	lw |= 2 << 7 // rd = x2
	lw |= 0b0000011

	add := uint32(0)
	add |= 2 << 15 // rs1 = x2
	add |= 1 << 20 // rs2 = x1
	add |= 3 << 7  // rd = x3
	add |= 0b0110011

	words := []uint32{0x00A00093, sw, lw, add, 0xFFFFFFFF}

	e := buildEngine(t, words)
	runToHalt(t, e)
	if got := e.Regs.Read(2); got != 10 {
		t.Errorf("x2 = %d, want 10", got)
	}
	if got := e.Regs.Read(3); got != 20 {
		t.Errorf("x3 = %d, want 20", got)
	}
	v, err := e.DMem.ReadWord(0)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if v != 10 {
		t.Errorf("DMEM[0] = %d, want 10", v)
	}
}

func TestScenario6XoriAndForwarding(t *testing.T) {
	minusOne := int32(-1)
	addi := uint32(0)
	addi |= uint32(uint32(minusOne)&0xFFF) << 20
	addi |= 1 << 7
	addi |= 0b0010011

	xori := uint32(0)
	xori |= uint32(uint32(minusOne)&0xFFF) << 20
	xori |= 1 << 15
	xori |= 0b100 << 12
	xori |= 2 << 7
	xori |= 0b0010011

	and := uint32(0)
	and |= 1 << 15
	and |= 2 << 20
	and |= 0b111 << 12
	and |= 3 << 7
	and |= 0b0110011

	words := []uint32{addi, xori, and, 0xFFFFFFFF}
	e := buildEngine(t, words)
	runToHalt(t, e)
	if got := e.Regs.Read(1); got != 0xFFFFFFFF {
		t.Errorf("x1 = %#x, want 0xFFFFFFFF", got)
	}
	if got := e.Regs.Read(2); got != 0 {
		t.Errorf("x2 = %d, want 0", got)
	}
	if got := e.Regs.Read(3); got != 0 {
		t.Errorf("x3 = %d, want 0", got)
	}
}
