// Package latch implements the five pipeline latch types (IF, ID, EX,
// MEM, WB) and their bit-exact textual renderers. The renderer output
// is the pipeline engine's test oracle: every field width and boolean
// spelling below is load-bearing for golden-file comparison, not a
// stylistic choice.
package latch

import (
	"fmt"
	"io"
	"strings"

	"github.com/DemianMArin/rv32pipe/pkg/isa"
)

// IF is the instruction-fetch latch.
type IF struct {
	Nop              bool
	PC               uint32
	InstructionCount int
	Halt             bool
}

func (l IF) body() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "IF.nop: %s\n", pyBool(l.Nop))
	fmt.Fprintf(&sb, "IF.PC: %d\n", l.PC)
	return sb.String()
}

// ID is the instruction-decode latch.
type ID struct {
	Nop             bool
	InstructionBits string // 32-char bitstring, or "" when empty
	Halt            bool
}

func (l ID) body() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID.nop: %s\n", pyBool(l.Nop))
	fmt.Fprintf(&sb, "ID.Instr: %s\n", l.InstructionBits)
	return sb.String()
}

// EX is the execute latch.
type EX struct {
	Nop               bool
	HasInstruction    bool // a decoded instruction handle occupies this slot
	InstrBits         string
	Opcode            uint32
	Operand1          uint32
	Operand2          uint32
	StoreData         uint32
	DestinationReg    uint32
	RS1               uint32
	RS2               uint32
	Imm               int32
	IsIType           bool
	ReadMem           bool
	WriteMem          bool
	WriteBackEnable   bool
	Halt              bool
}

// wrtRegAddrWidth implements the 5-vs-6-bit toggle from §6: 5 bits
// when the slot carries no instruction, or when it is live and will
// write back; 6 bits otherwise (the textual marker for a
// squashed/stalled-but-occupied slot).
func (l EX) wrtRegAddrWidth() int {
	if !l.HasInstruction || (!l.Nop && l.WriteBackEnable) {
		return 5
	}
	return 6
}

// immBits renders Imm as an unsigned two's-complement bitstring at the
// opcode-dependent width (§6), except when the slot has never held an
// instruction, where it renders as a full 32-bit field (models.py's
// instr_binary == "" special case).
func (l EX) immBits() string {
	if !l.HasInstruction {
		return bits(uint32(l.Imm), 32)
	}
	return bits(uint32(l.Imm), l.ImmWidth())
}

func (l EX) body() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "EX.nop: %s\n", pyBool(l.Nop))
	fmt.Fprintf(&sb, "EX.instr: %s\n", padBits(l.InstrBits, 32))
	fmt.Fprintf(&sb, "EX.Read_data1: %s\n", bits(l.Operand1, 32))
	fmt.Fprintf(&sb, "EX.Read_data2: %s\n", bits(l.Operand2, 32))
	fmt.Fprintf(&sb, "EX.Imm: %s\n", l.immBits())
	fmt.Fprintf(&sb, "EX.Rs: %s\n", bits(l.RS1, 5))
	fmt.Fprintf(&sb, "EX.Rt: %s\n", bits(l.RS2, 5))
	fmt.Fprintf(&sb, "EX.Wrt_reg_addr: %s\n", bits(l.DestinationReg, l.wrtRegAddrWidth()))
	fmt.Fprintf(&sb, "EX.is_I_type: %s\n", pyBit(l.IsIType))
	fmt.Fprintf(&sb, "EX.rd_mem: %s\n", pyBit(l.ReadMem))
	fmt.Fprintf(&sb, "EX.wrt_mem: %s\n", pyBit(l.WriteMem))
	fmt.Fprintf(&sb, "EX.alu_op: 00\n")
	fmt.Fprintf(&sb, "EX.wrt_enable: %s\n", pyBit(l.WriteBackEnable))
	return sb.String()
}

// ImmWidth reports the field width EX.Imm is rendered at when the slot
// holds an instruction: 13 for branches, 21 for JAL, 12 otherwise.
func (l EX) ImmWidth() int {
	return isa.ImmWidth(l.Opcode)
}

// MEM is the memory-access latch.
type MEM struct {
	Nop             bool
	HasInstruction  bool
	ALUResult       uint32
	DataAddress     uint32
	StoreData       uint32
	WriteRegAddr    uint32
	RS1             uint32
	RS2             uint32
	ReadMem         bool
	WriteMem        bool
	WriteBackEnable bool
	Halt            bool
}

func (l MEM) body() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MEM.nop: %s\n", pyBool(l.Nop))
	fmt.Fprintf(&sb, "MEM.ALUresult: %s\n", bits(l.ALUResult, 32))
	fmt.Fprintf(&sb, "MEM.Store_data: %s\n", bits(l.StoreData, 32))
	fmt.Fprintf(&sb, "MEM.Rs: %s\n", bits(l.RS1, 5))
	fmt.Fprintf(&sb, "MEM.Rt: %s\n", bits(l.RS2, 5))
	fmt.Fprintf(&sb, "MEM.Wrt_reg_addr: %s\n", bits(l.WriteRegAddr, 5))
	fmt.Fprintf(&sb, "MEM.rd_mem: %s\n", pyBit(l.ReadMem))
	fmt.Fprintf(&sb, "MEM.wrt_mem: %s\n", pyBit(l.WriteMem))
	fmt.Fprintf(&sb, "MEM.wrt_enable: %s\n", pyBit(l.WriteBackEnable))
	return sb.String()
}

// WB is the write-back latch.
type WB struct {
	Nop             bool
	HasInstruction  bool
	StoreData       uint32
	WriteRegAddr    uint32
	RS1             uint32
	RS2             uint32
	WriteBackEnable bool
	Halt            bool
}

func (l WB) body() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "WB.nop: %s\n", pyBool(l.Nop))
	fmt.Fprintf(&sb, "WB.Wrt_data: %s\n", bits(l.StoreData, 32))
	fmt.Fprintf(&sb, "WB.Rs: %s\n", bits(l.RS1, 5))
	fmt.Fprintf(&sb, "WB.Rt: %s\n", bits(l.RS2, 5))
	fmt.Fprintf(&sb, "WB.Wrt_reg_addr: %s\n", bits(l.WriteRegAddr, 5))
	fmt.Fprintf(&sb, "WB.wrt_enable: %s\n", pyBit(l.WriteBackEnable))
	return sb.String()
}

// Snapshot is one cycle's worth of all five latches, the unit the
// pipeline engine dumps to StateResult_FS.txt.
type Snapshot struct {
	IF  IF
	ID  ID
	EX  EX
	MEM MEM
	WB  WB
}

const banner = "----------------------------------------------------------------------\n"

// RenderPipelineState writes the banner, cycle header, and all five
// latch bodies joined by single newlines, matching StateResult_FS.txt.
func RenderPipelineState(w io.Writer, cycle int, s Snapshot) error {
	var sb strings.Builder
	sb.WriteString(banner)
	fmt.Fprintf(&sb, "State after executing cycle: %d\n", cycle)
	sb.WriteString(s.IF.body())
	sb.WriteString(s.ID.body())
	sb.WriteString(s.EX.body())
	sb.WriteString(s.MEM.body())
	sb.WriteString(s.WB.body())
	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderSingleStageState writes the banner, cycle header, and the
// minimal IF-only dump used by StateResult_SS.txt.
func RenderSingleStageState(w io.Writer, cycle int, pc uint32, nop bool) error {
	var sb strings.Builder
	sb.WriteString(banner)
	fmt.Fprintf(&sb, "State after executing cycle: %d\n", cycle)
	fmt.Fprintf(&sb, "IF.PC: %d\n", pc)
	fmt.Fprintf(&sb, "IF.nop: %s\n", pyBool(nop))
	_, err := io.WriteString(w, sb.String())
	return err
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func pyBit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func bits(v uint32, width int) string {
	s := fmt.Sprintf("%0*b", width, v)
	if len(s) > width {
		return s[len(s)-width:]
	}
	return s
}

func padBits(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return strings.Repeat("0", width-len(s)) + s
}
