// Package singlecycle implements the single-cycle reference engine:
// the correctness oracle the pipeline engine is checked against.
package singlecycle

import (
	"errors"
	"fmt"

	"github.com/DemianMArin/rv32pipe/pkg/isa"
	"github.com/DemianMArin/rv32pipe/pkg/memory"
	"github.com/DemianMArin/rv32pipe/pkg/register"
)

// Engine executes one instruction per cycle in a flat
// IF->ID->EX->MEM->WB sequence, atomically, against its register file
// and data memory.
type Engine struct {
	Regs *register.File
	IMem *memory.InstrMem
	DMem *memory.DataMem

	PC      uint32
	Halted  bool
	Nop     bool
	Cycles  int
	Retired int
}

// New builds an engine over the given register file and memories.
// The driver gives each engine its own copies of this state.
func New(regs *register.File, imem *memory.InstrMem, dmem *memory.DataMem) *Engine {
	return &Engine{Regs: regs, IMem: imem, DMem: dmem}
}

// Step advances the engine by one cycle. It is a no-op once Halted.
func (e *Engine) Step() error {
	if e.Halted {
		return nil
	}
	e.Cycles++

	word, err := e.IMem.ReadWord(e.PC)
	if err != nil {
		return fmt.Errorf("singlecycle: fetch: %w", err)
	}

	ins, err := isa.Decode(word)
	if errors.Is(err, isa.ErrHalt) {
		e.Nop = true
		e.Halted = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("singlecycle: decode: %w", err)
	}

	e.Nop = false
	e.Retired++
	return e.execute(ins)
}

func (e *Engine) execute(ins isa.Instruction) error {
	nextPC := e.PC + 4

	switch ins.Format {
	case isa.FormatR:
		a, b := e.Regs.Read(ins.RS1), e.Regs.Read(ins.RS2)
		e.Regs.Write(ins.RD, aluR(ins.Mnemonic, a, b))

	case isa.FormatIImm:
		a := e.Regs.Read(ins.RS1)
		e.Regs.Write(ins.RD, aluI(ins.Mnemonic, a, ins.Imm))

	case isa.FormatILoad:
		addr := e.Regs.Read(ins.RS1) + uint32(ins.Imm)
		v, err := e.DMem.ReadWord(addr)
		if err != nil {
			return fmt.Errorf("singlecycle: data read: %w", err)
		}
		e.Regs.Write(ins.RD, uint32(v))

	case isa.FormatS:
		addr := e.Regs.Read(ins.RS1) + uint32(ins.Imm)
		e.DMem.WriteWord(addr, e.Regs.Read(ins.RS2))

	case isa.FormatB:
		a, b := e.Regs.Read(ins.RS1), e.Regs.Read(ins.RS2)
		taken := (ins.Mnemonic == "BEQ" && a == b) || (ins.Mnemonic == "BNE" && a != b)
		if taken {
			nextPC = e.PC + uint32(ins.Imm)
		}

	case isa.FormatJ:
		e.Regs.Write(ins.RD, e.PC+4)
		nextPC = e.PC + uint32(ins.Imm)
	}

	e.PC = nextPC
	return nil
}

func aluR(mnemonic string, a, b uint32) uint32 {
	switch mnemonic {
	case "ADD":
		return a + b
	case "SUB":
		return a - b
	case "XOR":
		return a ^ b
	case "OR":
		return a | b
	case "AND":
		return a & b
	default:
		return 0
	}
}

func aluI(mnemonic string, a uint32, imm int32) uint32 {
	switch mnemonic {
	case "ADDI":
		return a + uint32(imm)
	case "XORI":
		return a ^ uint32(imm)
	case "ORI":
		return a | uint32(imm)
	case "ANDI":
		return a & uint32(imm)
	default:
		return 0
	}
}
