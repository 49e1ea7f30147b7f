// Package pipeline implements the five-stage pipelined engine: IF,
// ID, EX, MEM, WB evaluated in reverse order against a current/next
// pair of latch snapshots, with hazard detection, forwarding, and
// load-use stalling in hazard.go.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/DemianMArin/rv32pipe/pkg/isa"
	"github.com/DemianMArin/rv32pipe/pkg/latch"
	"github.com/DemianMArin/rv32pipe/pkg/memory"
	"github.com/DemianMArin/rv32pipe/pkg/register"
)

type ifLatch struct {
	nop    bool
	pc     uint32
	count  int
	halt   bool
}

type idLatch struct {
	nop  bool
	bits string
	halt bool
}

type exLatch struct {
	nop             bool
	hasIns          bool
	ins             isa.Instruction
	operand1        uint32
	operand2        uint32
	storeData       uint32
	destReg         uint32
	rs1             uint32
	rs2             uint32
	imm             int32
	isIType         bool
	readMem         bool
	writeMem        bool
	writeBackEnable bool
	halt            bool
}

type memLatch struct {
	nop             bool
	hasIns          bool
	ins             isa.Instruction
	aluResult       uint32
	dataAddress     uint32
	storeData       uint32
	writeRegAddr    uint32
	rs1             uint32
	rs2             uint32
	readMem         bool
	writeMem        bool
	writeBackEnable bool
	halt            bool
}

type wbLatch struct {
	nop             bool
	hasIns          bool
	ins             isa.Instruction
	storeData       uint32
	writeRegAddr    uint32
	rs1             uint32
	rs2             uint32
	writeBackEnable bool
	halt            bool
}

type snapshot struct {
	IF  ifLatch
	ID  idLatch
	EX  exLatch
	MEM memLatch
	WB  wbLatch
}

// Engine is the five-stage pipelined reference engine.
type Engine struct {
	Regs *register.File
	IMem *memory.InstrMem
	DMem *memory.DataMem

	cur, next snapshot

	haltSeen bool
	Halted   bool
	Cycles   int

	pcRedirected bool
	idFroze      bool
}

// New builds a pipeline engine over the given register file and
// memories. Latches start in their reset (all-nop) state.
func New(regs *register.File, imem *memory.InstrMem, dmem *memory.DataMem) *Engine {
	e := &Engine{Regs: regs, IMem: imem, DMem: dmem}
	e.cur = snapshot{
		IF:  ifLatch{nop: false},
		ID:  idLatch{nop: true},
		EX:  exLatch{nop: true},
		MEM: memLatch{nop: true},
		WB:  wbLatch{nop: true},
	}
	return e
}

// InstructionCount returns IF's running count of fetched instructions,
// including the terminal off-by-one bump applied at halt (§4.7).
func (e *Engine) InstructionCount() int { return e.cur.IF.count }

// Step advances the engine by one cycle, evaluating WB, MEM, EX, ID,
// IF in that order against e.cur, writing e.next, then committing
// e.next as the new e.cur. It is a no-op once Halted.
func (e *Engine) Step() error {
	if e.Halted {
		return nil
	}
	e.Cycles++

	// The halt check runs against the state committed at the end of
	// the previous cycle, one cycle behind the point where every
	// latch actually went nop: this is the off-by-one the golden
	// outputs expect (§4.7, §9 open question 2), not a bug introduced
	// here.
	if e.allDrained() {
		e.Halted = true
		e.cur.IF.count++
		return nil
	}

	e.pcRedirected = false
	e.idFroze = false
	e.next = snapshot{}

	e.stepWB()
	if err := e.stepMEM(); err != nil {
		return err
	}
	e.stepEX()
	if err := e.stepID(); err != nil {
		return err
	}
	if err := e.stepIF(); err != nil {
		return err
	}

	e.cur = e.next
	return nil
}

func (e *Engine) allDrained() bool {
	return e.cur.IF.nop && e.cur.ID.nop && e.cur.EX.nop && e.cur.MEM.nop && e.cur.WB.nop
}

func (e *Engine) stepWB() {
	w := e.cur.WB
	if w.nop {
		return
	}
	if w.writeBackEnable && w.writeRegAddr != 0 {
		e.Regs.Write(w.writeRegAddr, w.storeData)
	}
}

func (e *Engine) stepMEM() error {
	m := e.cur.MEM
	if m.nop {
		e.next.WB = nopWB(e.cur.WB)
		return nil
	}
	storeData := m.storeData
	if m.readMem {
		v, err := e.DMem.ReadWord(m.dataAddress)
		if err != nil {
			return fmt.Errorf("pipeline: MEM load: %w", err)
		}
		storeData = uint32(v)
	} else if m.writeMem {
		e.DMem.WriteWord(m.dataAddress, m.storeData)
	}
	e.next.WB = wbLatch{
		nop: false, hasIns: true, ins: m.ins,
		storeData: storeData, writeRegAddr: m.writeRegAddr,
		rs1: m.rs1, rs2: m.rs2,
		writeBackEnable: m.writeBackEnable, halt: m.halt,
	}
	return nil
}

func (e *Engine) stepEX() {
	x := e.cur.EX
	if x.nop {
		e.next.MEM = nopMEM(e.cur.MEM)
		return
	}

	aluResult, dataAddress, storeData := x.storeData, uint32(0), x.storeData
	readMem, writeMem := x.readMem, x.writeMem

	switch x.ins.Format {
	case isa.FormatR:
		aluResult = aluOp(x.ins.Mnemonic, x.operand1, x.operand2)
		storeData = aluResult
	case isa.FormatIImm:
		aluResult = aluOpImm(x.ins.Mnemonic, x.operand1, x.imm)
		storeData = aluResult
	case isa.FormatILoad:
		aluResult = x.operand1 + uint32(x.imm)
		dataAddress = aluResult
	case isa.FormatS:
		aluResult = x.operand1 + uint32(x.imm)
		dataAddress = aluResult
		storeData = x.operand2
	case isa.FormatB, isa.FormatJ:
		// resolved in ID; EX performs no ALU computation and simply
		// forwards the fields ID already decided (store_data carries
		// JAL's return address; branches never write back).
	}

	e.next.MEM = memLatch{
		nop: false, hasIns: true, ins: x.ins,
		aluResult: aluResult, dataAddress: dataAddress, storeData: storeData,
		writeRegAddr: x.destReg, rs1: x.rs1, rs2: x.rs2,
		readMem: readMem, writeMem: writeMem,
		writeBackEnable: x.writeBackEnable, halt: x.halt,
	}
}

func (e *Engine) stepID() error {
	id := e.cur.ID
	if id.nop {
		e.next.EX = nopEX(e.cur.EX)
		return nil
	}

	word := bitsToWord(id.bits)
	ins, err := isa.Decode(word)
	if err != nil {
		return fmt.Errorf("pipeline: ID decode: %w", err)
	}

	if stall := e.checkLoadUseStall(ins); stall {
		e.next.EX = exLatch{nop: true}
		e.next.ID = id // instruction stays put, retried next cycle
		e.idFroze = true
		return nil
	}

	op1 := e.forward(ins.RS1)
	op2 := e.forward(ins.RS2)

	switch ins.Format {
	case isa.FormatB:
		taken := (ins.Mnemonic == "BEQ" && op1 == op2) || (ins.Mnemonic == "BNE" && op1 != op2)
		e.next.EX = exLatch{nop: true, hasIns: true, ins: ins}
		if taken {
			e.next.IF.pc = e.cur.IF.pc + uint32(ins.Imm) - 4
			e.pcRedirected = true
			e.cur.IF.nop = true
			e.next.ID = idLatch{nop: true}
		}
		return nil

	case isa.FormatJ:
		e.next.IF.pc = e.cur.IF.pc + uint32(ins.Imm) - 4
		e.pcRedirected = true
		e.cur.IF.nop = true
		e.next.EX = exLatch{
			nop: false, hasIns: true, ins: ins,
			storeData: e.cur.IF.pc, destReg: ins.RD,
			writeBackEnable: true,
		}
		e.next.ID = idLatch{nop: true}
		return nil
	}

	destReg := uint32(0)
	if ins.WritesBack() {
		destReg = ins.RD
	}
	e.next.EX = exLatch{
		nop: false, hasIns: true, ins: ins,
		operand1: op1, operand2: op2,
		destReg: destReg, rs1: ins.RS1, rs2: ins.RS2, imm: ins.Imm,
		isIType:         ins.Format == isa.FormatIImm || ins.Format == isa.FormatILoad,
		readMem:         ins.IsLoad(),
		writeMem:        ins.IsStore(),
		writeBackEnable: ins.WritesBack(),
	}
	return nil
}

func (e *Engine) stepIF() error {
	// ID already redirected the PC and/or froze the ID latch this
	// cycle; IF must not override either.
	if e.idFroze {
		e.next.IF = ifLatch{nop: false, pc: e.cur.IF.pc, count: e.cur.IF.count, halt: false}
		return nil
	}

	if e.cur.IF.nop {
		if !e.pcRedirected {
			e.next.IF.pc = e.cur.IF.pc
		}
		e.next.IF.count = e.cur.IF.count
		e.next.IF.nop = e.haltSeen
		e.next.IF.halt = e.haltSeen
		if e.next.ID == (idLatch{}) {
			e.next.ID = nopID(e.cur.ID)
		}
		return nil
	}

	word, err := e.IMem.ReadWord(e.cur.IF.pc)
	if err != nil {
		return fmt.Errorf("pipeline: IF fetch: %w", err)
	}

	if _, derr := isa.Decode(word); derr != nil {
		if errors.Is(derr, isa.ErrHalt) {
			e.haltSeen = true
			e.next.IF = ifLatch{nop: true, pc: e.cur.IF.pc, count: e.cur.IF.count, halt: true}
			e.next.ID = nopID(e.cur.ID)
			return nil
		}
		return fmt.Errorf("pipeline: IF decode: %w", derr)
	}

	e.next.IF = ifLatch{nop: false, pc: e.cur.IF.pc + 4, count: e.cur.IF.count + 1, halt: false}
	e.next.ID = idLatch{nop: false, bits: wordToBits(word)}
	return nil
}

// nopID retains the prior instruction_bytes for display while marking
// the latch a bubble, per §5 SUPPLEMENTED FEATURES nop-passthrough.
func nopID(prev idLatch) idLatch {
	return idLatch{nop: true, bits: prev.bits, halt: prev.halt}
}

// nopEX freezes the current EX latch's display fields while marking it
// a bubble, mirroring rv32i.py's ID-stage nop branch (retains
// instr_binary, operand1, operand2, destination_register, rs1, rs2,
// imm, is_i_type, and the read/write/wrt_enable control flags from the
// EX latch already in flight; halt is not carried, matching the
// source's fresh-state construction).
func nopEX(prev exLatch) exLatch {
	return exLatch{
		nop: true, hasIns: prev.hasIns, ins: prev.ins,
		operand1: prev.operand1, operand2: prev.operand2,
		destReg: prev.destReg, rs1: prev.rs1, rs2: prev.rs2, imm: prev.imm,
		isIType:         prev.isIType,
		readMem:         prev.readMem,
		writeMem:        prev.writeMem,
		writeBackEnable: prev.writeBackEnable,
	}
}

// nopMEM freezes the current MEM latch's display fields while marking
// it a bubble, mirroring rv32i.py's EX-stage nop branch (retains
// alu_result, data_address, store_data, write_register_addr, rs1, rs2,
// and the read/write/wrt_enable control flags from the MEM latch
// already in flight).
func nopMEM(prev memLatch) memLatch {
	return memLatch{
		nop: true, hasIns: prev.hasIns, ins: prev.ins,
		aluResult: prev.aluResult, dataAddress: prev.dataAddress, storeData: prev.storeData,
		writeRegAddr: prev.writeRegAddr, rs1: prev.rs1, rs2: prev.rs2,
		readMem: prev.readMem, writeMem: prev.writeMem, writeBackEnable: prev.writeBackEnable,
	}
}

// nopWB freezes the current WB latch's display fields while marking it
// a bubble, mirroring rv32i.py's MEM-stage nop branch (retains
// store_data, write_register_addr, rs1, rs2, and write_back_enable
// from the WB latch already in flight).
func nopWB(prev wbLatch) wbLatch {
	return wbLatch{
		nop: true, hasIns: prev.hasIns, ins: prev.ins,
		storeData: prev.storeData, writeRegAddr: prev.writeRegAddr,
		rs1: prev.rs1, rs2: prev.rs2, writeBackEnable: prev.writeBackEnable,
	}
}

func bitsToWord(bits string) uint32 {
	var w uint32
	for i := 0; i < len(bits); i++ {
		w <<= 1
		if bits[i] == '1' {
			w |= 1
		}
	}
	return w
}

func wordToBits(w uint32) string {
	return fmt.Sprintf("%032b", w)
}

func aluOp(mnemonic string, a, b uint32) uint32 {
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

func aluOpImm(mnemonic string, a uint32, imm int32) uint32 {
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

// Snapshot renders the current cycle's five latches for the
// StateResult_FS.txt writer.
func (e *Engine) Snapshot() latch.Snapshot {
	return latch.Snapshot{
		IF: latch.IF{Nop: e.cur.IF.nop, PC: e.cur.IF.pc},
		ID: latch.ID{Nop: e.cur.ID.nop, InstructionBits: e.cur.ID.bits},
		EX: latch.EX{
			Nop: e.cur.EX.nop, HasInstruction: e.cur.EX.hasIns,
			InstrBits: wordToBits(e.cur.EX.ins.Word), Opcode: isa.Opcode(e.cur.EX.ins.Word),
			Operand1: e.cur.EX.operand1, Operand2: e.cur.EX.operand2,
			StoreData: e.cur.EX.storeData, DestinationReg: e.cur.EX.destReg,
			RS1: e.cur.EX.rs1, RS2: e.cur.EX.rs2, Imm: e.cur.EX.imm,
			IsIType: e.cur.EX.isIType, ReadMem: e.cur.EX.readMem,
			WriteMem: e.cur.EX.writeMem, WriteBackEnable: e.cur.EX.writeBackEnable,
		},
		MEM: latch.MEM{
			Nop: e.cur.MEM.nop, HasInstruction: e.cur.MEM.hasIns,
			ALUResult: e.cur.MEM.aluResult, DataAddress: e.cur.MEM.dataAddress,
			StoreData: e.cur.MEM.storeData, WriteRegAddr: e.cur.MEM.writeRegAddr,
			RS1: e.cur.MEM.rs1, RS2: e.cur.MEM.rs2,
			ReadMem: e.cur.MEM.readMem, WriteMem: e.cur.MEM.writeMem,
			WriteBackEnable: e.cur.MEM.writeBackEnable,
		},
		WB: latch.WB{
			Nop: e.cur.WB.nop, HasInstruction: e.cur.WB.hasIns,
			StoreData: e.cur.WB.storeData, WriteRegAddr: e.cur.WB.writeRegAddr,
			RS1: e.cur.WB.rs1, RS2: e.cur.WB.rs2,
			WriteBackEnable: e.cur.WB.writeBackEnable,
		},
	}
}
