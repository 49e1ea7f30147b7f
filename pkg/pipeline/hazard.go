package pipeline

import "github.com/DemianMArin/rv32pipe/pkg/isa"

// checkLoadUseStall reports whether ins, newly decoded in ID this
// cycle, depends on a load currently sitting in EX (cur.EX, i.e. the
// instruction EX held at the start of this cycle) whose result will
// not be ready until next cycle.
func (e *Engine) checkLoadUseStall(ins isa.Instruction) bool {
	x := e.cur.EX
	if !x.hasIns || x.nop || !x.readMem || x.destReg == 0 {
		return false
	}
	consumesRS1 := ins.Format != isa.FormatJ
	consumesRS2 := ins.Format == isa.FormatR || ins.Format == isa.FormatS || ins.Format == isa.FormatB
	return (consumesRS1 && x.destReg == ins.RS1) || (consumesRS2 && x.destReg == ins.RS2)
}

// forward resolves the architectural value of register reg as seen by
// ID this cycle, applying the three-source forwarding priority from
// lowest to highest so a later check overwrites an earlier one:
// EX-ALU (source: next.MEM.storeData, just computed this cycle),
// then MEM-ALU, then MEM-load (both sourced from next.WB.storeData,
// just computed this cycle). Register 0 never matches.
func (e *Engine) forward(reg uint32) uint32 {
	value := e.Regs.Read(reg)
	if reg == 0 {
		return value
	}

	ex := e.cur.EX
	if ex.hasIns && !ex.nop && !ex.readMem && !ex.writeMem && ex.writeBackEnable && ex.destReg == reg {
		value = e.next.MEM.storeData
	}

	mem := e.cur.MEM
	if mem.hasIns && !mem.nop && !mem.readMem && mem.writeBackEnable && mem.writeRegAddr == reg {
		value = e.next.WB.storeData
	}
	if mem.hasIns && !mem.nop && mem.readMem && mem.writeBackEnable && mem.writeRegAddr == reg {
		value = e.next.WB.storeData
	}

	return value
}
