package latch

import (
	"strings"
	"testing"

	"github.com/DemianMArin/rv32pipe/pkg/isa"
)

func TestIFBodyFieldOrder(t *testing.T) {
	l := IF{Nop: false, PC: 4}
	got := l.body()
	want := "IF.nop: False\nIF.PC: 4\n"
	if got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestIDBodyEmptyInstr(t *testing.T) {
	l := ID{Nop: true, InstructionBits: ""}
	got := l.body()
	want := "ID.nop: True\nID.Instr: \n"
	if got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestEXWrtRegAddrWidthNoInstruction(t *testing.T) {
	l := EX{HasInstruction: false, DestinationReg: 3}
	if w := l.wrtRegAddrWidth(); w != 5 {
		t.Errorf("width = %d, want 5", w)
	}
}

func TestEXWrtRegAddrWidthLiveWriteback(t *testing.T) {
	l := EX{HasInstruction: true, Nop: false, WriteBackEnable: true, DestinationReg: 3}
	if w := l.wrtRegAddrWidth(); w != 5 {
		t.Errorf("width = %d, want 5", w)
	}
}

func TestEXWrtRegAddrWidthNoWriteback(t *testing.T) {
	l := EX{HasInstruction: true, Nop: false, WriteBackEnable: false, DestinationReg: 0}
	if w := l.wrtRegAddrWidth(); w != 6 {
		t.Errorf("width = %d, want 6", w)
	}
}

func TestEXImmWidthByOpcode(t *testing.T) {
	l := EX{Opcode: isa.OpcodeB}
	if l.ImmWidth() != 13 {
		t.Errorf("ImmWidth = %d, want 13", l.ImmWidth())
	}
	l.Opcode = isa.OpcodeJ
	if l.ImmWidth() != 21 {
		t.Errorf("ImmWidth = %d, want 21", l.ImmWidth())
	}
	l.Opcode = isa.OpcodeIImm
	if l.ImmWidth() != 12 {
		t.Errorf("ImmWidth = %d, want 12", l.ImmWidth())
	}
}

func TestBitsNegativeTwosComplement(t *testing.T) {
	neg := int32(-1)
	got := bits(uint32(neg), 32)
	want := strings.Repeat("1", 32)
	if got != want {
		t.Errorf("bits(-1,32) = %q, want %q", got, want)
	}
}

func TestRenderPipelineStateLayout(t *testing.T) {
	var sb strings.Builder
	s := Snapshot{
		IF:  IF{PC: 0},
		ID:  ID{Nop: true},
		EX:  EX{Nop: true},
		MEM: MEM{Nop: true},
		WB:  WB{Nop: true},
	}
	if err := RenderPipelineState(&sb, 1, s); err != nil {
		t.Fatalf("RenderPipelineState: %v", err)
	}
	out := sb.String()
	if !strings.HasPrefix(out, banner) {
		t.Errorf("missing banner prefix")
	}
	if !strings.Contains(out, "State after executing cycle: 1\n") {
		t.Errorf("missing cycle header")
	}
	if !strings.Contains(out, "WB.wrt_enable: 0\n") {
		t.Errorf("missing WB tail field")
	}
}
