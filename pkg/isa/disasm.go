package isa

import "fmt"

// Disassemble renders a decoded instruction as a short mnemonic line,
// grounded on the teacher's vm.Disassemble. Display only: nothing in
// the engines parses this string back.
func Disassemble(ins Instruction) string {
	switch ins.Format {
	case FormatR:
		return fmt.Sprintf("%s x%d, x%d, x%d", ins.Mnemonic, ins.RD, ins.RS1, ins.RS2)
	case FormatIImm:
		return fmt.Sprintf("%s x%d, x%d, %d", ins.Mnemonic, ins.RD, ins.RS1, ins.Imm)
	case FormatILoad:
		return fmt.Sprintf("%s x%d, %d(x%d)", ins.Mnemonic, ins.RD, ins.Imm, ins.RS1)
	case FormatS:
		return fmt.Sprintf("%s x%d, %d(x%d)", ins.Mnemonic, ins.RS2, ins.Imm, ins.RS1)
	case FormatB:
		return fmt.Sprintf("%s x%d, x%d, %d", ins.Mnemonic, ins.RS1, ins.RS2, ins.Imm)
	case FormatJ:
		return fmt.Sprintf("%s x%d, %d", ins.Mnemonic, ins.RD, ins.Imm)
	case FormatHalt:
		return "HALT"
	default:
		return fmt.Sprintf("?(%#08x)", ins.Word)
	}
}
