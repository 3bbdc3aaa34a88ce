// Package disasm renders decoded instructions back into assembly text. It
// is a thin pretty-printer over the inst package's decoder, not the core;
// the streaming "read words, print a line, advance" shape is carried over
// from markcol-dcpu16's disasm/disasm.go, rewired against the 1.7 decode
// table instead of that file's 1.1-era opcode map.
package disasm

import (
	"fmt"
	"strings"

	"github.com/coredump16/dcpu16/inst"
)

var registerNames = [8]string{"A", "B", "C", "X", "Y", "Z", "I", "J"}

var opcodeNames = map[inst.Opcode]string{
	inst.SET: "SET", inst.ADD: "ADD", inst.SUB: "SUB", inst.MUL: "MUL",
	inst.MLI: "MLI", inst.DIV: "DIV", inst.DVI: "DVI", inst.MOD: "MOD",
	inst.MDI: "MDI", inst.AND: "AND", inst.BOR: "BOR", inst.XOR: "XOR",
	inst.SHR: "SHR", inst.ASR: "ASR", inst.SHL: "SHL",
	inst.IFB: "IFB", inst.IFC: "IFC", inst.IFE: "IFE", inst.IFN: "IFN",
	inst.IFG: "IFG", inst.IFA: "IFA", inst.IFL: "IFL", inst.IFU: "IFU",
	inst.ADX: "ADX", inst.SBX: "SBX", inst.STI: "STI", inst.STD: "STD",
}

var specialNames = map[inst.Special]string{
	inst.JSR: "JSR", inst.INT: "INT", inst.IAG: "IAG", inst.IAS: "IAS",
	inst.RFI: "RFI", inst.IAQ: "IAQ", inst.HWN: "HWN", inst.HWQ: "HWQ",
	inst.HWI: "HWI",
}

// Line is one disassembled instruction: its address and rendered text.
type Line struct {
	Addr uint16
	Text string
}

// Disassemble decodes n instructions starting at addr, reading words via
// read (typically ram.RAM.Word), and returns one Line per instruction.
// Decoding stops early, without error, if a trailing word would run past
// the end of the window the reader can supply.
func Disassemble(read func(addr uint16) uint16, addr uint16, n int) []Line {
	lines := make([]Line, 0, n)
	for i := 0; i < n; i++ {
		window := [3]uint16{read(addr), read(addr + 1), read(addr + 2)}
		ins, consumed, err := inst.Decode(window[:])
		if err != nil {
			break
		}
		lines = append(lines, Line{Addr: addr, Text: format(ins)})
		addr += uint16(consumed)
	}
	return lines
}

func format(ins inst.Instruction) string {
	if ins.Special {
		name, ok := specialNames[ins.SpecialOp]
		if !ok {
			return "BRK"
		}
		return fmt.Sprintf("%s %s", name, operand(ins.A))
	}
	name, ok := opcodeNames[ins.Op]
	if !ok {
		return fmt.Sprintf("DAT 0x%04x", uint16(ins.Op))
	}
	return fmt.Sprintf("%s %s, %s", name, operand(ins.B), operand(ins.A))
}

func operand(o inst.Operand) string {
	switch o.Kind {
	case inst.KindRegister:
		return registerNames[o.Reg]
	case inst.KindRegisterIndirect:
		return fmt.Sprintf("[%s]", registerNames[o.Reg])
	case inst.KindRegisterIndirectNW:
		return fmt.Sprintf("[%s+0x%x]", registerNames[o.Reg], o.Value)
	case inst.KindPush:
		return "PUSH"
	case inst.KindPop:
		return "POP"
	case inst.KindPeek:
		return "PEEK"
	case inst.KindPick:
		return fmt.Sprintf("PICK 0x%x", o.Value)
	case inst.KindSP:
		return "SP"
	case inst.KindPC:
		return "PC"
	case inst.KindEX:
		return "EX"
	case inst.KindIndirectNW:
		return fmt.Sprintf("[0x%x]", o.Value)
	case inst.KindImmediateNW:
		return fmt.Sprintf("0x%x", o.Value)
	case inst.KindShortLiteral:
		return fmt.Sprintf("0x%x", o.Value)
	default:
		return "?"
	}
}

// String joins lines into one text block, one instruction per line,
// addresses shown in hex.
func String(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "0x%04x: %s\n", l.Addr, l.Text)
	}
	return b.String()
}
