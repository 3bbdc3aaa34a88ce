// Package inst models the DCPU-16 instruction word: the basic and special
// opcode tables, the operand addressing forms, and the encoder/decoder that
// turns a resolved Instruction into 1-3 words and back. It is the shared
// vocabulary between the linker (which must encode the shortest admissible
// form of each instruction) and the CPU (which must decode exactly what the
// linker emitted).
//
// The opcode tables and bit layout mirror the DCPU-16 1.7 encoding already
// present in markcol-dcpu16's dcpu16.go, factored out into its own package
// so the CPU, linker, and disassembler all share one decoder.
package inst

import "fmt"

// Opcode is a basic (non-special) DCPU-16 opcode, the low 5 bits of the
// leading instruction word.
type Opcode uint16

// Basic opcodes, per the 1.7 specification.
const (
	EXT Opcode = iota // pseudo-opcode: selects the special-opcode table
	SET
	ADD
	SUB
	MUL
	MLI
	DIV
	DVI
	MOD
	MDI
	AND
	BOR
	XOR
	SHR
	ASR
	SHL
	IFB
	IFC
	IFE
	IFN
	IFG
	IFA
	IFL
	IFU
	_
	_
	ADX
	SBX
	_
	_
	STI
	STD
)

// Special is a special-opcode, the next 5 bits of the leading word when the
// basic opcode field is EXT.
type Special uint16

// Special opcodes, per the 1.7 specification.
const (
	_ Special = iota
	JSR
	_
	_
	_
	_
	_
	_
	INT
	IAG
	IAS
	RFI
	IAQ
	_
	_
	_
	HWN
	HWQ
	HWI
)

// IsBranch reports whether op is one of the IFx conditional family, which
// chain skips per spec.md 4.3/4.2.
func (op Opcode) IsBranch() bool {
	return op >= IFB && op <= IFU
}

// baseCost is the cycle cost of each basic opcode beyond the 1 cycle
// already charged per fetched word (opcode word and any next-word
// operands). Opcodes absent from the map cost 0 extra.
var baseCost = map[Opcode]int{
	ADD: 1, SUB: 1, MUL: 1, MLI: 1,
	DIV: 2, DVI: 2, MOD: 2, MDI: 2,
	IFB: 1, IFC: 1, IFE: 1, IFN: 1, IFG: 1, IFA: 1, IFL: 1, IFU: 1,
	ADX: 2, SBX: 2,
	STI: 1, STD: 1,
}

var specialBaseCost = map[Special]int{
	JSR: 2, INT: 3, RFI: 2, IAQ: 1, HWN: 1, HWQ: 3, HWI: 3,
}

// BaseCost returns the cycle cost of a basic opcode beyond the per-word
// fetch cost already counted by decoding.
func BaseCost(op Opcode) int { return baseCost[op] }

// SpecialBaseCost returns the cycle cost of a special opcode beyond the
// per-word fetch cost.
func SpecialBaseCost(op Special) int { return specialBaseCost[op] }

// OperandKind tags the addressing form of an operand.
type OperandKind int

const (
	KindRegister           OperandKind = iota // A, B, C, X, Y, Z, I, J
	KindRegisterIndirect                      // [register]
	KindRegisterIndirectNW                    // [register + next word]
	KindPush                                  // PUSH (b slot only)
	KindPop                                   // POP (a slot only)
	KindPeek                                  // [SP]
	KindPick                                  // [SP + next word]
	KindSP
	KindPC
	KindEX
	KindIndirectNW   // [next word]
	KindImmediateNW  // next word (literal)
	KindShortLiteral // -1..30, a slot only
)

// Operand is a resolved operand: its addressing kind plus whatever extra
// data that kind needs (register number or a 16-bit value).
type Operand struct {
	Kind  OperandKind
	Reg   int    // valid for KindRegister, KindRegisterIndirect, KindRegisterIndirectNW
	Value uint16 // valid for KindRegisterIndirectNW (offset), KindPick (offset),
	// KindIndirectNW (address), KindImmediateNW (literal), KindShortLiteral (literal)
}

// Register returns the direct-register operand for reg (0=A..7=J).
func Register(reg int) Operand { return Operand{Kind: KindRegister, Reg: reg} }

// Immediate returns the next-word immediate literal operand for v.
func Immediate(v uint16) Operand { return Operand{Kind: KindImmediateNW, Value: v} }

// ShortLiteral returns the short-literal operand for v, valid only when v is
// 0xffff (-1) or in 0..30. Callers must check FitsShortLiteral before using
// this form.
func ShortLiteral(v uint16) Operand { return Operand{Kind: KindShortLiteral, Value: v} }

// Indirect returns the [address] operand.
func Indirect(addr uint16) Operand { return Operand{Kind: KindIndirectNW, Value: addr} }

// FitsShortLiteral reports whether v is representable as a short literal
// (-1..30), the policy the linker uses to pick the shortest admissible
// encoding (spec.md 4.1).
func FitsShortLiteral(v uint16) bool {
	return v == 0xffff || v <= 30
}

// Instruction is a fully resolved instruction ready for encoding, or one
// freshly decoded from memory.
type Instruction struct {
	Special     bool
	Op          Opcode
	SpecialOp   Special
	A           Operand
	B           Operand // unused when Special is true
}

// decodeField maps a 6-bit (a slot) or 5-bit (b slot, always < 0x20) field
// value to an operand descriptor. consumesNextWord reports whether the
// caller must read one more trailing word to complete the operand (and
// store it in op.Value); only a short-literal field carries its value in
// op.Value directly.
func decodeField(field uint16, isASlot bool) (op Operand, consumesNextWord bool) {
	switch {
	case field <= 0x07:
		return Operand{Kind: KindRegister, Reg: int(field)}, false
	case field <= 0x0f:
		return Operand{Kind: KindRegisterIndirect, Reg: int(field - 0x08)}, false
	case field <= 0x17:
		return Operand{Kind: KindRegisterIndirectNW, Reg: int(field - 0x10)}, true
	case field == 0x18:
		if isASlot {
			return Operand{Kind: KindPop}, false
		}
		return Operand{Kind: KindPush}, false
	case field == 0x19:
		return Operand{Kind: KindPeek}, false
	case field == 0x1a:
		return Operand{Kind: KindPick}, true
	case field == 0x1b:
		return Operand{Kind: KindSP}, false
	case field == 0x1c:
		return Operand{Kind: KindPC}, false
	case field == 0x1d:
		return Operand{Kind: KindEX}, false
	case field == 0x1e:
		return Operand{Kind: KindIndirectNW}, true
	case field == 0x1f:
		return Operand{Kind: KindImmediateNW}, true
	default: // 0x20-0x3f, a-slot only short literal -1..30
		return Operand{Kind: KindShortLiteral, Value: field - 0x21}, false
	}
}

// encodeField is the inverse of decodeField: it returns the field bits for
// o and, if it consumes one, the next-word value to append.
func encodeField(o Operand, isASlot bool) (field uint16, nextWord uint16, hasNextWord bool, err error) {
	switch o.Kind {
	case KindRegister:
		return uint16(o.Reg), 0, false, nil
	case KindRegisterIndirect:
		return uint16(o.Reg) + 0x08, 0, false, nil
	case KindRegisterIndirectNW:
		return uint16(o.Reg) + 0x10, o.Value, true, nil
	case KindPush:
		if isASlot {
			return 0, 0, false, fmt.Errorf("inst: PUSH is only valid in the b operand slot")
		}
		return 0x18, 0, false, nil
	case KindPop:
		if !isASlot {
			return 0, 0, false, fmt.Errorf("inst: POP is only valid in the a operand slot")
		}
		return 0x18, 0, false, nil
	case KindPeek:
		return 0x19, 0, false, nil
	case KindPick:
		return 0x1a, o.Value, true, nil
	case KindSP:
		return 0x1b, 0, false, nil
	case KindPC:
		return 0x1c, 0, false, nil
	case KindEX:
		return 0x1d, 0, false, nil
	case KindIndirectNW:
		return 0x1e, o.Value, true, nil
	case KindImmediateNW:
		return 0x1f, o.Value, true, nil
	case KindShortLiteral:
		if !isASlot {
			return 0, 0, false, fmt.Errorf("inst: short literals are only valid in the a operand slot")
		}
		if !FitsShortLiteral(o.Value) {
			return 0, 0, false, fmt.Errorf("inst: value 0x%04x does not fit a short literal", o.Value)
		}
		return o.Value + 0x21, 0, false, nil
	}
	return 0, 0, false, fmt.Errorf("inst: unknown operand kind %d", o.Kind)
}

// Decode reads one instruction from the front of words, which must hold the
// leading word plus as many trailing words as the instruction needs (at
// most two). It returns the decoded instruction and the number of words
// consumed (1-3).
func Decode(words []uint16) (Instruction, int, error) {
	if len(words) == 0 {
		return Instruction{}, 0, fmt.Errorf("inst: no words to decode")
	}
	word := words[0]
	opField := word & 0x1f
	bField := (word >> 5) & 0x1f
	aField := (word >> 10) & 0x3f

	consumed := 1
	next := func() (uint16, error) {
		if consumed >= len(words) {
			return 0, fmt.Errorf("inst: truncated instruction, expected a trailing word")
		}
		v := words[consumed]
		consumed++
		return v, nil
	}

	if opField == uint16(EXT) {
		a, aNeedsNW := decodeField(aField, true)
		if aNeedsNW {
			v, err := next()
			if err != nil {
				return Instruction{}, 0, err
			}
			a.Value = v
		}
		return Instruction{Special: true, SpecialOp: Special(bField), A: a}, consumed, nil
	}

	a, aNeedsNW := decodeField(aField, true)
	if aNeedsNW {
		v, err := next()
		if err != nil {
			return Instruction{}, 0, err
		}
		a.Value = v
	}
	b, bNeedsNW := decodeField(bField, false)
	if bNeedsNW {
		v, err := next()
		if err != nil {
			return Instruction{}, 0, err
		}
		b.Value = v
	}
	return Instruction{Op: Opcode(opField), A: a, B: b}, consumed, nil
}

// Encode writes ins as 1-3 words and returns them (the word count is the
// slice's length), or an error if an operand is not encodable in its slot.
func Encode(ins Instruction) ([]uint16, error) {
	if ins.Special {
		aField, aNW, aHas, err := encodeField(ins.A, true)
		if err != nil {
			return nil, err
		}
		word := (aField << 10) | (uint16(ins.SpecialOp) << 5) | uint16(EXT)
		out := []uint16{word}
		if aHas {
			out = append(out, aNW)
		}
		return out, nil
	}

	aField, aNW, aHas, err := encodeField(ins.A, true)
	if err != nil {
		return nil, err
	}
	bField, bNW, bHas, err := encodeField(ins.B, false)
	if err != nil {
		return nil, err
	}
	word := (aField << 10) | (bField << 5) | uint16(ins.Op)
	out := make([]uint16, 0, 3)
	out = append(out, word)
	if aHas {
		out = append(out, aNW)
	}
	if bHas {
		out = append(out, bNW)
	}
	return out, nil
}

// Words returns the word count Encode would produce for ins, without
// actually encoding it.
func Words(ins Instruction) int {
	n := 1
	if operandHasNextWord(ins.A) {
		n++
	}
	if !ins.Special && operandHasNextWord(ins.B) {
		n++
	}
	return n
}

func operandHasNextWord(o Operand) bool {
	switch o.Kind {
	case KindRegisterIndirectNW, KindPick, KindIndirectNW, KindImmediateNW:
		return true
	default:
		return false
	}
}
