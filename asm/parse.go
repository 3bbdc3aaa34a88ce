package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coredump16/dcpu16/inst"
)

var registerIndex = map[string]int{
	"A": 0, "B": 1, "C": 2, "X": 3, "Y": 4, "Z": 5, "I": 6, "J": 7,
}

var basicMnemonics = map[string]inst.Opcode{
	"SET": inst.SET, "ADD": inst.ADD, "SUB": inst.SUB, "MUL": inst.MUL,
	"MLI": inst.MLI, "DIV": inst.DIV, "DVI": inst.DVI, "MOD": inst.MOD,
	"MDI": inst.MDI, "AND": inst.AND, "BOR": inst.BOR, "XOR": inst.XOR,
	"SHR": inst.SHR, "ASR": inst.ASR, "SHL": inst.SHL,
	"IFB": inst.IFB, "IFC": inst.IFC, "IFE": inst.IFE, "IFN": inst.IFN,
	"IFG": inst.IFG, "IFA": inst.IFA, "IFL": inst.IFL, "IFU": inst.IFU,
	"ADX": inst.ADX, "SBX": inst.SBX, "STI": inst.STI, "STD": inst.STD,
}

var specialMnemonics = map[string]inst.Special{
	"JSR": inst.JSR, "INT": inst.INT, "IAG": inst.IAG, "IAS": inst.IAS,
	"RFI": inst.RFI, "IAQ": inst.IAQ, "HWN": inst.HWN, "HWQ": inst.HWQ,
	"HWI": inst.HWI,
}

// Parse scans DCPU-16 assembly source text into a sequence of Items, one
// statement per line, following the grammar of spec.md 6: ';' comments to
// end of line, ':name'/'name:' labels (optionally sharing a line with the
// statement that follows them; a name starting with '.', as in ':.loop' or
// '.loop:', declares a local label), directives, and mnemonic-plus-operands
// instructions. A bare '.name' with no label colon is parsed as a directive.
func Parse(src string) ([]Item, error) {
	var items []Item
	for lineNo, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		parsed, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("asm: line %d: %w", lineNo+1, err)
		}
		items = append(items, parsed...)
	}
	return items, nil
}

func parseLine(line string) ([]Item, error) {
	var out []Item
	for {
		line = strings.TrimSpace(line)
		if line == "" {
			return out, nil
		}
		if strings.HasPrefix(line, ":") {
			name, rest := splitFirstToken(line[1:])
			out = append(out, labelItem(name))
			line = rest
			continue
		}
		if name, rest, ok := leadingLabelColon(line); ok {
			out = append(out, labelItem(name))
			line = rest
			continue
		}
		break
	}
	if line == "" {
		return out, nil
	}
	if strings.HasPrefix(line, ".") {
		d, err := parseDirective(line)
		if err != nil {
			return nil, err
		}
		return append(out, d), nil
	}
	ins, err := parseInstruction(line)
	if err != nil {
		return nil, err
	}
	return append(out, ins), nil
}

func labelItem(name string) Item {
	if strings.HasPrefix(name, ".") {
		return LocalLabelDecl{Name: name[1:]}
	}
	return LabelDecl{Name: name}
}

// leadingLabelColon detects a 'name:' token at the start of line (the
// alternate label syntax), distinct from any ':' that might appear deeper
// in an operand, since only the first whitespace-delimited token is ever
// checked.
func leadingLabelColon(line string) (name, rest string, ok bool) {
	tok, after := splitFirstToken(line)
	if len(tok) > 1 && strings.HasSuffix(tok, ":") {
		return tok[:len(tok)-1], after, true
	}
	return "", "", false
}

func parseDirective(line string) (Item, error) {
	mnemonic, rest := splitFirstToken(line)
	switch strings.ToLower(mnemonic) {
	case ".word":
		exprs, err := parseExprList(rest)
		if err != nil {
			return nil, err
		}
		return Directive{Kind: DWord, Words: exprs}, nil
	case ".byte":
		exprs, err := parseExprList(rest)
		if err != nil {
			return nil, err
		}
		return Directive{Kind: DByte, Words: exprs}, nil
	case ".ascii":
		text, err := parseQuotedString(rest)
		if err != nil {
			return nil, err
		}
		return Directive{Kind: DAscii, Text: text}, nil
	case ".asciiz":
		text, err := parseQuotedString(rest)
		if err != nil {
			return nil, err
		}
		return Directive{Kind: DAsciiz, Text: text}, nil
	case ".align":
		n, ok := parseNumber(strings.TrimSpace(rest))
		if !ok {
			return nil, fmt.Errorf("asm: .align expects a numeric argument, got %q", rest)
		}
		return Directive{Kind: DAlign, Align: n}, nil
	case ".lcomm":
		parts := splitOperands(rest)
		if len(parts) != 2 {
			return nil, fmt.Errorf("asm: .lcomm expects name,size, got %q", rest)
		}
		size, ok := parseNumber(parts[1])
		if !ok {
			return nil, fmt.Errorf("asm: .lcomm size must be numeric, got %q", parts[1])
		}
		return Directive{Kind: DLcomm, Name: parts[0], Size: size}, nil
	default:
		return nil, fmt.Errorf("asm: unknown directive %q", mnemonic)
	}
}

func parseExprList(rest string) ([]Expr, error) {
	parts := splitOperands(rest)
	exprs := make([]Expr, 0, len(parts))
	for _, p := range parts {
		e, err := parseExpr(p)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func parseInstruction(line string) (Item, error) {
	mnemonic, rest := splitFirstToken(line)
	upper := strings.ToUpper(mnemonic)

	if upper == "BRK" {
		return Instruction{Special: true, SpecialOp: 0, A: Operand{Kind: OValue, Expr: Const(0)}}, nil
	}
	if special, ok := specialMnemonics[upper]; ok {
		a, err := parseOperand(rest)
		if err != nil {
			return nil, err
		}
		return Instruction{Special: true, SpecialOp: special, A: a}, nil
	}
	op, ok := basicMnemonics[upper]
	if !ok {
		return nil, fmt.Errorf("asm: unknown mnemonic %q", mnemonic)
	}
	parts := splitOperands(rest)
	if len(parts) != 2 {
		return nil, fmt.Errorf("asm: %s expects 2 operands, got %q", mnemonic, rest)
	}
	b, err := parseOperand(parts[0])
	if err != nil {
		return nil, err
	}
	a, err := parseOperand(parts[1])
	if err != nil {
		return nil, err
	}
	return Instruction{Op: op, A: a, B: b}, nil
}

func parseOperand(raw string) (Operand, error) {
	s := strings.TrimSpace(raw)
	upper := strings.ToUpper(s)
	switch upper {
	case "PUSH":
		return Operand{Kind: OPush}, nil
	case "POP":
		return Operand{Kind: OPop}, nil
	case "PEEK":
		return Operand{Kind: OPeek}, nil
	case "SP":
		return Operand{Kind: OSP}, nil
	case "PC":
		return Operand{Kind: OPC}, nil
	case "EX":
		return Operand{Kind: OEX}, nil
	}
	if reg, ok := registerIndex[upper]; ok {
		return Operand{Kind: OReg, Reg: reg}, nil
	}
	if strings.HasPrefix(upper, "PICK") {
		e, err := parseExpr(strings.TrimSpace(s[len("PICK"):]))
		if err != nil {
			return Operand{}, err
		}
		return Operand{Kind: OPick, Expr: e}, nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return parseIndirectOperand(s[1 : len(s)-1])
	}
	e, err := parseExpr(s)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Kind: OValue, Expr: e}, nil
}

func parseIndirectOperand(inner string) (Operand, error) {
	inner = strings.TrimSpace(inner)
	reg, rest, ok := splitRegisterPrefix(inner)
	if !ok {
		// try the "[expr+REG]" order, since either operand may come first
		if reg, exprPart, ok := splitRegisterSuffix(inner); ok {
			e, err := parseExpr(strings.TrimSpace(exprPart))
			if err != nil {
				return Operand{}, err
			}
			return Operand{Kind: ORegIndirectNW, Reg: reg, Expr: e}, nil
		}
		e, err := parseExpr(inner)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Kind: OIndirect, Expr: e}, nil
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Operand{Kind: ORegIndirect, Reg: reg}, nil
	}
	negate := false
	switch rest[0] {
	case '+':
		rest = rest[1:]
	case '-':
		negate = true
		rest = rest[1:]
	default:
		return Operand{}, fmt.Errorf("asm: malformed register-offset operand %q", inner)
	}
	e, err := parseExpr(strings.TrimSpace(rest))
	if err != nil {
		return Operand{}, err
	}
	if negate {
		if e.Kind != EConst {
			return Operand{}, fmt.Errorf("asm: negative register offset must be a literal, got %q", rest)
		}
		e = Const(uint16(-int32(e.Value)))
	}
	return Operand{Kind: ORegIndirectNW, Reg: reg, Expr: e}, nil
}

// splitRegisterPrefix reports whether inner begins with a bare register
// name immediately followed by end-of-string, '+', or '-'.
func splitRegisterPrefix(inner string) (reg int, rest string, ok bool) {
	for name, idx := range registerIndex {
		if !strings.HasPrefix(strings.ToUpper(inner), name) {
			continue
		}
		after := inner[len(name):]
		if after == "" || after[0] == '+' || after[0] == '-' {
			return idx, after, true
		}
	}
	return 0, "", false
}

// splitRegisterSuffix reports whether inner ends with "+REG" for a bare
// register name, the "[expr+REG]" operand order.
func splitRegisterSuffix(inner string) (reg int, exprPart string, ok bool) {
	upper := strings.ToUpper(inner)
	for name, idx := range registerIndex {
		suffix := "+" + name
		if strings.HasSuffix(upper, suffix) {
			return idx, inner[:len(inner)-len(suffix)], true
		}
	}
	return 0, "", false
}

func parseExpr(s string) (Expr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Expr{}, fmt.Errorf("asm: empty expression")
	}
	if strings.HasPrefix(s, ".") {
		return LocalLabelRef(s[1:]), nil
	}
	if n, ok := parseNumber(s); ok {
		return Const(n), nil
	}
	return LabelRef(s), nil
}

func parseNumber(s string) (uint16, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var v uint64
	var err error
	switch {
	case strings.HasPrefix(strings.ToLower(s), "0x"):
		v, err = strconv.ParseUint(s[2:], 16, 32)
	case isAllDigits(s):
		v, err = strconv.ParseUint(s, 10, 32)
	default:
		return 0, false
	}
	if err != nil {
		return 0, false
	}
	if neg {
		return uint16(-int32(v)), true
	}
	return uint16(v), true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitFirstToken splits s on its first run of whitespace, returning the
// leading token and whatever follows.
func splitFirstToken(s string) (tok, rest string) {
	s = strings.TrimLeft(s, " \t")
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

// splitOperands splits s on top-level commas, ignoring commas nested
// inside '[...]' so "[A+1]" is never mistaken for two operands.
func splitOperands(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		out = append(out, last)
	}
	return out
}

func stripComment(s string) string {
	inQuote := false
	for i, r := range s {
		if r == '"' {
			inQuote = !inQuote
		}
		if r == ';' && !inQuote {
			return s[:i]
		}
	}
	return s
}

func parseQuotedString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' {
		return "", fmt.Errorf("asm: expected a quoted string, got %q", s)
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			return b.String(), nil
		case '\\':
			if i+1 >= len(s) {
				return "", fmt.Errorf("asm: unterminated escape in %q", s)
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", fmt.Errorf("asm: unterminated string %q", s)
}
