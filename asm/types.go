// Package asm implements the DCPU-16 linker: a two-level symbol table and
// the fixed-point layout pass that resolves span-dependent instruction
// widths, grounded directly on original_source/src/assembler/linker.rs's
// extract_labels/link functions. Also included is a minimal line-oriented
// parser (parse.go) so the assembler CLI has a text-to-image pipeline to
// drive; the parser is a non-core collaborator, not the linker itself.
package asm

import "github.com/coredump16/dcpu16/inst"

// Item is one parsed statement of assembly source: an instruction, a
// directive, or a label declaration (a single line may yield several). It is the contract between the parser and the
// linker; the linker type-switches on the concrete type it receives.
type Item interface {
	item()
}

// Instruction is an unresolved instruction: its opcode is fixed, but its
// operands may still reference labels that the linker must look up.
type Instruction struct {
	Special   bool
	Op        inst.Opcode
	SpecialOp inst.Special
	A         Operand
	B         Operand // unused when Special
}

func (Instruction) item() {}

// DirectiveKind tags the kind of data a Directive emits.
type DirectiveKind int

const (
	DWord   DirectiveKind = iota // .word v1, v2, ...
	DByte                        // .byte v1, v2, ... (packed two per word)
	DAscii                       // .ascii "..."
	DAsciiz                      // .asciiz "..." (nul-terminated)
	DAlign                       // .align n
	DLcomm                       // .lcomm name, size
)

// Directive is a data-emitting or layout directive.
type Directive struct {
	Kind  DirectiveKind
	Words []Expr // DWord, DByte
	Text  string // DAscii, DAsciiz
	Align uint16 // DAlign
	Name  string // DLcomm
	Size  uint16 // DLcomm
}

func (Directive) item() {}

// LabelDecl declares a global label at the current address.
type LabelDecl struct{ Name string }

func (LabelDecl) item() {}

// LocalLabelDecl declares a local label, scoped to the most recently
// declared global, at the current address.
type LocalLabelDecl struct{ Name string }

func (LocalLabelDecl) item() {}

// ExprKind tags what an Expr evaluates against.
type ExprKind int

const (
	EConst ExprKind = iota
	ELabel
	ELocalLabel
)

// Expr is a value not yet resolved to a word: a bare constant, a reference
// to a global label, or a reference to a local label (resolved against
// whatever global is current at the point of use).
type Expr struct {
	Kind  ExprKind
	Value uint16 // EConst
	Name  string // ELabel, ELocalLabel
}

// Const returns a literal-valued expression.
func Const(v uint16) Expr { return Expr{Kind: EConst, Value: v} }

// LabelRef returns an expression referencing the global label name.
func LabelRef(name string) Expr { return Expr{Kind: ELabel, Name: name} }

// LocalLabelRef returns an expression referencing the local label name,
// scoped to whatever global is current when it is evaluated.
func LocalLabelRef(name string) Expr { return Expr{Kind: ELocalLabel, Name: name} }

// Eval resolves e to a concrete word value against globals, using
// currentGlobal to scope local-label lookups.
func (e Expr) Eval(globals Globals, currentGlobal string) (uint16, error) {
	switch e.Kind {
	case EConst:
		return e.Value, nil
	case ELabel:
		g, ok := globals[e.Name]
		if !ok {
			return 0, unknownLabel(e.Name)
		}
		return g.Addr, nil
	case ELocalLabel:
		if currentGlobal == "" {
			return 0, localBeforeGlobal(e.Name)
		}
		g, ok := globals[currentGlobal]
		if !ok {
			return 0, unknownLocalLabel(e.Name)
		}
		addr, ok := g.Locals[e.Name]
		if !ok {
			return 0, unknownLocalLabel(e.Name)
		}
		return addr, nil
	default:
		return 0, unknownLabel(e.Name)
	}
}

// OperandKind tags the source-level addressing form of a parsed operand.
// Unlike inst.OperandKind, a value-carrying form here may still need
// resolving against the symbol table before it becomes a concrete
// inst.Operand, and the linker (not the parser) decides whether a resolved
// value fits the short-literal form.
type OperandKind int

const (
	OReg           OperandKind = iota // REG
	ORegIndirect                      // [REG]
	ORegIndirectNW                    // [REG+expr]
	OIndirect                         // [expr]
	OValue                            // expr (label or literal)
	OPush                             // PUSH
	OPop                              // POP
	OPeek                             // PEEK
	OPick                             // PICK expr
	OSP
	OPC
	OEX
)

// Operand is one parsed, not-yet-resolved operand.
type Operand struct {
	Kind OperandKind
	Reg  int  // OReg, ORegIndirect, ORegIndirectNW
	Expr Expr // ORegIndirectNW (offset), OIndirect, OValue, OPick (offset)
}

// Resolve turns o into a concrete inst.Operand, evaluating any expression
// it carries against globals/currentGlobal. isASlot controls whether an
// OValue operand may collapse to a short literal.
func (o Operand) Resolve(globals Globals, currentGlobal string, isASlot bool) (inst.Operand, error) {
	switch o.Kind {
	case OReg:
		return inst.Register(o.Reg), nil
	case ORegIndirect:
		return inst.Operand{Kind: inst.KindRegisterIndirect, Reg: o.Reg}, nil
	case ORegIndirectNW:
		v, err := o.Expr.Eval(globals, currentGlobal)
		if err != nil {
			return inst.Operand{}, err
		}
		return inst.Operand{Kind: inst.KindRegisterIndirectNW, Reg: o.Reg, Value: v}, nil
	case OIndirect:
		v, err := o.Expr.Eval(globals, currentGlobal)
		if err != nil {
			return inst.Operand{}, err
		}
		return inst.Indirect(v), nil
	case OValue:
		v, err := o.Expr.Eval(globals, currentGlobal)
		if err != nil {
			return inst.Operand{}, err
		}
		if isASlot && inst.FitsShortLiteral(v) {
			return inst.ShortLiteral(v), nil
		}
		return inst.Immediate(v), nil
	case OPush:
		return inst.Operand{Kind: inst.KindPush}, nil
	case OPop:
		return inst.Operand{Kind: inst.KindPop}, nil
	case OPeek:
		return inst.Operand{Kind: inst.KindPeek}, nil
	case OPick:
		v, err := o.Expr.Eval(globals, currentGlobal)
		if err != nil {
			return inst.Operand{}, err
		}
		return inst.Operand{Kind: inst.KindPick, Value: v}, nil
	case OSP:
		return inst.Operand{Kind: inst.KindSP}, nil
	case OPC:
		return inst.Operand{Kind: inst.KindPC}, nil
	case OEX:
		return inst.Operand{Kind: inst.KindEX}, nil
	default:
		return inst.Operand{}, unknownLabel("")
	}
}
