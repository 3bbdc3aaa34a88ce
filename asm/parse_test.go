package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredump16/dcpu16/cpu"
	"github.com/coredump16/dcpu16/inst"
)

func TestParseSimpleInstruction(t *testing.T) {
	items, err := Parse("SET A, 0x30\n")
	require.NoError(t, err)
	require.Len(t, items, 1)
	ins := items[0].(Instruction)
	assert.Equal(t, inst.SET, ins.Op)
	assert.Equal(t, Operand{Kind: OReg, Reg: cpu.A}, ins.B)
	assert.Equal(t, Operand{Kind: OValue, Expr: Const(0x30)}, ins.A)
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	items, err := Parse("; a comment\n\nSET A, 1 ; trailing comment\n")
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestParseLabelFormsBothSyntaxes(t *testing.T) {
	items, err := Parse(":foo SET A, 1\nbar: SET B, 2\n")
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, LabelDecl{Name: "foo"}, items[0])
	assert.Equal(t, LabelDecl{Name: "bar"}, items[2])
}

func TestParseLocalLabel(t *testing.T) {
	items, err := Parse("foo:\n.loop: SET A, 1\n")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, LocalLabelDecl{Name: "loop"}, items[1])
}

func TestParseRegisterIndirectAndOffset(t *testing.T) {
	items, err := Parse("SET [A], B\nSET [X+4], Y\n")
	require.NoError(t, err)
	require.Len(t, items, 2)
	i0 := items[0].(Instruction)
	assert.Equal(t, Operand{Kind: ORegIndirect, Reg: cpu.A}, i0.B)
	i1 := items[1].(Instruction)
	assert.Equal(t, Operand{Kind: ORegIndirectNW, Reg: cpu.X, Expr: Const(4)}, i1.B)
}

func TestParseIndirectLiteral(t *testing.T) {
	items, err := Parse("SET [0x1000], 0x20\n")
	require.NoError(t, err)
	ins := items[0].(Instruction)
	assert.Equal(t, Operand{Kind: OIndirect, Expr: Const(0x1000)}, ins.B)
	assert.Equal(t, Operand{Kind: OValue, Expr: Const(0x20)}, ins.A)
}

func TestParsePushPopPeekPick(t *testing.T) {
	items, err := Parse("SET PUSH, A\nSET B, POP\nSET C, PEEK\nSET X, PICK 2\n")
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, Operand{Kind: OPush}, items[0].(Instruction).B)
	assert.Equal(t, Operand{Kind: OPop}, items[1].(Instruction).A)
	assert.Equal(t, Operand{Kind: OPeek}, items[2].(Instruction).A)
	assert.Equal(t, Operand{Kind: OPick, Expr: Const(2)}, items[3].(Instruction).A)
}

func TestParseSpecialInstruction(t *testing.T) {
	items, err := Parse("JSR testsub\n")
	require.NoError(t, err)
	ins := items[0].(Instruction)
	assert.True(t, ins.Special)
	assert.Equal(t, inst.JSR, ins.SpecialOp)
	assert.Equal(t, Operand{Kind: OValue, Expr: LabelRef("testsub")}, ins.A)
}

func TestParseLcommDirective(t *testing.T) {
	items, err := Parse(".lcomm buf, 4\n")
	require.NoError(t, err)
	d := items[0].(Directive)
	assert.Equal(t, DLcomm, d.Kind)
	assert.Equal(t, "buf", d.Name)
	assert.Equal(t, uint16(4), d.Size)
}

func TestParseWordAndByteDirectives(t *testing.T) {
	items, err := Parse(".word 1, 2, 0x10\n.byte 1, 2, 3\n")
	require.NoError(t, err)
	w := items[0].(Directive)
	assert.Equal(t, DWord, w.Kind)
	assert.Equal(t, []Expr{Const(1), Const(2), Const(0x10)}, w.Words)
	b := items[1].(Directive)
	assert.Equal(t, DByte, b.Kind)
	assert.Len(t, b.Words, 3)
}

func TestParseAsciizDirective(t *testing.T) {
	items, err := Parse(`.asciiz "hi"` + "\n")
	require.NoError(t, err)
	d := items[0].(Directive)
	assert.Equal(t, DAsciiz, d.Kind)
	assert.Equal(t, "hi", d.Text)
}

func TestParseUnknownMnemonicErrors(t *testing.T) {
	_, err := Parse("NOPE A, B\n")
	assert.Error(t, err)
}

// TestParseAndLinkFullProgram exercises the parser and linker together on
// a program shaped like markcol-dcpu16's asm/asm_test.go fixture (a SET/
// SUB/IFN preamble, a decrementing loop, and a subroutine call), adapted to
// valid 1.7 syntax instead of reusing that file's stale 1.1-encoded hex.
func TestParseAndLinkFullProgram(t *testing.T) {
	src := `
; preamble
SET A, 0x30
SET [0x1000], 0x20
SUB A, [0x1000]
IFN A, 0x10
SET PC, crash

; loop
SET I, 10
SET A, 0x2000
:loop SET [0x2000+I], [A]
SUB I, 1
IFN I, 0
SET PC, loop

; subroutine call
SET X, 0x4
JSR testsub
SET PC, crash

:testsub SHL X, 4
SET PC, POP

:crash SET PC, crash
`
	items, err := Parse(src)
	require.NoError(t, err)

	image, globals, err := Link(items)
	require.NoError(t, err)
	require.NotEmpty(t, image)
	assert.Contains(t, globals, "loop")
	assert.Contains(t, globals, "testsub")
	assert.Contains(t, globals, "crash")

	c := cpu.New()
	c.Load(0, image)
	// run enough steps to fall into the final crash loop, then confirm X
	// reflects SHL X,4 having executed via the subroutine call.
	for i := 0; i < 200 && c.State() == cpu.Running; i++ {
		require.NoError(t, c.Step())
	}
	assert.Equal(t, uint16(0x40), c.Reg[cpu.X])
}
