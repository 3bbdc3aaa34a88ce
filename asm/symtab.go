package asm

// LabelInfo is one global label's resolved state: its address plus the
// addresses of any local labels scoped under it.
type LabelInfo struct {
	Addr   uint16
	Locals map[string]uint16
}

// Globals is the two-level symbol table the linker produces: global label
// name to its address and nested local-label addresses. Two different
// globals may declare local labels with the same name; each global's
// Locals map is independent.
type Globals map[string]*LabelInfo
