package asm

import (
	"errors"
	"fmt"

	"github.com/coredump16/dcpu16/inst"
)

// Sentinel linker errors, wrapped with the offending name via %w so callers
// can both errors.Is against the kind and read the name out of Error().
// This replaces the Rust reference's error_chain! macro with plain Go
// error values.
var (
	ErrUnknownLabel         = errors.New("unknown label")
	ErrUnknownLocalLabel    = errors.New("unknown local label")
	ErrDuplicatedLabel      = errors.New("duplicated label")
	ErrDuplicatedLocalLabel = errors.New("duplicated local label")
	ErrLocalBeforeGlobal    = errors.New("local label before a global")
	ErrImageTooLarge        = errors.New("image exceeds 65536 words")
)

func unknownLabel(name string) error      { return fmt.Errorf("asm: %w: %q", ErrUnknownLabel, name) }
func unknownLocalLabel(name string) error { return fmt.Errorf("asm: %w: %q", ErrUnknownLocalLabel, name) }
func duplicatedLabel(name string) error   { return fmt.Errorf("asm: %w: %q", ErrDuplicatedLabel, name) }
func duplicatedLocalLabel(name string) error {
	return fmt.Errorf("asm: %w: %q", ErrDuplicatedLocalLabel, name)
}
func localBeforeGlobal(name string) error {
	return fmt.Errorf("asm: %w: %q", ErrLocalBeforeGlobal, name)
}

// Link resolves items into a flat binary image plus the finalized symbol
// table, via the two-phase fixed point of spec.md 4.1: a declaration scan
// that populates the symbol table and rejects duplicates, followed by a
// layout loop that re-lays the whole image out each pass until an entire
// pass produces no address change. Ported from linker.rs's
// extract_labels/link.
func Link(items []Item) ([]uint16, Globals, error) {
	globals, err := extractLabels(items)
	if err != nil {
		return nil, nil, err
	}

	var image []uint16
	changed := true
	for changed {
		changed = false
		image = image[:0]
		var index uint32 // wider than uint16 so overflow past 65536 is detectable
		var lastGlobal string

		for _, raw := range items {
			switch item := raw.(type) {
			case Directive:
				if item.Kind == DLcomm {
					label := globals[item.Name]
					if label.Addr != uint16(index) {
						label.Addr = uint16(index)
						changed = true
					}
					lastGlobal = item.Name
					image = append(image, make([]uint16, item.Size)...)
					index += uint32(item.Size)
				} else {
					words, err := emitDirective(item, globals, lastGlobal, uint16(index))
					if err != nil {
						return nil, nil, err
					}
					image = append(image, words...)
					index += uint32(len(words))
				}

			case LabelDecl:
				label := globals[item.Name]
				if label.Addr != uint16(index) {
					label.Addr = uint16(index)
					changed = true
				}
				lastGlobal = item.Name

			case LocalLabelDecl:
				label := globals[lastGlobal]
				addr := label.Locals[item.Name]
				if addr != uint16(index) {
					label.Locals[item.Name] = uint16(index)
					changed = true
				}

			case Instruction:
				resolved, err := resolveInstruction(item, globals, lastGlobal)
				if err != nil {
					return nil, nil, err
				}
				words, err := inst.Encode(resolved)
				if err != nil {
					return nil, nil, err
				}
				image = append(image, words...)
				index += uint32(len(words))
			}

			// index == 0x10000 is a fully-packed 65536-word image and is
			// valid; spec.md 7 only rejects images that need a 65537th word.
			if index > 0x10000 {
				return nil, nil, ErrImageTooLarge
			}
		}
	}

	out := make([]uint16, len(image))
	copy(out, image)
	return out, globals, nil
}

// extractLabels is phase 1: a single pass recording every global and local
// label declaration with address 0, rejecting duplicates and locals
// declared before any global.
func extractLabels(items []Item) (Globals, error) {
	globals := make(Globals)
	var lastGlobal string
	haveGlobal := false

	declareGlobal := func(name string) error {
		if _, exists := globals[name]; exists {
			return duplicatedLabel(name)
		}
		globals[name] = &LabelInfo{Locals: make(map[string]uint16)}
		lastGlobal = name
		haveGlobal = true
		return nil
	}

	for _, raw := range items {
		switch item := raw.(type) {
		case LabelDecl:
			if err := declareGlobal(item.Name); err != nil {
				return nil, err
			}
		case Directive:
			if item.Kind == DLcomm {
				if err := declareGlobal(item.Name); err != nil {
					return nil, err
				}
			}
		case LocalLabelDecl:
			if !haveGlobal {
				return nil, localBeforeGlobal(item.Name)
			}
			locals := globals[lastGlobal].Locals
			if _, exists := locals[item.Name]; exists {
				return nil, duplicatedLocalLabel(item.Name)
			}
			locals[item.Name] = 0
		}
	}
	return globals, nil
}

func resolveInstruction(i Instruction, globals Globals, currentGlobal string) (inst.Instruction, error) {
	a, err := i.A.Resolve(globals, currentGlobal, true)
	if err != nil {
		return inst.Instruction{}, err
	}
	if i.Special {
		return inst.Instruction{Special: true, SpecialOp: i.SpecialOp, A: a}, nil
	}
	b, err := i.B.Resolve(globals, currentGlobal, false)
	if err != nil {
		return inst.Instruction{}, err
	}
	return inst.Instruction{Op: i.Op, A: a, B: b}, nil
}

func emitDirective(d Directive, globals Globals, currentGlobal string, index uint16) ([]uint16, error) {
	switch d.Kind {
	case DWord:
		out := make([]uint16, 0, len(d.Words))
		for _, e := range d.Words {
			v, err := e.Eval(globals, currentGlobal)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case DByte:
		out := make([]uint16, 0, (len(d.Words)+1)/2)
		for i := 0; i < len(d.Words); i += 2 {
			lo, err := d.Words[i].Eval(globals, currentGlobal)
			if err != nil {
				return nil, err
			}
			hi := uint16(0)
			if i+1 < len(d.Words) {
				hi, err = d.Words[i+1].Eval(globals, currentGlobal)
				if err != nil {
					return nil, err
				}
			}
			out = append(out, (hi<<8)|(lo&0xff))
		}
		return out, nil
	case DAscii, DAsciiz:
		text := d.Text
		if d.Kind == DAsciiz {
			text += "\x00"
		}
		out := make([]uint16, len(text))
		for i, r := range []byte(text) {
			out[i] = uint16(r)
		}
		return out, nil
	case DAlign:
		if d.Align == 0 {
			return nil, nil
		}
		rem := index % d.Align
		if rem == 0 {
			return nil, nil
		}
		return make([]uint16, d.Align-rem), nil
	default:
		return nil, fmt.Errorf("asm: unknown directive kind %d", d.Kind)
	}
}
