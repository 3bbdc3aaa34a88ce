package device

import "github.com/coredump16/dcpu16/cpu"

// KeyboardID is the standard DCPU-16 keyboard's hardware identity.
const KeyboardID uint32 = 0x30CF7406

const KeyboardManufacturer uint32 = 0

// keyBufferSize is the standard keyboard's circular buffer depth.
const keyBufferSize = 16

// KeyEvent is one key transition delivered by an external input backend
// (terminal reader, TUI front-end, GUI) into the keyboard device.
type KeyEvent struct {
	Code    uint16
	Pressed bool
}

// Keyboard is the standard DCPU-16 keyboard: a small ring buffer of typed
// keys plus a pressed-state bitset, fed by an external backend over a
// channel the way a UI thread would push key events into a headless core.
// HWI 0 clears the buffer, 1 pops the oldest key into C (0 if empty), 2
// tests whether a key is currently pressed, 3 sets the interrupt message.
type Keyboard struct {
	events  chan KeyEvent
	buf     [keyBufferSize]uint16
	head    int
	len     int
	pressed map[uint16]bool
	message uint16
}

// NewKeyboard returns a Keyboard that reads events from in. A nil channel
// is valid; the keyboard then never receives input.
func NewKeyboard(in chan KeyEvent) *Keyboard {
	return &Keyboard{events: in, pressed: make(map[uint16]bool)}
}

func (k *Keyboard) ID() uint32           { return KeyboardID }
func (k *Keyboard) Version() uint16      { return 1 }
func (k *Keyboard) Manufacturer() uint32 { return KeyboardManufacturer }

// Tick takes at most one pending key event without blocking, updates
// pressed state, and, if that event is a key press and a message is set,
// raises an interrupt. Further queued events wait for later ticks.
func (k *Keyboard) Tick(tick uint64) (*uint16, error) {
	if k.events == nil {
		return nil, nil
	}
	select {
	case ev := <-k.events:
		k.pressed[ev.Code] = ev.Pressed
		if ev.Pressed {
			k.push(ev.Code)
			if k.message != 0 {
				msg := k.message
				return &msg, nil
			}
		}
	default:
	}
	return nil, nil
}

func (k *Keyboard) push(code uint16) {
	if k.len == keyBufferSize {
		// buffer full: drop the oldest key to make room, matching the
		// standard keyboard's documented ring-buffer behavior.
		k.head = (k.head + 1) % keyBufferSize
		k.len--
	}
	k.buf[(k.head+k.len)%keyBufferSize] = code
	k.len++
}

func (k *Keyboard) pop() uint16 {
	if k.len == 0 {
		return 0
	}
	v := k.buf[k.head]
	k.head = (k.head + 1) % keyBufferSize
	k.len--
	return v
}

// Interrupt runs the keyboard's HWI protocol.
func (k *Keyboard) Interrupt(cc *cpu.CPU) (int, error) {
	switch cc.Reg[cpu.A] {
	case 0:
		k.head, k.len = 0, 0
		k.pressed = make(map[uint16]bool)
	case 1:
		cc.Reg[cpu.C] = k.pop()
	case 2:
		if k.pressed[cc.Reg[cpu.B]] {
			cc.Reg[cpu.C] = 1
		} else {
			cc.Reg[cpu.C] = 0
		}
	case 3:
		k.message = cc.Reg[cpu.B]
	}
	return 0, nil
}
