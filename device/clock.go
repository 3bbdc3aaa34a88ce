package device

import "github.com/coredump16/dcpu16/cpu"

// ClockID is the standard DCPU-16 clock's hardware identity (generic clock,
// 0x12d0, version 1).
const ClockID uint32 = 0x12D0B402

// ClockManufacturer is a nonstandard manufacturer constant, used since the
// reference spec leaves it unassigned for a generic clock.
const ClockManufacturer uint32 = 0

// Clock is the standard DCPU-16 clock device: HWI 0 sets a tick divisor,
// HWI 1 reports ticks since the divisor was last set, HWI 2 sets the
// interrupt message. Its rate field mirrors the Rust reference's
// clock::Clock::new(rate) constructor, where rate is the number of system
// ticks that make up one 60Hz "clock second".
type Clock struct {
	rate uint64

	divisor uint16
	elapsed uint16
	ticksIn uint16 // system ticks accumulated toward the next elapsed++
	message uint16
}

// NewClock returns a Clock that, with HWI divisor R, ticks once every
// rate*R/60 system ticks (at least 1).
func NewClock(rate uint64) *Clock {
	if rate == 0 {
		rate = 1
	}
	return &Clock{rate: rate}
}

func (c *Clock) ID() uint32           { return ClockID }
func (c *Clock) Version() uint16      { return 1 }
func (c *Clock) Manufacturer() uint32 { return ClockManufacturer }

// Tick advances the clock by one system tick. If the divisor is nonzero and
// enough system ticks have accumulated, it increments the elapsed counter
// and, if a message was registered, raises an interrupt.
func (c *Clock) Tick(tick uint64) (*uint16, error) {
	if c.divisor == 0 {
		return nil, nil
	}
	c.ticksIn++
	period := c.rate * uint64(c.divisor) / 60
	if period == 0 {
		period = 1
	}
	if uint64(c.ticksIn) < period {
		return nil, nil
	}
	c.ticksIn = 0
	c.elapsed++
	if c.message == 0 {
		return nil, nil
	}
	msg := c.message
	return &msg, nil
}

// Interrupt runs the clock's HWI protocol, reading the message code from A.
func (c *Clock) Interrupt(cc *cpu.CPU) (int, error) {
	switch cc.Reg[cpu.A] {
	case 0:
		c.divisor = cc.Reg[cpu.B]
		c.elapsed = 0
		c.ticksIn = 0
	case 1:
		cc.Reg[cpu.C] = c.elapsed
	case 2:
		c.message = cc.Reg[cpu.B]
	}
	return 0, nil
}
