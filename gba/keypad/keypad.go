// Package keypad models the GBA's button matrix: the read-only KEYINPUT
// register (active low) and the KEYCNT interrupt-on-combination register.
package keypad

import (
	"gbacore/gba/irq"
	"gbacore/gba/log"
	"gbacore/gba/mmio"
)

// Button bit positions, matching KEYINPUT/KEYCNT layout.
type Button uint16

const (
	A      Button = 1 << 0
	B      Button = 1 << 1
	Select Button = 1 << 2
	Start  Button = 1 << 3
	Right  Button = 1 << 4
	Left   Button = 1 << 5
	Up     Button = 1 << 6
	Down   Button = 1 << 7
	R      Button = 1 << 8
	L      Button = 1 << 9

	allButtons = 0x03FF
)

// Keypad tracks which buttons are currently held and raises the Keypad
// IRQ when the KEYCNT-selected combination is matched.
type Keypad struct {
	irqc *irq.Controller

	held uint16 // 1 = pressed, opposite polarity of KEYINPUT's active-low bits

	keyinput mmio.Reg16
	keycnt   mmio.Reg16
}

func New(irqc *irq.Controller) *Keypad {
	k := &Keypad{irqc: irqc}
	k.keyinput.Value = allButtons // nothing pressed: all bits set (active low)
	k.keyinput.Flags = mmio.ReadOnlyFlag
	k.keycnt.WriteCb = func(_, _ uint16) { k.evaluateIRQ() }
	return k
}

func (k *Keypad) MapRegisters(t *mmio.Table) {
	t.MapReg16(0x130, &k.keyinput)
	t.MapReg16(0x132, &k.keycnt)
}

// SetButtonState updates one button's held state and recomputes both the
// KEYINPUT register and any pending IRQ condition.
func (k *Keypad) SetButtonState(b Button, pressed bool) {
	if pressed {
		k.held |= uint16(b)
	} else {
		k.held &^= uint16(b)
	}
	k.keyinput.Value = (^k.held) & allButtons
	k.evaluateIRQ()
	log.ModKeypad.DebugZ("button state changed").Hex16("held", k.held).End()
}

// evaluateIRQ implements KEYCNT's AND/OR condition select: bit 14 enables
// the interrupt, bit 15 selects AND (all selected buttons must be held)
// versus OR (any selected button held).
func (k *Keypad) evaluateIRQ() {
	if k.keycnt.Value&0x4000 == 0 {
		return
	}
	selected := k.keycnt.Value & allButtons
	useAnd := k.keycnt.Value&0x8000 != 0

	var match bool
	if useAnd {
		match = k.held&selected == selected
	} else {
		match = k.held&selected != 0
	}

	if match {
		k.irqc.Raise(irq.Keypad)
	}
}
