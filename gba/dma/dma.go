// Package dma implements the GBA's 4-channel DMA engine: occasion-
// triggered transfers (immediate, VBlank, HBlank, special), priority
// arbitration between channels, and the FIFO-DMA/Video-DMA special cases
// that channels 1/2 and channel 3 respectively implement on top of the
// generic transfer state machine.
package dma

import "gbacore/gba/log"

// Occasion is the event that starts a DMA channel's transfer.
type Occasion uint8

const (
	Immediate Occasion = iota
	VBlank
	HBlank
	Special
)

// FIFO-DMA destination addresses: channels 1 and 2 targeting either sound
// FIFO always transfer as a fixed 4-word burst regardless of their
// programmed count, per the APU's DMA-driven refill protocol.
const (
	FIFOADest = 0x040000A0
	FIFOBDest = 0x040000A4
)

func isFIFODest(addr uint32) bool {
	return addr == FIFOADest || addr == FIFOBDest
}

// openBusFloor is the lowest address a DMA channel will actually read
// through to the bus for; anything below it (BIOS and other protected
// space) reads back the channel's own latched last transfer instead.
const openBusFloor = 0x02000000

// Unit is the transfer granularity for one DMA channel.
type Unit uint8

const (
	Unit16 Unit = iota
	Unit32
)

// AddrCtrl is the post-transfer adjustment applied to a source/destination
// pointer after each unit.
type AddrCtrl uint8

const (
	Increment AddrCtrl = iota
	Decrement
	Fixed
	IncrementReload // destination only: increments, then reloads to base on repeat
)

// Bus is the memory interface a channel transfers through. The DMA engine
// never touches gba/bus directly so it stays testable without a full
// system; System wires a *bus.Bus in that satisfies this. seq selects
// which half of the wait-state table an access is charged against: false
// for the non-sequential first unit of a run (or the first unit after a
// preemption), true for every sequential unit after it.
type Bus interface {
	Read16(addr uint32, seq bool) (uint16, uint32)
	Write16(addr uint32, val uint16, seq bool) uint32
	Read32(addr uint32, seq bool) (uint32, uint32)
	Write32(addr uint32, val uint32, seq bool) uint32
	FlushPrefetch()
}

// Channel holds one DMA channel's register state and in-flight cursor.
type Channel struct {
	Index int

	SrcAddr uint32
	DstAddr uint32
	Count   uint16 // 0 means max count (0x4000, or 0x10000 for channel 3)

	SrcCtrl AddrCtrl
	DstCtrl AddrCtrl
	Repeat  bool
	Unit    Unit
	GamePak bool // channel 3 only: DRQ from cartridge, not modeled further
	Occ     Occasion
	IRQ     bool
	Enabled bool

	srcCursor uint32
	dstCursor uint32
	remaining uint16
	reloaded  bool   // true once an IncrementReload dst has been reset on a repeat
	first     bool   // true until this run's first transfer unit has been charged non-sequential
	fifoMode  bool   // true when this channel is locked into the FIFO-DMA burst shape
	busLatch  uint32 // last real value this channel read off the bus, replicated to fill a word
}

func (c *Channel) effectiveCount() uint32 {
	if c.fifoMode {
		return 4
	}
	if c.Count == 0 {
		if c.Index == 3 {
			return 0x10000
		}
		return 0x4000
	}
	return uint32(c.Count)
}

// arm loads the transfer cursors from the channel's base registers. Called
// when the channel starts a fresh (non-FIFO-repeat) transfer.
func (c *Channel) arm() {
	c.srcCursor = c.SrcAddr
	c.dstCursor = c.DstAddr
	c.remaining = uint16(c.effectiveCount())
	c.first = true
}

// Controller owns all four channels and the priority scheduling between
// them: lower channel index always wins when more than one is pending on
// the same occasion.
type Controller struct {
	Channels [4]Channel

	bus Bus

	// pending[occasion] is a bitmask of channels waiting to run once that
	// occasion fires. Four channels fit comfortably in a byte; a general
	// hwio.Bitset sized for a full address space would be solving a
	// problem this controller doesn't have.
	pending [4]uint8

	active     int // index of the channel currently transferring, or -1
	startDelay uint32
	irqPending uint8 // channels whose transfer-complete IRQ is awaiting PollIRQ
}

func New(bus Bus) *Controller {
	c := &Controller{bus: bus, active: -1}
	for i := range c.Channels {
		c.Channels[i].Index = i
	}
	return c
}

func (c *Controller) Reset() {
	for i := range c.Channels {
		c.Channels[i] = Channel{Index: i}
	}
	c.pending = [4]uint8{}
	c.active = -1
	c.startDelay = 0
}

// WriteControl is called when CNT_H is written for channel idx: it applies
// the new control bits and, if the enable bit transitions 0->1, arms the
// channel and marks it pending on its occasion.
func (c *Controller) WriteControl(idx int, wasEnabled bool, ch Channel) {
	prevEnabled := c.Channels[idx].Enabled
	c.Channels[idx] = ch

	// FIFO-DMA: channels 1/2 aimed at either sound FIFO always move a
	// fixed 4-word burst to a non-incrementing destination, whatever
	// count/unit/dst-control bits were actually programmed.
	if (idx == 1 || idx == 2) && isFIFODest(ch.DstAddr) {
		c.Channels[idx].fifoMode = true
		c.Channels[idx].Unit = Unit32
		c.Channels[idx].DstCtrl = Fixed
	} else {
		c.Channels[idx].fifoMode = false
	}

	if ch.Enabled && !prevEnabled {
		c.Channels[idx].arm()
		c.Channels[idx].reloaded = false
		if ch.Occ == Immediate {
			c.pending[Immediate] |= 1 << idx
		}
		log.ModDMA.DebugZ("channel armed").Int("channel", int64(idx)).
			Uint("count", uint64(ch.effectiveCount())).End()
	}
	if !ch.Enabled {
		c.pending[VBlank] &^= 1 << idx
		c.pending[HBlank] &^= 1 << idx
		c.pending[Special] &^= 1 << idx
		c.pending[Immediate] &^= 1 << idx
	}
}

// Notify marks every enabled channel configured for occ as pending. Called
// by the scheduler's VBlank/HBlank handlers and by the PPU/sound FIFO for
// Special-occasion channels.
func (c *Controller) Notify(occ Occasion) {
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Enabled && ch.Occ == occ {
			c.pending[occ] |= 1 << i
		}
	}
}

// HasPending reports whether any channel is waiting to run, across all
// occasions, or is currently mid-transfer. The CPU frontend polls this
// each cycle it would otherwise execute an instruction.
func (c *Controller) HasPending() bool {
	for _, p := range c.pending {
		if p != 0 {
			return true
		}
	}
	return c.active >= 0
}

// nextChannel picks the highest-priority pending channel across all
// occasions, preferring an occasion in Immediate/VBlank/HBlank/Special
// order only insofar as that governs when a channel becomes pending in
// the first place; among simultaneously pending channels, lowest index
// wins regardless of which occasion queued it.
func (c *Controller) nextChannel() (int, bool) {
	mask := uint8(0)
	for _, p := range c.pending {
		mask |= p
	}
	if mask == 0 {
		return -1, false
	}
	for i := 0; i < 4; i++ {
		if mask&(1<<i) != 0 {
			return i, true
		}
	}
	return -1, false
}

// Step performs one piece of DMA work and returns the number of cycles it
// consumed: either one cycle of startup latency or exactly one transfer
// unit per call, to keep the CPU/DMA interleaving simple: real hardware runs DMA in
// a burst once started, but yielding after each unit lets a higher
// priority channel preempt between units, matching the early-exit-trigger
// behavior described for HBlank/VBlank DMA racing the PPU's own timing.
//
// Before each unit, a newly-pending higher-priority channel (lower index)
// preempts whatever channel is currently running: the running channel's
// cursors and remaining count stay put in its Channel entry, and it picks
// back up, non-sequentially, once nothing higher-priority preempts it.
func (c *Controller) Step() uint32 {
	if c.active < 0 {
		idx, ok := c.nextChannel()
		if !ok {
			return 0
		}
		c.activate(idx)
	} else if idx, ok := c.nextChannel(); ok && idx < c.active {
		log.ModDMA.DebugZ("channel preempted").Int("channel", int64(c.active)).Int("by", int64(idx)).End()
		c.activate(idx)
	}

	ch := &c.Channels[c.active]

	if c.startDelay > 0 {
		c.startDelay--
		return 1
	}

	cycles := c.transferUnit(ch)

	if ch.remaining == 0 {
		c.finish(ch)
	}
	return cycles
}

// activate switches the running channel to idx. If another channel was
// mid-transfer it is preempted rather than abandoned: its first flag is
// set so it resumes with a non-sequential access, same as a fresh start.
func (c *Controller) activate(idx int) {
	if c.active >= 0 && c.active != idx {
		c.Channels[c.active].first = true
	}
	c.active = idx
	c.startDelay = 2 // fixed 2-cycle startup latency before the first unit
	c.bus.FlushPrefetch()
}

func (c *Controller) transferUnit(ch *Channel) uint32 {
	seq := !ch.first
	var cycles uint32
	if ch.Unit == Unit32 {
		val, rc := c.readSrc32(ch, seq)
		wc := c.bus.Write32(ch.dstCursor, val, seq)
		cycles = rc + wc
		ch.busLatch = val
	} else {
		val, rc := c.readSrc16(ch, seq)
		wc := c.bus.Write16(ch.dstCursor, val, seq)
		cycles = rc + wc
		ch.busLatch = uint32(val) | uint32(val)<<16
	}
	ch.first = false

	ch.srcCursor = adjust(ch.srcCursor, ch.SrcCtrl, ch.Unit)
	ch.dstCursor = adjust(ch.dstCursor, ch.DstCtrl, ch.Unit)
	ch.remaining--
	return cycles
}

// readSrc16/32 read a channel's source, honoring the bus-arbitration rule
// that a DMA source below openBusFloor never actually reaches the bus: it
// reads back the channel's own last-transferred value instead, replicated
// to fill the access width.
func (c *Controller) readSrc16(ch *Channel, seq bool) (uint16, uint32) {
	if ch.srcCursor < openBusFloor {
		return uint16(ch.busLatch), 1
	}
	return c.bus.Read16(ch.srcCursor, seq)
}

func (c *Controller) readSrc32(ch *Channel, seq bool) (uint32, uint32) {
	if ch.srcCursor < openBusFloor {
		return ch.busLatch, 1
	}
	return c.bus.Read32(ch.srcCursor, seq)
}

func adjust(addr uint32, ctrl AddrCtrl, u Unit) uint32 {
	step := uint32(2)
	if u == Unit32 {
		step = 4
	}
	switch ctrl {
	case Increment, IncrementReload:
		return addr + step
	case Decrement:
		return addr - step
	default:
		return addr
	}
}

func (c *Controller) finish(ch *Channel) {
	idx := ch.Index
	c.pending[ch.Occ] &^= 1 << idx
	c.active = -1

	if ch.IRQ {
		c.irqPending |= 1 << idx
	}

	if ch.Repeat && ch.Occ != Immediate {
		ch.remaining = uint16(ch.effectiveCount())
		ch.srcCursor = ch.SrcAddr
		ch.first = true
		if ch.DstCtrl == IncrementReload {
			ch.dstCursor = ch.DstAddr
			ch.reloaded = true
		}
		log.ModDMA.DebugZ("channel reloaded for repeat").Int("channel", int64(idx)).End()
		return
	}

	ch.Enabled = false
	log.ModDMA.DebugZ("channel finished").Int("channel", int64(idx)).End()
}

// PollIRQ returns and clears the set of channels whose transfer just
// completed with IRQ enabled.
func (c *Controller) PollIRQ() uint8 {
	v := c.irqPending
	c.irqPending = 0
	return v
}
