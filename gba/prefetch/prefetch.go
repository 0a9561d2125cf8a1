// Package prefetch models the GamePak prefetch unit: a small FIFO that
// opportunistically pre-reads ROM opcode-width units during otherwise idle
// bus cycles, collapsing sequential code fetches to near-zero wait once a
// burst is running.
package prefetch

import "gbacore/gba/log"

// Buffer is the prefetch unit for one GamePak bus (there is exactly one:
// ROM waitstate views 0-2 share the same physical flash and the same
// prefetch logic; the bus is responsible for routing all three mirrors
// through this one instance).
type Buffer struct {
	Enabled bool

	active    bool
	head      uint32
	tail      uint32
	count     int
	capacity  int
	width     uint32 // opcode width in bytes: 2 (THUMB) or 4 (ARM)
	countdown int32
	duty      int32
}

func New() *Buffer {
	return &Buffer{Enabled: true, width: 4, capacity: 4}
}

func (p *Buffer) Reset() {
	p.active = false
	p.head = 0
	p.tail = 0
	p.count = 0
	p.width = 4
	p.capacity = 4
	p.countdown = 0
	p.duty = 0
}

// Flush discards any in-flight or committed prefetch state. Called whenever
// a data access hits ROM, or whenever DMA takes over the ROM bus.
func (p *Buffer) Flush() {
	p.active = false
	p.count = 0
}

func (p *Buffer) setWidth(width uint32) {
	if width == p.width {
		return
	}
	p.Flush()
	p.width = width
	p.capacity = 16 / int(width)
}

// Access services one code fetch at addr. nonSeqCycles/seqCycles are the
// wait-state-table costs for a non-sequential and sequential access to the
// ROM region addr falls in; a newly started burst takes seqCycles as its
// duty, the cost of prefetching each further unit.
// It returns the number of bus cycles this fetch costs.
func (p *Buffer) Access(addr uint32, width uint32, nonSeqCycles, seqCycles uint32) uint32 {
	p.setWidth(width)

	if !p.Enabled {
		p.Flush()
		return nonSeqCycles
	}

	switch {
	case p.count > 0 && addr == p.head:
		p.count--
		p.head += p.width
		log.ModPrefetch.DebugZ("burst hit").Hex32("addr", addr).End()
		return 1

	case p.active && addr == p.tail:
		cycles := uint32(0)
		if p.countdown > 0 {
			cycles = uint32(p.countdown)
		}
		p.countdown = p.duty
		p.tail += p.width
		p.head = p.tail
		log.ModPrefetch.DebugZ("burst catch-up").Hex32("addr", addr).Uint("cycles", uint64(cycles)).End()
		return cycles

	default:
		p.Flush()
		p.active = true
		p.head = addr + p.width
		p.tail = addr + p.width
		p.duty = int32(seqCycles)
		p.countdown = 0
		log.ModPrefetch.DebugZ("burst restart").Hex32("addr", addr).End()
		return nonSeqCycles
	}
}

// AccessData services a non-code (data) access to ROM: always flushes and
// pays non-sequential timing.
func (p *Buffer) AccessData(nonSeqCycles uint32) uint32 {
	p.Flush()
	return nonSeqCycles
}

// Tick advances idle bus time (CPU internal cycles or non-ROM bus
// activity): the burst continues to fill in the background.
func (p *Buffer) Tick(cycles uint32) {
	if !p.active || !p.Enabled {
		return
	}
	p.countdown -= int32(cycles)
	for p.countdown <= 0 && p.count < p.capacity {
		p.count++
		p.tail += p.width
		p.countdown += p.duty
	}
}

// Count/Capacity/Active expose the invariant surface for tests: count never
// exceeds capacity, and when active a materializing entry is pending.
func (p *Buffer) Count() int    { return p.count }
func (p *Buffer) Capacity() int { return p.capacity }
func (p *Buffer) Active() bool  { return p.active }
