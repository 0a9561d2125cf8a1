// Package video implements the GBA's scanline-based picture processor:
// register decode for the six display modes, background and sprite
// rendering, window and blend compositing, and the scheduler-driven
// HBlank/VBlank timing that drives DMA and the interrupt controller.
package video

import (
	"gbacore/gba/dma"
	"gbacore/gba/irq"
	"gbacore/gba/log"
	"gbacore/gba/mmio"
	"gbacore/gba/sched"
)

const (
	ScreenWidth  = 240
	ScreenHeight = 160

	dotsPerLine   = 308
	linesPerFrame = 228
	cyclesPerDot  = 4

	lineTotalCycles   = dotsPerLine * cyclesPerDot // 1232
	hblankStartCycles = 1006                       // visible-line span; HBlank itself runs the remaining 226
)

// PPU renders one frame at a time into an RGBA8888 framebuffer, driven by
// two recurring scheduler events per scanline (HBlank start, next
// scanline start) rather than being ticked one dot at a time: nothing
// outside this package needs dot-level granularity, only the cycle counts
// at which HBlank/VBlank/VCount-match state changes.
type PPU struct {
	regs *registers

	vram []byte // aliased slice of the bus's VRAM array
	oam  []byte
	pram []byte

	sched *sched.Scheduler
	irqc  *irq.Controller
	dmac  *dma.Controller

	line int

	// Latched affine reference accumulators; reloaded from BGxX/BGxY
	// whenever those registers are written, and advanced by one row's
	// worth of BGxPB/BGxPD each visible scanline, per real hardware's
	// internal-register behavior (the CPU-visible BGxX/Y registers are
	// write-only from the renderer's point of view once a frame starts).
	bg2RefX, bg2RefY int32
	bg3RefX, bg3RefY int32

	// Distance, in scanlines, since the start of the current vertical
	// mosaic block. 0 on the first line of a block; sampling code
	// subtracts it from the true scanline to hold that line's data for
	// the whole block. Reset at VBlank start.
	bgMosaicCounterY  int
	objMosaicCounterY int

	framebuffer [ScreenWidth * ScreenHeight]uint32

	hblankHandle sched.Handle
	lineHandle   sched.Handle
}

func New(s *sched.Scheduler, irqc *irq.Controller, dmac *dma.Controller, vram, oam, pram []byte) *PPU {
	p := &PPU{
		regs:  newRegisters(),
		vram:  vram,
		oam:   oam,
		pram:  pram,
		sched: s,
		irqc:  irqc,
		dmac:  dmac,
	}
	p.regs.BG2X.WriteCb = func(_, val uint32) { p.bg2RefX = signExtend28(val) }
	p.regs.BG2Y.WriteCb = func(_, val uint32) { p.bg2RefY = signExtend28(val) }
	p.regs.BG3X.WriteCb = func(_, val uint32) { p.bg3RefX = signExtend28(val) }
	p.regs.BG3Y.WriteCb = func(_, val uint32) { p.bg3RefY = signExtend28(val) }
	return p
}

func signExtend28(v uint32) int32 {
	v &= 0x0FFFFFFF
	if v&0x08000000 != 0 {
		v |= 0xF0000000
	}
	return int32(v)
}

func (p *PPU) MapRegisters(t *mmio.Table) { p.regs.mapInto(t) }

// Start arms the first HBlank event of the first scanline; called once
// after reset.
func (p *PPU) Start() {
	p.line = 0
	p.regs.VCOUNT.Value = 0
	p.hblankHandle = p.sched.Add(hblankStartCycles, p.onHBlankStart, nil)
}

func (p *PPU) Framebuffer() []uint32 { return p.framebuffer[:] }

func (p *PPU) onHBlankStart(_ uint64, _ any) {
	p.regs.DISPSTAT.Value |= dispstatHBlank
	if p.line < ScreenHeight {
		p.renderScanline(p.line)
		p.dmac.Notify(dma.HBlank)
	}
	if p.regs.DISPSTAT.Value&dispstatHBlankIRQ != 0 {
		p.irqc.Raise(irq.HBlank)
	}
	p.advanceMosaicCounters()
	p.lineHandle = p.sched.Add(lineTotalCycles-hblankStartCycles, p.onLineComplete, nil)
}

// advanceMosaicCounters advances the vertical mosaic hold counters by one
// scanline, wrapping back to 0 once a block's worth of lines has passed.
func (p *PPU) advanceMosaicCounters() {
	p.bgMosaicCounterY++
	if p.bgMosaicCounterY >= p.regs.bgMosaicSizeY() {
		p.bgMosaicCounterY = 0
	}
	p.objMosaicCounterY++
	if p.objMosaicCounterY >= p.regs.objMosaicSizeY() {
		p.objMosaicCounterY = 0
	}
}

func (p *PPU) onLineComplete(_ uint64, _ any) {
	p.regs.DISPSTAT.Value &^= dispstatHBlank
	p.line++
	if p.line >= linesPerFrame {
		p.line = 0
	}
	p.regs.VCOUNT.Value = uint16(p.line)

	// Video-DMA (channel 3, Special occasion) triggers once per scanline
	// for VCount 2 through 161: the internal pipeline latency of the
	// first two lines means there's nothing for it to fetch yet on 0/1.
	if p.line >= 2 && p.line <= 161 {
		p.dmac.Notify(dma.Special)
	}

	vcountTarget := int((p.regs.DISPSTAT.Value >> 8) & 0xFF)
	if p.line == vcountTarget {
		p.regs.DISPSTAT.Value |= dispstatVCountMatch
		if p.regs.DISPSTAT.Value&dispstatVCountIRQ != 0 {
			p.irqc.Raise(irq.VCount)
		}
	} else {
		p.regs.DISPSTAT.Value &^= dispstatVCountMatch
	}

	switch p.line {
	case ScreenHeight:
		p.regs.DISPSTAT.Value |= dispstatVBlank
		p.dmac.Notify(dma.VBlank)
		if p.regs.DISPSTAT.Value&dispstatVBlankIRQ != 0 {
			p.irqc.Raise(irq.VBlank)
		}
		p.bgMosaicCounterY = 0
		p.objMosaicCounterY = 0
		log.ModPPU.DebugZ("vblank start").End()
	case 0:
		p.regs.DISPSTAT.Value &^= dispstatVBlank
		p.bg2RefX, p.bg2RefY = signExtend28(p.regs.BG2X.Value), signExtend28(p.regs.BG2Y.Value)
		p.bg3RefX, p.bg3RefY = signExtend28(p.regs.BG3X.Value), signExtend28(p.regs.BG3Y.Value)
	}

	if p.line < ScreenHeight {
		p.advanceAffineRefs()
	}

	p.hblankHandle = p.sched.Add(hblankStartCycles, p.onHBlankStart, nil)
}

// advanceAffineRefs accumulates one scanline's worth of the affine
// parameter B/D deltas into the internal reference registers, matching
// how BG2/BG3 rotation-scaling accumulates row to row without CPU
// intervention.
func (p *PPU) advanceAffineRefs() {
	p.bg2RefX += int32(int16(p.regs.BG2PB.Value))
	p.bg2RefY += int32(int16(p.regs.BG2PD.Value))
	p.bg3RefX += int32(int16(p.regs.BG3PB.Value))
	p.bg3RefY += int32(int16(p.regs.BG3PD.Value))
}
