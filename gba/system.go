// Package gba assembles the bus, scheduler, interrupt controller, DMA
// engine, PPU and keypad into a runnable system, and owns cartridge
// loading and backup persistence.
package gba

import (
	"gbacore/gba/bus"
	"gbacore/gba/cart"
	"gbacore/gba/cpu"
	"gbacore/gba/dma"
	"gbacore/gba/irq"
	"gbacore/gba/keypad"
	"gbacore/gba/log"
	"gbacore/gba/mmio"
	"gbacore/gba/sched"
	"gbacore/gba/video"
)

// LoadStatus mirrors cart.LoadStatus so callers of this package don't need
// to import gba/cart just to check the result of LoadBIOS/LoadGame.
type LoadStatus = cart.LoadStatus

const (
	Ok            = cart.Ok
	BiosNotFound  = cart.BiosNotFound
	GameNotFound  = cart.GameNotFound
	BiosWrongSize = cart.BiosWrongSize
	GameWrongSize = cart.GameWrongSize
)

// dmaBusAdapter narrows *bus.Bus to the dma.Bus interface, translating the
// engine's sequential/non-sequential flag into an AccessKind and passing
// the bus's real per-access wait-state cost straight back to the caller.
// It is a dumb pass-through by design: dma.Controller itself intercepts
// source reads below the open-bus floor before ever calling through here,
// since that latch is per-channel state the adapter has no way to hold.
type dmaBusAdapter struct{ b *bus.Bus }

func accessKind(seq bool) bus.AccessKind {
	if seq {
		return bus.Sequential
	}
	return bus.NonSequential
}

func (a dmaBusAdapter) Read16(addr uint32, seq bool) (uint16, uint32) {
	return a.b.Read16(addr, accessKind(seq))
}
func (a dmaBusAdapter) Write16(addr uint32, val uint16, seq bool) uint32 {
	return a.b.Write16(addr, val)
}
func (a dmaBusAdapter) Read32(addr uint32, seq bool) (uint32, uint32) {
	return a.b.Read32(addr, accessKind(seq))
}
func (a dmaBusAdapter) Write32(addr uint32, val uint32, seq bool) uint32 {
	return a.b.Write32(addr, val)
}
func (a dmaBusAdapter) FlushPrefetch() { a.b.FlushPrefetch() }

// System is one complete, runnable GBA core instance.
type System struct {
	Sched   *sched.Scheduler
	Bus     *bus.Bus
	IRQ     *irq.Controller
	DMA     *dma.Controller
	PPU     *video.PPU
	Keypad  *keypad.Keypad
	Decoder cpu.Decoder // supplied by the caller: the ARM7TDMI decoder is out of scope here
	CPU     *cpu.Frontend

	backupPath string
	backup     *cart.Backup
}

// New assembles a System with a not-yet-attached decoder; call
// AttachDecoder once the caller's ARM7TDMI implementation is ready to
// read/write through Bus.
func New() *System {
	s := &System{
		Sched: sched.New(),
		Bus:   bus.New(),
		IRQ:   irq.New(),
	}
	s.DMA = dma.New(dmaBusAdapter{s.Bus})
	s.PPU = video.New(s.Sched, s.IRQ, s.DMA, s.Bus.VRAMBytes(), s.Bus.OAMBytes(), s.Bus.PRAMBytes())
	s.Keypad = keypad.New(s.IRQ)

	s.PPU.MapRegisters(s.Bus.MMIO)
	s.Keypad.MapRegisters(s.Bus.MMIO)
	s.mapIRQRegisters()

	return s
}

// mapIRQRegisters wires IE/IF/IME into the shared MMIO table. IF's
// write-1-to-clear semantics and IME's bool-not-uint16 storage don't fit a
// plain register, so each is a mmio.Reg16 whose ReadCb/WriteCb defer
// entirely to the irq.Controller as the source of truth.
func (s *System) mapIRQRegisters() {
	irqc := s.IRQ

	ie := &mmio.Reg16{
		Name:    "IE",
		ReadCb:  func(uint16) uint16 { return irqc.ReadIE() },
		WriteCb: func(_, val uint16) { irqc.WriteIE(val) },
	}
	iflag := &mmio.Reg16{
		Name:    "IF",
		ReadCb:  func(uint16) uint16 { return irqc.ReadIF() },
		WriteCb: func(_, val uint16) { irqc.WriteIF(val) },
	}
	ime := &mmio.Reg16{
		Name: "IME",
		ReadCb: func(uint16) uint16 {
			if irqc.ReadIME() {
				return 1
			}
			return 0
		},
		WriteCb: func(_, val uint16) { irqc.WriteIME(val&1 != 0) },
	}

	s.Bus.MMIO.MapReg16(0x200, ie)
	s.Bus.MMIO.MapReg16(0x202, iflag)
	s.Bus.MMIO.MapReg16(0x208, ime)
}

// AttachDecoder wires in the caller's ARM7TDMI implementation and builds
// the CPU frontend around it.
func (s *System) AttachDecoder(dec cpu.Decoder) {
	s.Decoder = dec
	s.CPU = cpu.New(s.IRQ, s.DMA, s.Sched, dec)
}

func (s *System) LoadBIOS(path string) (LoadStatus, error) {
	buf, status, err := cart.LoadBIOS(path)
	if err != nil || status != cart.Ok {
		return status, err
	}
	s.Bus.BIOS = buf
	return cart.Ok, nil
}

// LoadGame loads a ROM image, detects its backup chip, loads any existing
// save file at savePath (or starts erased), and attaches both to the bus.
func (s *System) LoadGame(romPath, savePath string) (LoadStatus, error) {
	rom, status, err := cart.LoadROM(romPath)
	if err != nil || status != cart.Ok {
		return status, err
	}

	kind := cart.DetectBackupKind(rom.Data[:rom.Size])
	backup, err := cart.LoadBackup(savePath, kind)
	if err != nil {
		return cart.Ok, err
	}

	s.backupPath = savePath
	s.backup = backup
	s.Bus.AttachROM(rom, backup)
	log.ModCart.InfoZ("game loaded").Uint("rom_size", uint64(rom.Size)).String("backup", kind.String()).End()
	return cart.Ok, nil
}

// FlushBackup persists the current save image to disk if it has changed
// since the last flush. Callers should call this periodically (e.g. once
// per frame) and on shutdown.
func (s *System) FlushBackup() error {
	if s.backup == nil {
		return nil
	}
	return s.backup.Flush(s.backupPath)
}

func (s *System) Reset() {
	s.Sched.Reset()
	s.IRQ.Reset()
	s.DMA.Reset()
	s.PPU.Start()
}

// RunFrame advances the system by exactly one frame's worth of cycles.
func (s *System) RunFrame() {
	const cyclesPerFrame = 228 * 308 * 4
	s.CPU.Run(cyclesPerFrame)
}
