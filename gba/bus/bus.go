package bus

import (
	"gbacore/gba/cart"
	"gbacore/gba/log"
	"gbacore/gba/mmio"
	"gbacore/gba/prefetch"
)

const (
	ewramSize = 256 * 1024
	iwramSize = 32 * 1024
	pramSize  = 1 * 1024
	vramSize  = 96 * 1024
	oamSize   = 1 * 1024
)

// Bus is the GBA's 32-bit address space: fixed-size internal memories,
// the MMIO register table, the GamePak ROM/SRAM windows and their wait
// states, and the open-bus fallback for unmapped reads. It owns no
// hardware behavior of its own beyond memory timing and routing; register
// semantics live in mmio.Table entries owned by the PPU/DMA/IRQ/keypad
// packages, and ROM/backup content lives in gba/cart.
type Bus struct {
	BIOS []byte // 16KB, read-only once loaded

	ewram [ewramSize]byte
	iwram [iwramSize]byte
	pram  [pramSize]byte
	vram  [vramSize]byte
	oam   [oamSize]byte

	MMIO *mmio.Table

	rom    *cart.ROM
	backup *cart.Backup

	waits    *waitTable
	pf       *prefetch.Buffer
	openBus  openBus
	lastBIOS uint32 // last word fetched while PC was executing from BIOS
	pcInBIOS bool    // true while the most recently fetched opcode came from BIOS
}

func New() *Bus {
	b := &Bus{
		MMIO:     mmio.NewTable("io"),
		waits:    newWaitTable(),
		pf:       prefetch.New(),
		pcInBIOS: true, // reset vector starts execution in BIOS
	}
	return b
}

func (b *Bus) AttachROM(rom *cart.ROM, backup *cart.Backup) {
	b.rom = rom
	b.backup = backup
}

// VRAMBytes/OAMBytes/PRAMBytes expose the raw backing arrays for the PPU
// to render from directly, bypassing wait-state accounting: the PPU reads
// these on its own scanline-driven schedule, not as CPU bus cycles.
func (b *Bus) VRAMBytes() []byte { return b.vram[:] }
func (b *Bus) OAMBytes() []byte  { return b.oam[:] }
func (b *Bus) PRAMBytes() []byte { return b.pram[:] }

func (b *Bus) WriteWaitCnt(v uint16) {
	b.waits.recompute(WaitCnt(v))
	b.pf.Enabled = b.waits.prefetch
}

// region classifies addr by its top nibble, matching the GBA's coarse
// 16MB-granular memory map.
type region int

const (
	regionBIOS region = iota
	regionEWRAM
	regionIWRAM
	regionMMIO
	regionPRAM
	regionVRAM
	regionOAM
	regionROM0
	regionROM1
	regionROM2
	regionSRAM
	regionOpenBus
)

func classify(addr uint32) region {
	switch addr >> 24 {
	case 0x00, 0x01:
		return regionBIOS
	case 0x02:
		return regionEWRAM
	case 0x03:
		return regionIWRAM
	case 0x04:
		return regionMMIO
	case 0x05:
		return regionPRAM
	case 0x06:
		return regionVRAM
	case 0x07:
		return regionOAM
	case 0x08, 0x09:
		return regionROM0
	case 0x0A, 0x0B:
		return regionROM1
	case 0x0C, 0x0D:
		return regionROM2
	case 0x0E, 0x0F:
		return regionSRAM
	default:
		return regionOpenBus
	}
}

// vramMirror folds the 96KB VRAM region's 128KB-aligned mirroring quirk:
// the top 32KB of every 128KB block repeats the preceding 32KB instead of
// continuing the mirror cleanly.
func vramMirror(addr uint32) uint32 {
	a := addr & 0x1FFFF
	if a >= 0x18000 {
		a -= 0x8000
	}
	return a
}

// Read8 performs a byte read with the given access kind, returning the
// value and the number of bus cycles it cost.
func (b *Bus) Read8(addr uint32, kind AccessKind) (uint8, uint32) {
	switch classify(addr) {
	case regionBIOS:
		if int(addr) >= len(b.BIOS) || b.BIOS == nil {
			return b.openBus.read8(addr), 1
		}
		if !b.pcInBIOS {
			return b.biosOpenBus8(addr), 1
		}
		v := b.BIOS[addr]
		return v, 1
	case regionEWRAM:
		v := b.ewram[addr%ewramSize]
		return v, 3
	case regionIWRAM:
		v := b.iwram[addr%iwramSize]
		return v, 1
	case regionMMIO:
		v := b.mmioByte(addr, true)
		return v, 1
	case regionPRAM:
		v := b.pram[addr%pramSize]
		return v, 1
	case regionVRAM:
		v := b.vram[vramMirror(addr)]
		return v, 1
	case regionOAM:
		v := b.oam[addr%oamSize]
		return v, 1
	case regionROM0, regionROM1, regionROM2:
		return b.readROM8(addr, classify(addr))
	case regionSRAM:
		return b.readSRAM8(addr, kind)
	default:
		return b.openBus.read8(addr), 1
	}
}

func (b *Bus) readROM8(addr uint32, r region) (uint8, uint32) {
	if b.rom == nil {
		return b.openBus.read8(addr), 1
	}
	cycles := b.pf.AccessData(b.waits.romCycles(romView(r), NonSequential))
	return b.rom.Read8(addr), cycles
}

// readSRAM8 implements the backup-memory quirk: byte accesses to the
// SRAM/Flash window replicate the single byte across the full 32-bit bus,
// which is why the region is only ever accessed a byte at a time in
// practice.
func (b *Bus) readSRAM8(addr uint32, kind AccessKind) (uint8, uint32) {
	if b.backup == nil || len(b.backup.Data) == 0 {
		return 0xFF, b.waits.sramCycles()
	}
	off := int(addr) % len(b.backup.Data)
	return b.backup.Data[off], b.waits.sramCycles()
}

func romView(r region) int {
	switch r {
	case regionROM0:
		return 0
	case regionROM1:
		return 1
	default:
		return 2
	}
}

func (b *Bus) Write8(addr uint32, val uint8) uint32 {
	switch classify(addr) {
	case regionBIOS:
		return 1 // BIOS is read-only; the write is simply discarded
	case regionEWRAM:
		b.ewram[addr%ewramSize] = val
		return 3
	case regionIWRAM:
		b.iwram[addr%iwramSize] = val
		return 1
	case regionMMIO:
		b.MMIO.Write8(addr, val)
		return 1
	case regionPRAM:
		// An 8-bit write to palette RAM broadcasts to both bytes of the
		// enclosing halfword: real hardware has no single-byte write path
		// to 16-bit-native VRAM/PRAM cells.
		base := (addr % pramSize) &^ 1
		b.pram[base] = val
		b.pram[base+1] = val
		return 1
	case regionVRAM:
		a := vramMirror(addr) &^ 1
		b.vram[a] = val
		b.vram[a+1] = val
		return 1
	case regionOAM:
		// Unlike PRAM/VRAM, an 8-bit write to OAM is simply dropped: OAM
		// has no legitimate byte-write use case on real hardware.
		log.ModBus.DebugZ("dropped 8-bit oam write").Hex32("addr", addr).End()
		return 1
	case regionROM0, regionROM1, regionROM2:
		return b.pf.AccessData(b.waits.romCycles(romView(classify(addr)), NonSequential))
	case regionSRAM:
		if b.backup != nil && len(b.backup.Data) > 0 {
			b.backup.Data[int(addr)%len(b.backup.Data)] = val
			b.backup.MarkDirty()
		}
		return b.waits.sramCycles()
	default:
		return 1
	}
}

// Read16/Read32 decompose into the byte path for MMIO/backup regions,
// where the underlying store is itself byte-addressed, but read directly
// out of the wider memories for speed.
func (b *Bus) Read16(addr uint32, kind AccessKind) (uint16, uint32) {
	addr &^= 1
	switch classify(addr) {
	case regionEWRAM:
		i := addr % ewramSize
		return uint16(b.ewram[i]) | uint16(b.ewram[i+1])<<8, 3
	case regionIWRAM:
		i := addr % iwramSize
		return uint16(b.iwram[i]) | uint16(b.iwram[i+1])<<8, 1
	case regionMMIO:
		return b.readMMIO16(addr), 1
	case regionPRAM:
		i := addr % pramSize
		return uint16(b.pram[i]) | uint16(b.pram[i+1])<<8, 1
	case regionVRAM:
		i := vramMirror(addr)
		return uint16(b.vram[i]) | uint16(b.vram[i+1])<<8, 1
	case regionOAM:
		i := addr % oamSize
		return uint16(b.oam[i]) | uint16(b.oam[i+1])<<8, 1
	case regionROM0, regionROM1, regionROM2:
		if b.rom == nil {
			return uint16(b.openBus.read16(addr)), 1
		}
		nonSeq := b.waits.romCycles(romView(classify(addr)), NonSequential)
		cycles := b.pf.AccessData(nonSeq)
		return b.rom.Read16(addr), cycles
	case regionSRAM:
		v, c := b.readSRAM8(addr, kind)
		return uint16(v) | uint16(v)<<8, c
	case regionBIOS:
		if int(addr)+1 >= len(b.BIOS) {
			return b.openBus.read16(addr), 1
		}
		if !b.pcInBIOS {
			return b.biosOpenBus16(addr), 1
		}
		return uint16(b.BIOS[addr]) | uint16(b.BIOS[addr+1])<<8, 1
	default:
		return b.openBus.read16(addr), 1
	}
}

// biosOpenBus8/16 serve BIOS-region reads made while the CPU isn't
// executing out of BIOS: real hardware can't distinguish this from any
// other unmapped read and just replays the last word it fetched while it
// was still running BIOS code.
func (b *Bus) biosOpenBus8(addr uint32) uint8 {
	shift := (addr & 3) * 8
	return uint8(b.lastBIOS >> shift)
}

func (b *Bus) biosOpenBus16(addr uint32) uint16 {
	shift := (addr & 2) * 8
	return uint16(b.lastBIOS >> shift)
}

// mmioByte returns one byte of an MMIO access. A mapped register always
// answers for itself; an unmapped byte reads back as 0 when it is the
// first (lowest-addressed) byte of the access and as open bus otherwise,
// matching the GBA's asymmetric unmapped-I/O quirk.
func (b *Bus) mmioByte(addr uint32, first bool) uint8 {
	if b.MMIO.Mapped(addr) {
		return b.MMIO.Read8(addr)
	}
	if first {
		return 0
	}
	return b.openBus.read8(addr)
}

func (b *Bus) readMMIO16(addr uint32) uint16 {
	lo := b.mmioByte(addr, true)
	hi := b.mmioByte(addr+1, false)
	return uint16(lo) | uint16(hi)<<8
}

func (b *Bus) readMMIO32(addr uint32) uint32 {
	b0 := b.mmioByte(addr, true)
	b1 := b.mmioByte(addr+1, false)
	b2 := b.mmioByte(addr+2, false)
	b3 := b.mmioByte(addr+3, false)
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
}

func (b *Bus) Write16(addr uint32, val uint16) uint32 {
	addr &^= 1
	switch classify(addr) {
	case regionEWRAM:
		i := addr % ewramSize
		b.ewram[i], b.ewram[i+1] = uint8(val), uint8(val>>8)
		return 3
	case regionIWRAM:
		i := addr % iwramSize
		b.iwram[i], b.iwram[i+1] = uint8(val), uint8(val>>8)
		return 1
	case regionMMIO:
		b.MMIO.Write16(addr, val)
		return 1
	case regionPRAM:
		i := addr % pramSize
		b.pram[i], b.pram[i+1] = uint8(val), uint8(val>>8)
		return 1
	case regionVRAM:
		i := vramMirror(addr)
		b.vram[i], b.vram[i+1] = uint8(val), uint8(val>>8)
		return 1
	case regionOAM:
		i := addr % oamSize
		b.oam[i], b.oam[i+1] = uint8(val), uint8(val>>8)
		return 1
	case regionROM0, regionROM1, regionROM2:
		nonSeq := b.waits.romCycles(romView(classify(addr)), NonSequential)
		return b.pf.AccessData(nonSeq)
	case regionSRAM:
		b.Write8(addr, uint8(val))
		return b.waits.sramCycles()
	default:
		return 1
	}
}

func (b *Bus) Read32(addr uint32, kind AccessKind) (uint32, uint32) {
	addr &^= 3
	if classify(addr) == regionMMIO {
		return b.readMMIO32(addr), 1
	}
	lo, c1 := b.Read16(addr, kind)
	hi, c2 := b.Read16(addr+2, Sequential)
	return uint32(lo) | uint32(hi)<<16, c1 + c2
}

func (b *Bus) Write32(addr uint32, val uint32) uint32 {
	addr &^= 3
	c1 := b.Write16(addr, uint16(val))
	c2 := b.Write16(addr+2, uint16(val>>16))
	return c1 + c2
}

// FetchOpcode services a code fetch of width bytes (2 for THUMB, 4 for
// ARM) through the prefetch unit when addr lands in ROM, latching the
// fetched word for the open-bus fallback either way.
func (b *Bus) FetchOpcode(addr uint32, width uint32, kind AccessKind) (uint32, uint32) {
	r := classify(addr)
	b.pcInBIOS = r == regionBIOS
	if r != regionROM0 && r != regionROM1 && r != regionROM2 {
		var val uint32
		var cycles uint32
		if width == 2 {
			v, c := b.Read16(addr, kind)
			val, cycles = uint32(v), c
		} else {
			v, c := b.Read32(addr, kind)
			val, cycles = v, c
		}
		b.openBus.latch(val)
		if r == regionBIOS {
			if width == 2 {
				b.lastBIOS = val | val<<16
			} else {
				b.lastBIOS = val
			}
		}
		return val, cycles
	}

	view := romView(r)
	nonSeq := b.waits.romCycles(view, NonSequential)
	seq := b.waits.romCycles(view, Sequential)
	cycles := b.pf.Access(addr, width, nonSeq, seq)

	// The value comes straight from the ROM image: Read16/Read32 treat a
	// ROM access as a data access and would flush the burst just set up.
	var val uint32
	switch {
	case b.rom == nil && width == 2:
		val = uint32(b.openBus.read16(addr))
	case b.rom == nil:
		val = b.openBus.read32()
	case width == 2:
		val = uint32(b.rom.Read16(addr))
	default:
		val = b.rom.Read32(addr)
	}
	b.openBus.latch(val)
	return val, cycles
}

// FlushPrefetch discards prefetch state, called by data accesses to ROM
// and by DMA channels taking over the ROM bus.
func (b *Bus) FlushPrefetch() { b.pf.Flush() }

// TickIdle advances the prefetch unit during bus cycles the CPU spends on
// non-ROM work, letting the burst fill opportunistically.
func (b *Bus) TickIdle(cycles uint32) { b.pf.Tick(cycles) }
