package mmio

import "gbacore/gba/log"

// byteIO is anything that can service one byte of a register at a given
// intra-register offset.
type byteIO interface {
	Read8(off int) uint8
	Write8(off int, val uint8)
}

type cell struct {
	io  byteIO
	off int
}

// Table is a flat, byte-granular dispatcher covering the I/O register
// space (0x04000000-0x040003FF). Unlike the general-purpose memory bus,
// this table never needs a radix tree: the region is small and fixed size,
// so a plain array indexed by offset is both simpler and faster.
type Table struct {
	Name  string
	cells [0x400]cell
}

func NewTable(name string) *Table {
	return &Table{Name: name}
}

func (t *Table) Reset() {
	for i := range t.cells {
		t.cells[i] = cell{}
	}
}

func (t *Table) MapReg8(addr uint32, r *Reg8) {
	t.cells[addr&0x3FF] = cell{io: r, off: 0}
}

func (t *Table) MapReg16(addr uint32, r *Reg16) {
	base := addr & 0x3FF
	t.cells[base] = cell{io: r, off: 0}
	t.cells[base+1] = cell{io: r, off: 1}
}

func (t *Table) MapReg32(addr uint32, r *Reg32) {
	base := addr & 0x3FF
	for i := 0; i < 4; i++ {
		t.cells[base+uint32(i)] = cell{io: r, off: i}
	}
}

func (t *Table) MapDevice(addr uint32, d *Device) {
	base := addr & 0x3FF
	for i := 0; i < d.Size; i++ {
		t.cells[base+uint32(i)] = cell{io: d, off: i}
	}
}

func (t *Table) Unmap(addr uint32, size int) {
	base := addr & 0x3FF
	for i := 0; i < size; i++ {
		t.cells[base+uint32(i)] = cell{}
	}
}

// Mapped reports whether any register occupies addr. The bus uses this to
// implement the "unmapped MMIO returns 0 in the low byte, open bus in the
// upper bytes" quirk, which needs to know mapped-ness per byte rather than
// just get a default zero back.
func (t *Table) Mapped(addr uint32) bool {
	return t.cells[addr&0x3FF].io != nil
}

// Read8 returns the byte at addr, or the low byte of open bus (0) if
// nothing is mapped there.
func (t *Table) Read8(addr uint32) uint8 {
	c := t.cells[addr&0x3FF]
	if c.io == nil {
		log.ModBus.DebugZ("unmapped mmio read").Hex32("addr", addr).End()
		return 0
	}
	return c.io.Read8(c.off)
}

func (t *Table) Write8(addr uint32, val uint8) {
	c := t.cells[addr&0x3FF]
	if c.io == nil {
		log.ModBus.DebugZ("unmapped mmio write").Hex32("addr", addr).Hex8("val", val).End()
		return
	}
	c.io.Write8(c.off, val)
}

func (t *Table) Read16(addr uint32) uint16 {
	return uint16(t.Read8(addr)) | uint16(t.Read8(addr+1))<<8
}

func (t *Table) Write16(addr uint32, val uint16) {
	t.Write8(addr, uint8(val))
	t.Write8(addr+1, uint8(val>>8))
}

func (t *Table) Read32(addr uint32) uint32 {
	return uint32(t.Read16(addr)) | uint32(t.Read16(addr+2))<<16
}

func (t *Table) Write32(addr uint32, val uint32) {
	t.Write16(addr, uint16(val))
	t.Write16(addr+2, uint16(val>>16))
}
