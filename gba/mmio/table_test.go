package mmio

import "testing"

func TestReg16ByteDecomposition(t *testing.T) {
	tbl := NewTable("test")
	reg := &Reg16{Name: "DISPCNT"}
	tbl.MapReg16(0x000, reg)

	tbl.Write16(0x000, 0xBEEF)
	if reg.Value != 0xBEEF {
		t.Fatalf("Value = %#x, want 0xBEEF", reg.Value)
	}
	if got := tbl.Read16(0x000); got != 0xBEEF {
		t.Fatalf("Read16 = %#x, want 0xBEEF", got)
	}

	tbl.Write8(0x000, 0x11)
	if reg.Value != 0xBE11 {
		t.Fatalf("low byte write: Value = %#x, want 0xBE11", reg.Value)
	}
	tbl.Write8(0x001, 0x22)
	if reg.Value != 0x2211 {
		t.Fatalf("high byte write: Value = %#x, want 0x2211", reg.Value)
	}
}

func TestReg32RoundTrip(t *testing.T) {
	tbl := NewTable("test")
	reg := &Reg32{Name: "BGX"}
	tbl.MapReg32(0x010, reg)

	tbl.Write32(0x010, 0xCAFEBABE)
	if got := tbl.Read32(0x010); got != 0xCAFEBABE {
		t.Fatalf("Read32 = %#x, want 0xCAFEBABE", got)
	}
}

func TestRoMaskPreservesReadOnlyBits(t *testing.T) {
	tbl := NewTable("test")
	reg := &Reg16{Name: "DISPSTAT", RoMask: 0x0007}
	reg.Value = 0x0005 // vblank+vcount flags set by hardware, not writable
	tbl.MapReg16(0x004, reg)

	tbl.Write16(0x004, 0xFFF8)
	if reg.Value != 0xFFFD {
		t.Fatalf("Value = %#x, want 0xFFFD (low 3 bits preserved)", reg.Value)
	}
}

func TestUnmappedRegisterReadsZero(t *testing.T) {
	tbl := NewTable("test")
	if got := tbl.Read8(0x200); got != 0 {
		t.Fatalf("Read8(unmapped) = %#x, want 0", got)
	}
	if tbl.Mapped(0x200) {
		t.Fatal("expected 0x200 to be unmapped")
	}
}

func TestDeviceByteRange(t *testing.T) {
	tbl := NewTable("test")
	var buf [4]uint8
	dev := &Device{
		Name: "FIFO_A",
		Size: 4,
		ReadCb: func(off int) uint8 {
			return buf[off]
		},
		WriteCb: func(off int, val uint8) {
			buf[off] = val
		},
	}
	tbl.MapDevice(0x0A0, dev)

	tbl.Write32(0x0A0, 0x04030201)
	if buf != [4]uint8{0x01, 0x02, 0x03, 0x04} {
		t.Fatalf("buf = %v, want [1 2 3 4]", buf)
	}
}
