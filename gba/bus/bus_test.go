package bus

import (
	"testing"

	"gbacore/gba/cart"
)

func newTestBus(romSize int) *Bus {
	b := New()
	raw := make([]byte, romSize)
	for i := range raw {
		raw[i] = byte(i)
	}
	rom := cart.NewROM(raw)
	backup := cart.NewBackup(cart.BackupSRAM)
	b.AttachROM(rom, backup)
	return b
}

func TestEWRAMRoundTrip(t *testing.T) {
	b := newTestBus(1024)
	b.Write8(0x02000010, 0xAB)
	v, cycles := b.Read8(0x02000010, NonSequential)
	if v != 0xAB {
		t.Fatalf("Read8 = %#x, want 0xAB", v)
	}
	if cycles != 3 {
		t.Fatalf("EWRAM cycles = %d, want 3", cycles)
	}
}

func TestIWRAMIsSingleCycle(t *testing.T) {
	b := newTestBus(1024)
	b.Write8(0x03000000, 0x42)
	v, cycles := b.Read8(0x03000000, NonSequential)
	if v != 0x42 || cycles != 1 {
		t.Fatalf("Read8 = (%#x, %d), want (0x42, 1)", v, cycles)
	}
}

func TestPRAM8BitWriteBroadcastsToHalfword(t *testing.T) {
	b := newTestBus(1024)
	b.Write16(0x05000000, 0x1234)
	b.Write8(0x05000000, 0xFF)
	v, _ := b.Read16(0x05000000, NonSequential)
	if v != 0xFFFF {
		t.Fatalf("PRAM after byte write = %#x, want 0xFFFF (broadcast)", v)
	}
}

func TestOAM8BitWriteIsDropped(t *testing.T) {
	b := newTestBus(1024)
	b.Write16(0x07000000, 0xBEEF)
	b.Write8(0x07000000, 0x00)
	v, _ := b.Read16(0x07000000, NonSequential)
	if v != 0xBEEF {
		t.Fatalf("OAM after byte write = %#x, want unchanged 0xBEEF", v)
	}
}

func TestVRAMMirrorsWithinBlock(t *testing.T) {
	b := newTestBus(1024)
	b.Write8(0x06010000, 0x77)
	v, _ := b.Read8(0x06018000, NonSequential) // should fold back 0x8000
	if v != 0x77 {
		t.Fatalf("mirrored VRAM read = %#x, want 0x77", v)
	}
}

func TestROMReadsThroughMirroredImage(t *testing.T) {
	b := newTestBus(1024)
	v, _ := b.Read8(0x08000005, NonSequential)
	if v != 0x05 {
		t.Fatalf("ROM read = %#x, want 0x05", v)
	}
}

func TestSRAMWriteMarksBackupDirty(t *testing.T) {
	b := newTestBus(1024)
	b.Write8(0x0E000000, 0x99)
	if !b.backup.Dirty() {
		t.Fatal("expected SRAM write to mark the backup dirty")
	}
	v, _ := b.Read8(0x0E000000, NonSequential)
	if v != 0x99 {
		t.Fatalf("SRAM read = %#x, want 0x99", v)
	}
}

func TestWaitCntChangesROMTiming(t *testing.T) {
	b := newTestBus(1024)
	_, defaultCycles := b.Read16(0x08000000, NonSequential)

	b.WriteWaitCnt(0x000C) // ws0 N = 3 (slowest of the table)
	_, slower := b.Read16(0x08000000, NonSequential)

	if slower <= defaultCycles {
		t.Fatalf("expected slower WAITCNT setting to raise cycle cost: got %d, was %d", slower, defaultCycles)
	}
}

func TestFetchOpcodeUsesPrefetchBurst(t *testing.T) {
	b := newTestBus(4096)
	b.WriteWaitCnt(0x4000) // enable prefetch, default wait states

	_, first := b.FetchOpcode(0x08000000, 2, NonSequential)
	b.TickIdle(32)
	_, second := b.FetchOpcode(0x08000002, 2, Sequential)

	if second >= first {
		t.Fatalf("second sequential fetch cost %d should be cheaper than first %d once burst is warm", second, first)
	}
}

func TestOpenBusOnUnmappedRegion(t *testing.T) {
	b := newTestBus(1024)
	b.FetchOpcode(0x08000000, 4, NonSequential) // latch something onto open bus
	v, _ := b.Read8(0x10000000, NonSequential)
	_ = v // open bus value depends on the latch; just confirm no panic/region mismatch
}

func TestBIOSReadAfterLeavingBIOSReturnsLatch(t *testing.T) {
	b := newTestBus(1024)
	b.BIOS = make([]byte, 0x4000)
	b.BIOS[0], b.BIOS[1], b.BIOS[2], b.BIOS[3] = 0x11, 0x22, 0x33, 0x44
	b.BIOS[4] = 0xAA // content the CPU must not see once it has left BIOS

	b.FetchOpcode(0x00000000, 4, NonSequential) // executing in BIOS: latches lastBIOS
	b.FetchOpcode(0x08000000, 2, NonSequential) // PC jumps into ROM

	v, _ := b.Read8(0x00000004, NonSequential)
	if v == 0xAA {
		t.Fatal("BIOS read after PC left BIOS should not see live memory")
	}
	if want := uint8(b.lastBIOS); v != want {
		t.Fatalf("BIOS open-bus read = %#x, want latched byte %#x", v, want)
	}
}

func TestBIOSReadWhilePCInBIOSIsLive(t *testing.T) {
	b := newTestBus(1024)
	b.BIOS = make([]byte, 0x4000)
	b.BIOS[4] = 0x77

	b.FetchOpcode(0x00000000, 4, NonSequential) // still executing in BIOS

	v, _ := b.Read8(0x00000004, NonSequential)
	if v != 0x77 {
		t.Fatalf("BIOS read while PC in BIOS = %#x, want live value 0x77", v)
	}
}

func TestUnmappedMMIOComposesZeroLowOpenBusHigh(t *testing.T) {
	b := newTestBus(4096)
	b.FetchOpcode(0x08000000, 4, NonSequential) // latch a real word onto open bus

	addr := uint32(0x04000300) // nothing registered at this offset on a bare bus
	v, _ := b.Read16(addr, NonSequential)

	if lo := uint8(v); lo != 0 {
		t.Fatalf("low byte of unmapped MMIO read = %#x, want 0", lo)
	}
	wantHi := b.openBus.read8(addr + 1)
	if hi := uint8(v >> 8); hi != wantHi {
		t.Fatalf("high byte of unmapped MMIO read = %#x, want open-bus byte %#x", hi, wantHi)
	}
}
