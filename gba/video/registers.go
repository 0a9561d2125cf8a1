package video

import "gbacore/gba/mmio"

// DISPCNT bit positions.
const (
	dispcntModeMask = 0x0007
	dispcntFrameSel = 1 << 4
	dispcntHBlankOAM = 1 << 5
	dispcntObjMap1D  = 1 << 6
	dispcntForceBlank = 1 << 7
	dispcntBG0       = 1 << 8
	dispcntBG1       = 1 << 9
	dispcntBG2       = 1 << 10
	dispcntBG3       = 1 << 11
	dispcntOBJ       = 1 << 12
	dispcntWin0      = 1 << 13
	dispcntWin1      = 1 << 14
	dispcntWinObj    = 1 << 15
)

// DISPSTAT bit positions.
const (
	dispstatVBlank      = 1 << 0
	dispstatHBlank      = 1 << 1
	dispstatVCountMatch = 1 << 2
	dispstatVBlankIRQ   = 1 << 3
	dispstatHBlankIRQ   = 1 << 4
	dispstatVCountIRQ   = 1 << 5
)

// BGxCNT bit positions.
const (
	bgcntPriorityMask = 0x0003
	bgcntCharBaseMask = 0x000C
	bgcntMosaic       = 1 << 6
	bgcnt256Color     = 1 << 7
	bgcntScreenBaseMask = 0x1F00
	bgcntWrap         = 1 << 13
	bgcntSizeMask     = 0xC000
)

// registers holds every PPU register in one place, exactly as the GBA
// datasheet lays them out in MMIO order. Each field is backed by a
// mmio.Reg16/Reg32 so the bus's byte-granular table can address them, and
// the PPU itself just reads reg.Value each time it needs the current
// setting, matching the field-recomputed-per-scanline style the rest of
// this core uses instead of caching derived state.
type registers struct {
	DISPCNT  mmio.Reg16
	DISPSTAT mmio.Reg16
	VCOUNT   mmio.Reg16

	BGCNT [4]mmio.Reg16
	BGHOFS [4]mmio.Reg16
	BGVOFS [4]mmio.Reg16

	BG2PA, BG2PB, BG2PC, BG2PD mmio.Reg16
	BG2X, BG2Y                 mmio.Reg32
	BG3PA, BG3PB, BG3PC, BG3PD mmio.Reg16
	BG3X, BG3Y                 mmio.Reg32

	WIN0H, WIN1H mmio.Reg16
	WIN0V, WIN1V mmio.Reg16
	WININ, WINOUT mmio.Reg16

	MOSAIC mmio.Reg16

	BLDCNT   mmio.Reg16
	BLDALPHA mmio.Reg16
	BLDY     mmio.Reg16
}

func newRegisters() *registers {
	r := &registers{}
	r.DISPSTAT.RoMask = dispstatVBlank | dispstatHBlank | dispstatVCountMatch
	r.VCOUNT.Flags = mmio.ReadOnlyFlag
	return r
}

// mapInto wires every register above into the shared MMIO table at its
// GBATEK-documented offset within the 0x04000000 region.
func (r *registers) mapInto(t *mmio.Table) {
	t.MapReg16(0x000, &r.DISPCNT)
	t.MapReg16(0x004, &r.DISPSTAT)
	t.MapReg16(0x006, &r.VCOUNT)

	for i := 0; i < 4; i++ {
		t.MapReg16(uint32(0x008+i*2), &r.BGCNT[i])
	}
	for i := 0; i < 4; i++ {
		t.MapReg16(uint32(0x010+i*4), &r.BGHOFS[i])
		t.MapReg16(uint32(0x012+i*4), &r.BGVOFS[i])
	}

	t.MapReg16(0x020, &r.BG2PA)
	t.MapReg16(0x022, &r.BG2PB)
	t.MapReg16(0x024, &r.BG2PC)
	t.MapReg16(0x026, &r.BG2PD)
	t.MapReg32(0x028, &r.BG2X)
	t.MapReg32(0x02C, &r.BG2Y)

	t.MapReg16(0x030, &r.BG3PA)
	t.MapReg16(0x032, &r.BG3PB)
	t.MapReg16(0x034, &r.BG3PC)
	t.MapReg16(0x036, &r.BG3PD)
	t.MapReg32(0x038, &r.BG3X)
	t.MapReg32(0x03C, &r.BG3Y)

	t.MapReg16(0x040, &r.WIN0H)
	t.MapReg16(0x042, &r.WIN1H)
	t.MapReg16(0x044, &r.WIN0V)
	t.MapReg16(0x046, &r.WIN1V)
	t.MapReg16(0x048, &r.WININ)
	t.MapReg16(0x04A, &r.WINOUT)

	t.MapReg16(0x04C, &r.MOSAIC)

	t.MapReg16(0x050, &r.BLDCNT)
	t.MapReg16(0x052, &r.BLDALPHA)
	t.MapReg16(0x054, &r.BLDY)
}

func (r *registers) mode() int          { return int(r.DISPCNT.Value & dispcntModeMask) }
func (r *registers) forceBlank() bool   { return r.DISPCNT.Value&dispcntForceBlank != 0 }
func (r *registers) bgEnabled(n int) bool {
	return r.DISPCNT.Value&(dispcntBG0<<uint(n)) != 0
}
func (r *registers) objEnabled() bool   { return r.DISPCNT.Value&dispcntOBJ != 0 }
func (r *registers) obj1D() bool        { return r.DISPCNT.Value&dispcntObjMap1D != 0 }
func (r *registers) win0Enabled() bool  { return r.DISPCNT.Value&dispcntWin0 != 0 }
func (r *registers) win1Enabled() bool  { return r.DISPCNT.Value&dispcntWin1 != 0 }
func (r *registers) winObjEnabled() bool { return r.DISPCNT.Value&dispcntWinObj != 0 }
func (r *registers) anyWindow() bool {
	return r.win0Enabled() || r.win1Enabled() || r.winObjEnabled()
}

func (r *registers) bgPriority(n int) int {
	return int(r.BGCNT[n].Value & bgcntPriorityMask)
}
func (r *registers) bgCharBase(n int) uint32 {
	return uint32((r.BGCNT[n].Value&bgcntCharBaseMask)>>2) * 0x4000
}
func (r *registers) bgScreenBase(n int) uint32 {
	return uint32((r.BGCNT[n].Value&bgcntScreenBaseMask)>>8) * 0x800
}
func (r *registers) bg256Color(n int) bool { return r.BGCNT[n].Value&bgcnt256Color != 0 }
func (r *registers) bgWraps(n int) bool    { return r.BGCNT[n].Value&bgcntWrap != 0 }
func (r *registers) bgSize(n int) int      { return int(r.BGCNT[n].Value&bgcntSizeMask) >> 14 }
func (r *registers) bgMosaicEnabled(n int) bool { return r.BGCNT[n].Value&bgcntMosaic != 0 }

// MOSAIC nibbles: BG horizontal/vertical block size, OBJ horizontal/
// vertical block size, each stored as size-1.
func (r *registers) bgMosaicSizeX() int  { return int(r.MOSAIC.Value&0xF) + 1 }
func (r *registers) bgMosaicSizeY() int  { return int((r.MOSAIC.Value>>4)&0xF) + 1 }
func (r *registers) objMosaicSizeX() int { return int((r.MOSAIC.Value>>8)&0xF) + 1 }
func (r *registers) objMosaicSizeY() int { return int((r.MOSAIC.Value>>12)&0xF) + 1 }
