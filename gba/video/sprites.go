package video

// shapeSizeTable maps (shape, size) OAM codes to a sprite's (width,
// height) in pixels, per the GBA's fixed 12-combination table.
var shapeSizeTable = [3][4][2]int{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},   // square
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},   // horizontal
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},   // vertical
}

type oamEntry struct {
	y, x            int
	affine          bool
	doubleOrDisable bool
	objMode         int // 0 normal, 1 semi-transparent, 2 window
	mosaic          bool
	is256           bool
	shape, size     int
	hflip, vflip    bool
	affineParam     int
	tileNum         int
	priority        int
	palBank         uint8
}

func (p *PPU) readOAMEntry(idx int) oamEntry {
	base := idx * 8
	attr0 := uint16(p.oam[base]) | uint16(p.oam[base+1])<<8
	attr1 := uint16(p.oam[base+2]) | uint16(p.oam[base+3])<<8
	attr2 := uint16(p.oam[base+4]) | uint16(p.oam[base+5])<<8

	e := oamEntry{
		y:               int(attr0 & 0xFF),
		affine:          attr0&0x0100 != 0,
		doubleOrDisable: attr0&0x0200 != 0,
		objMode:         int((attr0 >> 10) & 3),
		mosaic:          attr0&0x1000 != 0,
		is256:           attr0&0x2000 != 0,
		shape:           int((attr0 >> 14) & 3),
		x:               int(attr1 & 0x01FF),
		tileNum:         int(attr2 & 0x03FF),
		priority:        int((attr2 >> 10) & 3),
		palBank:         uint8(attr2 >> 12),
		size:            int((attr1 >> 14) & 3),
	}
	if e.x >= 240 {
		e.x -= 512 // 9-bit signed wraparound for off-screen-left placement
	}
	if e.affine {
		e.affineParam = int((attr1 >> 9) & 0x1F)
	} else {
		e.hflip = attr1&0x1000 != 0
		e.vflip = attr1&0x2000 != 0
	}
	return e
}

func (p *PPU) affineParams(idx int) (pa, pb, pc, pd int16) {
	base := idx * 32
	pa = int16(uint16(p.oam[base+6]) | uint16(p.oam[base+7])<<8)
	pb = int16(uint16(p.oam[base+14]) | uint16(p.oam[base+15])<<8)
	pc = int16(uint16(p.oam[base+22]) | uint16(p.oam[base+23])<<8)
	pd = int16(uint16(p.oam[base+30]) | uint16(p.oam[base+31])<<8)
	return
}

type spriteScanPixel struct {
	opaque          bool
	priority        int
	color           uint32
	semiTransparent bool
	inWinObj        bool
}

// scanSprites evaluates all 128 OAM entries against scanline y and returns
// the resolved sprite pixel for every x on the line. Sprite 0 wins ties
// against later sprites at the same priority, matching hardware's
// front-to-back OAM evaluation order.
func (p *PPU) scanSprites(y int) []spriteScanPixel {
	out := make([]spriteScanPixel, ScreenWidth)
	obj1D := p.regs.obj1D()

	for i := 0; i < 128; i++ {
		e := p.readOAMEntry(i)
		if !e.affine && e.doubleOrDisable {
			continue // disabled
		}

		dims := shapeSizeTable[e.shape][e.size]
		w, h := dims[0], dims[1]
		boundW, boundH := w, h
		if e.affine && e.doubleOrDisable {
			boundW, boundH = w*2, h*2
		}

		if y < e.y || y >= e.y+boundH {
			continue
		}

		var pa, pb, pc, pd int16 = 256, 0, 0, 256
		if e.affine {
			pa, pb, pc, pd = p.affineParams(e.affineParam)
		}

		centerX, centerY := boundW/2, boundH/2
		effY := y
		if e.mosaic {
			effY = y - p.objMosaicCounterY
		}
		relY := effY - e.y - centerY

		for sx := 0; sx < boundW; sx++ {
			screenX := e.x + sx
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}
			effX := screenX
			if e.mosaic {
				mx := p.regs.objMosaicSizeX()
				effX = screenX - screenX%mx
			}
			relX := effX - e.x - centerX

			var texX, texY int
			if e.affine {
				tx := (int32(pa)*int32(relX) + int32(pb)*int32(relY)) >> 8
				ty := (int32(pc)*int32(relX) + int32(pd)*int32(relY)) >> 8
				texX = int(tx) + w/2
				texY = int(ty) + h/2
				if texX < 0 || texX >= w || texY < 0 || texY >= h {
					continue
				}
			} else {
				texX = relX + centerX
				texY = relY + centerY
				if e.hflip {
					texX = w - 1 - texX
				}
				if e.vflip {
					texY = h - 1 - texY
				}
			}

			index := p.spriteTexel(e, texX, texY, w, obj1D)
			if index == 0 {
				continue
			}
			if e.objMode == 2 {
				out[screenX].inWinObj = true
				continue
			}
			if out[screenX].opaque {
				continue // a lower-indexed sprite already wrote here
			}
			color := p.paletteEntry(true, e.palBank, index, e.is256)
			out[screenX] = spriteScanPixel{
				opaque:          true,
				priority:        e.priority,
				color:           rgb555ToRGBA8888(color),
				semiTransparent: e.objMode == 1,
			}
		}
	}
	return out
}

// spriteTexel reads one texel from sprite tile data. The Character Name
// field always counts in 32-byte (4bpp-tile-sized) slots even for 256-
// color sprites, where each tile actually occupies two consecutive slots;
// 1D mapping lays a sprite's tiles out row-major at its own width, while
// 2D mapping addresses every sprite's tiles as if the whole OBJ character
// area were a fixed 32-tile-wide (in 4bpp-slot units) grid.
func (p *PPU) spriteTexel(e oamEntry, texX, texY, spriteWidthPx int, obj1D bool) uint8 {
	const charBase = 0x10000 // OBJ character data starts at 0x06010000 (VRAM+0x10000)
	tileCol, tileRow := texX/8, texY/8
	px, py := texX%8, texY%8
	slotsPerTile := 1
	if e.is256 {
		slotsPerTile = 2
	}

	var slot int
	if obj1D {
		tilesWide := spriteWidthPx / 8
		slot = e.tileNum + (tileRow*tilesWide+tileCol)*slotsPerTile
	} else {
		const gridStrideSlots = 32
		slot = e.tileNum + tileRow*gridStrideSlots + tileCol*slotsPerTile
	}

	base := charBase + slot*32
	if e.is256 {
		addr := base + py*8 + px
		if addr >= len(p.vram) {
			return 0
		}
		return p.vram[addr]
	}

	addr := base + py*4 + px/2
	if addr >= len(p.vram) {
		return 0
	}
	b := p.vram[addr]
	if px%2 == 0 {
		return b & 0x0F
	}
	return b >> 4
}
