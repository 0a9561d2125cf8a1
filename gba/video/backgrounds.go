package video

// textScreenSizeTiles is (widthInTiles, heightInTiles) for each of the 4 text
// background size codes.
var textScreenSizeTiles = [4][2]int{
	{32, 32}, {64, 32}, {32, 64}, {64, 64},
}

// affineMapTilesPerSide is the tile-per-side count for each of the 4
// affine background size codes (always square).
var affineMapTilesPerSide = [4]int{16, 32, 64, 128}

func (p *PPU) textBGPixel(bg, screenX, screenY int) (uint32, bool) {
	sizeTiles := textScreenSizeTiles[p.regs.bgSize(bg)]
	mapWidthPx := sizeTiles[0] * 8
	mapHeightPx := sizeTiles[1] * 8

	worldX := (screenX + int(p.regs.BGHOFS[bg].Value)) % mapWidthPx
	worldY := (screenY + int(p.regs.BGVOFS[bg].Value)) % mapHeightPx
	if worldX < 0 {
		worldX += mapWidthPx
	}
	if worldY < 0 {
		worldY += mapHeightPx
	}

	tileX, tileY := worldX/8, worldY/8
	localX, localY := tileX, tileY
	screenBlock := 0
	switch p.regs.bgSize(bg) {
	case 1:
		if tileX >= 32 {
			screenBlock = 1
			localX -= 32
		}
	case 2:
		if tileY >= 32 {
			screenBlock = 1
			localY -= 32
		}
	case 3:
		if tileX >= 32 {
			screenBlock += 1
			localX -= 32
		}
		if tileY >= 32 {
			screenBlock += 2
			localY -= 32
		}
	}

	entryAddr := int(p.regs.bgScreenBase(bg)) + screenBlock*0x800 + (localY*32+localX)*2
	entry := uint16(p.vram[entryAddr]) | uint16(p.vram[entryAddr+1])<<8

	tileNum := entry & 0x03FF
	hflip := entry&0x0400 != 0
	vflip := entry&0x0800 != 0
	palBank := uint8(entry >> 12)

	px, py := worldX%8, worldY%8
	if hflip {
		px = 7 - px
	}
	if vflip {
		py = 7 - py
	}

	is256 := p.regs.bg256Color(bg)
	charBase := int(p.regs.bgCharBase(bg))

	var index uint8
	if is256 {
		tileAddr := charBase + int(tileNum)*64
		index = p.vram[tileAddr+py*8+px]
	} else {
		tileAddr := charBase + int(tileNum)*32
		b := p.vram[tileAddr+py*4+px/2]
		if px%2 == 0 {
			index = b & 0x0F
		} else {
			index = b >> 4
		}
	}

	if index == 0 {
		return 0, false
	}
	color := p.paletteEntry(false, palBank, index, is256)
	return rgb555ToRGBA8888(color), true
}

func (p *PPU) affineBGPixel(bg, screenX, y int) (uint32, bool) {
	var refX, refY int32
	var pa, pc int16
	var sizeCode int
	if bg == 2 {
		refX, refY = p.bg2RefX, p.bg2RefY
		pa, pc = int16(p.regs.BG2PA.Value), int16(p.regs.BG2PC.Value)
		sizeCode = p.regs.bgSize(2)
	} else {
		refX, refY = p.bg3RefX, p.bg3RefY
		pa, pc = int16(p.regs.BG3PA.Value), int16(p.regs.BG3PC.Value)
		sizeCode = p.regs.bgSize(3)
	}

	texX := (refX + int32(screenX)*int32(pa)) >> 8
	texY := (refY + int32(screenX)*int32(pc)) >> 8

	tilesPerSide := affineMapTilesPerSide[sizeCode]
	mapPx := tilesPerSide * 8

	if texX < 0 || texY < 0 || texX >= int32(mapPx) || texY >= int32(mapPx) {
		if !p.regs.bgWraps(bg) {
			return 0, false
		}
		texX = ((texX % int32(mapPx)) + int32(mapPx)) % int32(mapPx)
		texY = ((texY % int32(mapPx)) + int32(mapPx)) % int32(mapPx)
	}

	tileX, tileY := int(texX)/8, int(texY)/8
	screenBase := int(p.regs.bgScreenBase(bg))
	tileEntryAddr := screenBase + tileY*tilesPerSide + tileX
	tileNum := p.vram[tileEntryAddr]

	px, py := int(texX)%8, int(texY)%8
	charBase := int(p.regs.bgCharBase(bg))
	tileAddr := charBase + int(tileNum)*64
	index := p.vram[tileAddr+py*8+px]

	if index == 0 {
		return 0, false
	}
	color := p.paletteEntry(false, 0, index, true)
	return rgb555ToRGBA8888(color), true
}
