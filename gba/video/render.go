package video

// renderScanline computes one full 240-pixel row of the framebuffer for
// the current display mode, compositing backgrounds, sprites, windows and
// blend effects. Called once per scanline from the HBlank-start handler,
// after everything visible on that scanline has already been fetched by
// real hardware in the preceding HDraw period; this core does not model
// the pixel pipeline at dot granularity, only its scanline-resolution
// output.
func (p *PPU) renderScanline(y int) {
	row := p.framebuffer[y*ScreenWidth : y*ScreenWidth+ScreenWidth]

	if p.regs.forceBlank() {
		for x := range row {
			row[x] = 0xFFFFFFFF
		}
		return
	}

	backdrop := rgb555ToRGBA8888(p.readPRAM16(0))

	sprites := p.scanSprites(y)

	for x := 0; x < ScreenWidth; x++ {
		win := p.windowAt(x, y, sprites[x].inWinObj)
		row[x] = p.compositePixel(x, y, win, sprites, backdrop)
	}
}

// windowFlags is which layers are enabled by the window(s) covering pixel
// (x, y); when no window is active every layer and every effect are
// enabled, matching hardware's behavior with windows turned off.
type windowFlags struct {
	bg      [4]bool
	obj     bool
	effects bool
}

func allEnabledWindow() windowFlags {
	return windowFlags{bg: [4]bool{true, true, true, true}, obj: true, effects: true}
}

func decodeWinFlags(v uint8) windowFlags {
	return windowFlags{
		bg:      [4]bool{v&1 != 0, v&2 != 0, v&4 != 0, v&8 != 0},
		obj:     v&0x10 != 0,
		effects: v&0x20 != 0,
	}
}

// windowAt resolves which window covers pixel (x, y), in priority order
// WIN0 > WIN1 > OBJ window > WINOUT. inWinObj reports whether a sprite
// with objMode==2 (window sprite) covers this pixel, as scanned by
// scanSprites; the OBJ window's own enable/flag bits live in WINOUT's
// upper byte, not WININ, per the GBATEK layout.
func (p *PPU) windowAt(x, y int, inWinObj bool) windowFlags {
	if !p.regs.anyWindow() {
		return allEnabledWindow()
	}

	if p.regs.win0Enabled() && p.insideWindow(p.regs.WIN0H.Value, p.regs.WIN0V.Value, x, y) {
		return decodeWinFlags(uint8(p.regs.WININ.Value))
	}
	if p.regs.win1Enabled() && p.insideWindow(p.regs.WIN1H.Value, p.regs.WIN1V.Value, x, y) {
		return decodeWinFlags(uint8(p.regs.WININ.Value >> 8))
	}
	if p.regs.winObjEnabled() && inWinObj {
		return decodeWinFlags(uint8(p.regs.WINOUT.Value >> 8))
	}
	return decodeWinFlags(uint8(p.regs.WINOUT.Value))
}

func (p *PPU) insideWindow(h, v uint16, x, y int) bool {
	x1, x2 := int(h>>8), int(h&0xFF)
	y1, y2 := int(v>>8), int(v&0xFF)
	if x2 > ScreenWidth || x2 <= x1 {
		x2 = ScreenWidth
	}
	if y2 > ScreenHeight || y2 <= y1 {
		y2 = ScreenHeight
	}
	return x >= x1 && x < x2 && y >= y1 && y < y2
}

// layerPixel is one candidate contributor to a screen pixel: a background
// layer or the sprite layer.
type layerPixel struct {
	valid           bool
	priority        int
	color           uint32
	isObj           bool
	semiTransparent bool
	layerBit        uint8 // BLDCNT target-select bit for this layer
}

func (p *PPU) compositePixel(x, y int, win windowFlags, sprites []spriteScanPixel, backdrop uint32) uint32 {
	var candidates [5]layerPixel // bg0-3 + obj
	n := 0

	mode := p.regs.mode()
	for bg := 0; bg < 4; bg++ {
		if !p.regs.bgEnabled(bg) || !win.bg[bg] {
			continue
		}
		if !bgVisibleInMode(mode, bg) {
			continue
		}
		col, opaque := p.bgPixel(mode, bg, x, y)
		if opaque {
			candidates[n] = layerPixel{valid: true, priority: p.regs.bgPriority(bg), color: col, layerBit: 1 << uint(bg)}
			n++
		}
	}

	if p.regs.objEnabled() && win.obj {
		sp := sprites[x]
		if sp.opaque {
			candidates[n] = layerPixel{valid: true, priority: sp.priority, color: sp.color, isObj: true, semiTransparent: sp.semiTransparent, layerBit: 1 << 4}
			n++
		}
	}

	if n == 0 {
		return backdrop
	}

	top, second, hasSecond := pickTopTwo(candidates[:n])
	if win.effects {
		return p.applyBlend(top, second, hasSecond, backdrop)
	}
	return top.color
}

// pickTopTwo returns the highest and second-highest priority (lowest
// numeric value wins) candidates. Object layer wins ties against a
// background of equal priority, matching hardware sprite-over-background
// tie-breaking.
func pickTopTwo(c []layerPixel) (top, second layerPixel, hasSecond bool) {
	top.priority = 99
	second.priority = 99
	for _, cand := range c {
		if betterThan(cand, top) {
			second = top
			hasSecond = top.valid
			top = cand
		} else if betterThan(cand, second) {
			second = cand
			hasSecond = true
		}
	}
	return
}

func betterThan(a, b layerPixel) bool {
	if !a.valid {
		return false
	}
	if !b.valid {
		return true
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.isObj && !b.isObj
}

func bgVisibleInMode(mode, bg int) bool {
	switch mode {
	case 0:
		return true
	case 1:
		return bg <= 2
	case 2:
		return bg >= 2
	case 3, 4, 5:
		return bg == 2
	default:
		return false
	}
}

func (p *PPU) readPRAM16(byteOffset int) uint16 {
	return uint16(p.pram[byteOffset]) | uint16(p.pram[byteOffset+1])<<8
}

func (p *PPU) paletteEntry(obj bool, bank, index uint8, is256 bool) uint16 {
	base := 0
	if obj {
		base = 0x200
	}
	if is256 {
		return p.readPRAM16(base + int(index)*2)
	}
	return p.readPRAM16(base + (int(bank)*16+int(index))*2)
}

// bgPixel dispatches to the text, affine or bitmap renderer for bg
// depending on the current display mode, returning the resolved
// RGBA color and whether the pixel is opaque (palette index != 0).
// When bg has mosaic enabled, the sampled position is snapped back to
// the top-left of its mosaic block, holding one block's worth of
// source pixels across every screen pixel in that block.
func (p *PPU) bgPixel(mode, bg, x, y int) (uint32, bool) {
	if p.regs.bgMosaicEnabled(bg) {
		x -= x % p.regs.bgMosaicSizeX()
		y -= p.bgMosaicCounterY
	}
	switch {
	case mode == 3 && bg == 2:
		return p.bitmapMode3Pixel(x, y)
	case mode == 4 && bg == 2:
		return p.bitmapMode4Pixel(x, y)
	case mode == 5 && bg == 2:
		return p.bitmapMode5Pixel(x, y)
	case (mode == 1 && bg == 2) || (mode == 2 && (bg == 2 || bg == 3)):
		return p.affineBGPixel(bg, x, y)
	default:
		return p.textBGPixel(bg, x, y)
	}
}
