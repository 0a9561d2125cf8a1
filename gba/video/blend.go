package video

const (
	blendNone = iota
	blendAlpha
	blendIncrease
	blendDecrease

	backdropBit = 1 << 5
)

// applyBlend resolves the color effect (if any) selected by BLDCNT for
// the top-most visible pixel against whatever is directly beneath it,
// falling back to the backdrop as an implicit target2 when nothing else
// is visible underneath.
func (p *PPU) applyBlend(top, second layerPixel, hasSecond bool, backdrop uint32) uint32 {
	if top.isObj && top.semiTransparent {
		// A semi-transparent sprite always alpha-blends against whatever
		// is beneath it, independent of BLDCNT's own mode selection, as
		// long as that layer is a valid blend target.
		bottomBit := second.layerBit
		bottomColor := second.color
		if !hasSecond {
			bottomBit = backdropBit
			bottomColor = backdrop
		}
		target2 := uint16(p.regs.BLDCNT.Value>>8) & 0x3F
		if uint16(bottomBit)&target2 != 0 {
			return alphaBlend(top.color, bottomColor, p.regs.BLDALPHA.Value)
		}
		return top.color
	}

	mode := (p.regs.BLDCNT.Value >> 6) & 0x3
	target1 := p.regs.BLDCNT.Value & 0x3F
	if uint16(top.layerBit)&target1 == 0 || mode == blendNone {
		return top.color
	}

	switch mode {
	case blendAlpha:
		bottomBit := second.layerBit
		bottomColor := second.color
		if !hasSecond {
			bottomBit = backdropBit
			bottomColor = backdrop
		}
		target2 := (p.regs.BLDCNT.Value >> 8) & 0x3F
		if uint16(bottomBit)&target2 == 0 {
			return top.color
		}
		return alphaBlend(top.color, bottomColor, p.regs.BLDALPHA.Value)
	case blendIncrease:
		return brightnessBlend(top.color, p.regs.BLDY.Value, true)
	case blendDecrease:
		return brightnessBlend(top.color, p.regs.BLDY.Value, false)
	default:
		return top.color
	}
}

func channel(c uint32, shift uint) uint32 { return (c >> shift) & 0xFF }

// channel5 recovers the original 5-bit RGB555 channel value from an
// 8-bit-expanded RGBA8888 channel: rgb555ToRGBA8888 expands v via
// (v<<3)|(v>>2), which leaves v itself sitting in the top 5 bits of the
// result untouched, so >>3 is an exact inverse.
func channel5(c uint32, shift uint) int32 { return int32(channel(c, shift) >> 3) }

// expand5 clamps a 0-31 channel value and expands it back to 8 bits the
// same way rgb555ToRGBA8888 does, keeping every blended pixel consistent
// with the rest of the pipeline's color depth.
func expand5(v int32) uint32 {
	if v < 0 {
		v = 0
	}
	if v > 31 {
		v = 31
	}
	u := uint32(v)
	return (u << 3) | (u >> 2)
}

// alphaBlend and brightnessBlend operate on the native 5-bit RGB555
// channels the GBA's blend unit actually works in, not on the 8-bit
// values those channels were expanded to for the framebuffer: the wider
// values would round differently under the hardware's >>4 shift.
func alphaBlend(top, bottom uint32, bldalpha uint16) uint32 {
	eva := int32(bldalpha & 0x1F)
	evb := int32((bldalpha >> 8) & 0x1F)
	if eva > 16 {
		eva = 16
	}
	if evb > 16 {
		evb = 16
	}

	mix := func(shift uint) uint32 {
		t := channel5(top, shift)
		b := channel5(bottom, shift)
		v := (t*eva + b*evb) >> 4
		return expand5(v) << shift
	}

	return 0xFF000000 | mix(16) | mix(8) | mix(0)
}

func brightnessBlend(c uint32, bldy uint16, increase bool) uint32 {
	evy := int32(bldy & 0x1F)
	if evy > 16 {
		evy = 16
	}

	mix := func(shift uint) uint32 {
		v := channel5(c, shift)
		if increase {
			v += ((31 - v) * evy) >> 4
		} else {
			v -= (v * evy) >> 4
		}
		return expand5(v) << shift
	}

	return 0xFF000000 | mix(16) | mix(8) | mix(0)
}
