package video

// rgb555ToRGBA8888 expands a GBA BGR555 palette entry (bit 15 unused) into
// a standard RGBA8888 color, replicating the top bits into the low bits so
// that 0x1F maps to 0xFF rather than 0xF8, matching how real GBA hardware
// output is commonly reproduced rather than leaving a visible banding step.
func rgb555ToRGBA8888(c uint16) uint32 {
	r := uint32(c & 0x1F)
	g := uint32((c >> 5) & 0x1F)
	b := uint32((c >> 10) & 0x1F)

	r = (r << 3) | (r >> 2)
	g = (g << 3) | (g >> 2)
	b = (b << 3) | (b >> 2)

	return 0xFF000000 | (b << 16) | (g << 8) | r
}
