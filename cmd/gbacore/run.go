package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"gbacore/gba"
	"gbacore/gba/testrom"
	"gbacore/gba/video"
)

// runMain runs a ROM headlessly, without a CPU decoder: the ARM7TDMI
// instruction set is out of this core's scope, so the PPU/DMA/IRQ
// timing is driven directly off the scheduler instead of by real code
// execution. This is enough to observe forced-blank/background register
// pokes made before Run, and is the harness cmd/gbacore offers in place
// of the SDL/OpenGL frontend that isn't part of this core.
func runMain(args Run) {
	sys := gba.New()

	if args.Bios != "" {
		status, err := sys.LoadBIOS(args.Bios)
		checkf(err, "failed to load bios")
		if status != gba.Ok {
			fatalf("bios load failed: %s", status)
		}
	}

	savePath := args.RomPath + ".sav"
	status, err := sys.LoadGame(args.RomPath, savePath)
	checkf(err, "failed to load rom")
	if status != gba.Ok {
		fatalf("rom load failed: %s", status)
	}

	sys.Reset()

	if err := os.MkdirAll(args.DumpDir, 0o755); err != nil {
		fatalf("creating dump directory: %s", err)
	}

	every := args.Every
	if every < 1 {
		every = 1
	}

	for i := 0; i < args.Frames; i++ {
		testrom.RunFramesHeadless(sys, 1)
		if i%every != 0 {
			continue
		}
		img := testrom.FramebufferToImage(sys.PPU.Framebuffer(), video.ScreenWidth, video.ScreenHeight)
		path := filepath.Join(args.DumpDir, fmt.Sprintf("frame-%04d.png", i))
		f, err := os.Create(path)
		checkf(err, "creating frame file")
		checkf(png.Encode(f, img), "encoding frame")
		checkf(f.Close(), "closing frame file")
	}

	checkf(sys.FlushBackup(), "flushing backup save")
}
