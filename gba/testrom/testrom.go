// Package testrom is ambient test tooling shared by the higher-level
// packages' test suites: golden-frame comparison for PPU output and a
// small parallel-fan-out helper for running a batch of scripted cases.
// It does not itself decode ARM/THUMB: RunFramesHeadless drives the
// scheduler directly, which is enough to exercise the PPU/DMA/IRQ
// timing without a CPU decoder attached.
package testrom

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"gbacore/gba"
)

var UpdateGolden = flag.Bool("update", false, "update golden frame files")

// RunFramesHeadless advances sys by n frames using only the scheduler's
// cycle cursor, bypassing the CPU frontend entirely. It's meant for
// tests that only care about PPU/DMA/IRQ behavior and haven't attached
// a Decoder.
func RunFramesHeadless(sys *gba.System, n int) {
	const cyclesPerFrame = 228 * 308 * 4
	for i := 0; i < n; i++ {
		sys.Sched.AddCycles(cyclesPerFrame)
	}
}

// FramebufferToImage packs a PPU framebuffer (RGBA8888, row-major,
// gba/video.ScreenWidth x gba/video.ScreenHeight) into an image.RGBA.
func FramebufferToImage(buf []uint32, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, px := range buf {
		r := uint8(px)
		g := uint8(px >> 8)
		b := uint8(px >> 16)
		a := uint8(px >> 24)
		img.SetRGBA(i%width, i/width, color.RGBA{R: r, G: g, B: b, A: a})
	}
	return img
}

// CompareFrameGolden encodes got as a PNG and compares it byte-for-byte
// against testdata/<name>.golden.png, or writes the golden file when
// -update is passed.
func CompareFrameGolden(t *testing.T, got *image.RGBA, name string) {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, got); err != nil {
		t.Fatalf("encoding frame: %v", err)
	}

	goldenPath := filepath.Join("testdata", name+".golden.png")
	if *UpdateGolden {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatalf("creating testdata dir: %v", err)
		}
		if err := os.WriteFile(goldenPath, buf.Bytes(), 0o644); err != nil {
			t.Fatalf("writing golden file: %v", err)
		}
		return
	}

	want, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("reading golden file %s (run with -update to create it): %v", goldenPath, err)
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("frame %s does not match golden image", name)
	}
}

// RunParallel runs fn once per name concurrently, capped at the number
// of CPUs, and fails t with every error it collects rather than
// stopping at the first one.
func RunParallel(t *testing.T, names []string, fn func(name string) error) {
	t.Helper()

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	var mu sync.Mutex
	var errs []error
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := fn(name); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	if err := errors.Join(errs...); err != nil {
		t.Fatal(err)
	}
}
