package testrom

import (
	"sync/atomic"
	"testing"

	"gbacore/gba"
)

func TestRunFramesHeadlessAdvancesScheduler(t *testing.T) {
	sys := gba.New()
	sys.PPU.Start()

	RunFramesHeadless(sys, 3)

	const cyclesPerFrame = 228 * 308 * 4
	if sys.Sched.Now() != 3*cyclesPerFrame {
		t.Fatalf("scheduler now = %d, want %d", sys.Sched.Now(), 3*cyclesPerFrame)
	}
}

func TestRunParallelRunsEveryCase(t *testing.T) {
	names := []string{"a", "b", "c"}
	var ran atomic.Int64
	RunParallel(t, names, func(name string) error {
		ran.Add(1)
		return nil
	})
	if int(ran.Load()) != len(names) {
		t.Fatalf("ran %d cases, want %d", ran.Load(), len(names))
	}
}
