package cpu

import (
	"testing"

	"gbacore/gba/dma"
	"gbacore/gba/irq"
	"gbacore/gba/sched"
)

type nopBus struct{}

func (nopBus) Read16(uint32, bool) (uint16, uint32) { return 0, 1 }
func (nopBus) Write16(uint32, uint16, bool) uint32  { return 1 }
func (nopBus) Read32(uint32, bool) (uint32, uint32) { return 0, 1 }
func (nopBus) Write32(uint32, uint32, bool) uint32  { return 1 }
func (nopBus) FlushPrefetch()                       {}

type fakeDecoder struct {
	steps     int
	irqEntries int
}

func (d *fakeDecoder) Step() uint32 {
	d.steps++
	return 1
}

func (d *fakeDecoder) EnterIRQ() { d.irqEntries++ }

func TestStepAdvancesSchedulerByDecoderCycles(t *testing.T) {
	s := sched.New()
	dec := &fakeDecoder{}
	f := New(irq.New(), dma.New(nopBus{}), s, dec)

	f.Step()
	if s.Now() != 1 {
		t.Fatalf("scheduler now = %d, want 1", s.Now())
	}
	if dec.steps != 1 {
		t.Fatalf("decoder steps = %d, want 1", dec.steps)
	}
}

func TestHaltedCPUIdlesUntilIRQ(t *testing.T) {
	s := sched.New()
	irqc := irq.New()
	dec := &fakeDecoder{}
	f := New(irqc, dma.New(nopBus{}), s, dec)

	f.Halt()
	s.Add(100, func(uint64, any) {}, nil)

	f.Step()
	if dec.steps != 0 {
		t.Fatal("halted CPU should not execute instructions")
	}
	if s.Now() == 0 {
		t.Fatal("expected the scheduler to skip forward while halted")
	}
}

func TestHaltedCPUWakesOnServableIRQ(t *testing.T) {
	s := sched.New()
	irqc := irq.New()
	irqc.IE = uint16(irq.VBlank)
	irqc.IME = true
	dec := &fakeDecoder{}
	f := New(irqc, dma.New(nopBus{}), s, dec)

	f.Halt()
	irqc.Raise(irq.VBlank)

	f.Step()
	if f.Halted() {
		t.Fatal("expected CPU to wake once a servable IRQ is pending")
	}
	if dec.irqEntries != 1 {
		t.Fatalf("decoder EnterIRQ calls = %d, want 1", dec.irqEntries)
	}
}

func TestDMATakesPriorityOverCPU(t *testing.T) {
	s := sched.New()
	irqc := irq.New()
	dmac := dma.New(nopBus{})
	dec := &fakeDecoder{}
	f := New(irqc, dmac, s, dec)

	dmac.WriteControl(0, false, dma.Channel{
		Index: 0, SrcAddr: 0x1000, DstAddr: 0x2000, Count: 1,
		Unit: dma.Unit16, Occ: dma.Immediate, Enabled: true,
	})

	f.Step()
	if dec.steps != 0 {
		t.Fatal("expected DMA to run before any CPU instruction executes")
	}
}
