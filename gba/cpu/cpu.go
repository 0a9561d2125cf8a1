// Package cpu is the bus-glue frontend that drives the scheduler forward
// one unit of work at a time: an ARM7TDMI instruction, a DMA transfer
// unit, or an idle skip while halted. It deliberately does not decode or
// execute ARM/THUMB instructions itself: Decoder is an external
// collaborator, exactly as the instruction set architecture is out of
// scope for this core.
package cpu

import (
	"gbacore/gba/dma"
	"gbacore/gba/irq"
	"gbacore/gba/log"
	"gbacore/gba/sched"
)

// Decoder executes ARM7TDMI instructions against whatever bus it was
// constructed with. The frontend only needs to know how many cycles one
// instruction took and how to force entry into the IRQ exception.
type Decoder interface {
	Step() uint32
	EnterIRQ()
}

// Frontend interleaves the CPU, the DMA engine and halt-mode idle skips,
// keeping the scheduler's cycle cursor advancing by exactly the amount of
// real work performed at each step.
type Frontend struct {
	IRQ     *irq.Controller
	DMA     *dma.Controller
	Sched   *sched.Scheduler
	Decoder Decoder

	halted bool
}

func New(irqc *irq.Controller, dmac *dma.Controller, s *sched.Scheduler, dec Decoder) *Frontend {
	return &Frontend{IRQ: irqc, DMA: dmac, Sched: s, Decoder: dec}
}

// Halt puts the CPU to sleep until a servable IRQ arrives; called by the
// decoder when it executes the HALT/Halt-mode instruction.
func (f *Frontend) Halt() {
	f.halted = true
	log.ModCPU.DebugZ("cpu halted").End()
}

func (f *Frontend) Halted() bool { return f.halted }

// Step performs exactly one unit of forward progress and returns how many
// cycles it consumed. DMA always takes priority over CPU execution, since
// on real hardware DMA transfers steal bus cycles the CPU would otherwise
// be using.
func (f *Frontend) Step() uint32 {
	if f.DMA.HasPending() {
		cycles := f.DMA.Step()
		f.Sched.AddCycles(uint64(cycles))
		return cycles
	}

	if f.halted {
		if f.IRQ.HasServableIRQ() {
			f.halted = false
			log.ModCPU.DebugZ("cpu woken by irq").End()
		} else {
			idle := f.Sched.GetRemainingCycleCount()
			if idle == 0 {
				idle = 1
			}
			f.Sched.AddCycles(idle)
			return uint32(idle)
		}
	}

	if f.IRQ.HasServableIRQ() {
		f.Decoder.EnterIRQ()
	}

	cycles := f.Decoder.Step()
	f.Sched.AddCycles(uint64(cycles))
	return cycles
}

// Run steps the frontend until at least minCycles have elapsed on the
// scheduler, returning the actual number of cycles consumed (always >=
// minCycles since Step never partially executes a unit of work).
func (f *Frontend) Run(minCycles uint64) uint64 {
	var total uint64
	for total < minCycles {
		total += uint64(f.Step())
	}
	return total
}
