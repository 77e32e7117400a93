// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package synth combines the address cascade and the on/off burst process
// into a trace generator: for every observed flow it synthesizes a burst
// schedule with the flow's exact packet budget, remaps the flow's addresses
// through rank-preserving cascade maps, and emits the packets of all flows
// in global timestamp order through a two-level heap scheduler.
package synth

import (
	"container/heap"
	"fmt"
	"math/rand"

	"tracesynth"
	"tracesynth/addrspace"
	"tracesynth/timing"
)

// Generator owns the synthetic burst schedules and the two scheduler heaps.
// The analyzer it was built from is borrowed read-only; observed packets are
// value-copied into the synthetic bursts.
//
// The generator is single-threaded: the caller pulls NextPacket until it
// reports no more packets. Output is deterministic given the PRNG seed, the
// parameters, and the analyzer's ingest order.
type Generator struct {
	srcMap *addrspace.AddrMap
	dstMap *addrspace.AddrMap

	pending pendingQueue // not yet activated, by burst start time
	active  activeQueue  // currently emitting, by next packet time

	burstSizes []int // packet allotment per scheduled burst, for reporting
}

// scheduledBurst is one synthetic burst staged for emission.
type scheduledBurst struct {
	key     tracesynth.FlowKey
	start   float64
	packets []tracesynth.Packet
	cursor  int
}

func (b *scheduledBurst) nextTime() float64 { return b.packets[b.cursor].Time }

// NewGenerator fits the address side of the observed flows, runs the source
// and destination cascades at the target spreads, builds both address maps,
// and stages a synthetic burst schedule for every observed flow.
//
// Missing address-map entries and empty observed flows are invariant
// violations and panic; they indicate construction-time contract breakage
// that cannot be repaired at emission time.
func NewGenerator(an *timing.Analyzer, tp tracesynth.TimeParameters, ap tracesynth.AddrParameters, rng *rand.Rand) *Generator {
	srcTree, dstTree := addrspace.NewPrefixTree(), addrspace.NewPrefixTree()
	for _, key := range an.Keys() {
		srcTree.Add(key.SAddr, 1.0)
		dstTree.Add(key.DAddr, 1.0)
	}
	srcMap := buildMap(srcTree, ap.SrcSigma, rng)
	dstMap := buildMap(dstTree, ap.DstSigma, rng)

	g := &Generator{srcMap: srcMap, dstMap: dstMap}
	bg := timing.NewBurstGenerator(tp, rng)

	for _, key := range an.Keys() {
		flow := an.Bursts(key)
		total := 0
		for _, b := range flow {
			total += len(b.Packets)
		}
		if total == 0 {
			panic(fmt.Sprintf("synth: observed flow %v has no packets", key))
		}

		sAddr, ok := srcMap.Get(key.SAddr)
		if !ok {
			panic(fmt.Sprintf("synth: source address %#08x has no cascade image", key.SAddr))
		}
		dAddr, ok := dstMap.Get(key.DAddr)
		if !ok {
			panic(fmt.Sprintf("synth: destination address %#08x has no cascade image", key.DAddr))
		}
		newKey := tracesynth.FlowKey{SAddr: sAddr, DAddr: dAddr}

		cursor := flowCursor{bursts: flow}
		for _, sb := range bg.Next(total) {
			packets := make([]tracesynth.Packet, sb.Pkts)
			step := (sb.End - sb.Start) / float64(sb.Pkts)
			for i := range packets {
				packets[i] = cursor.next()
				packets[i].Time = sb.Start + float64(i)*step
			}
			g.pending = append(g.pending, &scheduledBurst{key: newKey, start: sb.Start, packets: packets})
			g.burstSizes = append(g.burstSizes, sb.Pkts)
		}
	}

	heap.Init(&g.pending)
	return g
}

func buildMap(tree *addrspace.PrefixTree, sigma float64, rng *rand.Rand) *addrspace.AddrMap {
	tree.Prefixify()
	addrs := tree.Addrs()
	observed := make([]addrspace.AddrAlpha, len(addrs))
	for i, addr := range addrs {
		observed[i] = addrspace.AddrAlpha{Addr: addr, Alpha: tree.Singularity(addr)}
	}
	synthetic := addrspace.NewCascadeGenerator(sigma, rng).Generate(tree.N())
	return addrspace.NewAddrMap(observed, synthetic)
}

// flowCursor walks a flow's observed packets in burst order, wrapping back
// to the first burst when the flow is exhausted.
type flowCursor struct {
	bursts   []*tracesynth.Burst
	burstIdx int
	pktIdx   int
}

func (c *flowCursor) next() tracesynth.Packet {
	pkt := c.bursts[c.burstIdx].Packets[c.pktIdx]
	c.pktIdx++
	if c.pktIdx == len(c.bursts[c.burstIdx].Packets) {
		c.pktIdx = 0
		c.burstIdx = (c.burstIdx + 1) % len(c.bursts)
	}
	return pkt
}

// SrcMap returns the observed-to-synthetic source address map.
func (g *Generator) SrcMap() *addrspace.AddrMap { return g.srcMap }

// DstMap returns the observed-to-synthetic destination address map.
func (g *Generator) DstMap() *addrspace.AddrMap { return g.dstMap }

// BurstSizes returns the packet allotment of every scheduled burst, in
// staging order. The slice is shared; callers must not mutate it.
func (g *Generator) BurstSizes() []int { return g.burstSizes }

// NextPacket returns the globally earliest unemitted packet with its flow
// key, or ok=false once both heaps are drained. At every step the smaller of
// the next-to-activate burst's start time and the earliest active burst's
// next packet time is chosen, so emitted timestamps never decrease.
func (g *Generator) NextPacket() (tracesynth.FlowKey, tracesynth.Packet, bool) {
	var b *scheduledBurst
	switch {
	case len(g.pending) == 0 && len(g.active) == 0:
		return tracesynth.FlowKey{}, tracesynth.Packet{}, false
	case len(g.active) == 0:
		b = heap.Pop(&g.pending).(*scheduledBurst)
	case len(g.pending) == 0:
		b = heap.Pop(&g.active).(*scheduledBurst)
	case g.pending[0].start <= g.active[0].nextTime():
		b = heap.Pop(&g.pending).(*scheduledBurst)
	default:
		b = heap.Pop(&g.active).(*scheduledBurst)
	}

	pkt := b.packets[b.cursor]
	b.cursor++
	if b.cursor < len(b.packets) {
		heap.Push(&g.active, b)
	}
	return b.key, pkt, true
}

// pendingQueue orders staged bursts by start time.
type pendingQueue []*scheduledBurst

func (q pendingQueue) Len() int            { return len(q) }
func (q pendingQueue) Less(i, j int) bool  { return q[i].start < q[j].start }
func (q pendingQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pendingQueue) Push(x interface{}) { *q = append(*q, x.(*scheduledBurst)) }
func (q *pendingQueue) Pop() interface{} {
	old := *q
	n := len(old)
	b := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return b
}

// activeQueue orders emitting bursts by the time of their next packet.
type activeQueue []*scheduledBurst

func (q activeQueue) Len() int            { return len(q) }
func (q activeQueue) Less(i, j int) bool  { return q[i].nextTime() < q[j].nextTime() }
func (q activeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *activeQueue) Push(x interface{}) { *q = append(*q, x.(*scheduledBurst)) }
func (q *activeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	b := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return b
}
