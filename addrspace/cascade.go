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

package addrspace

import (
	"fmt"
	"math"
	"math/rand"

	"tracesynth"
)

// AddrAlpha is a /32 address tagged with its singularity exponent.
type AddrAlpha struct {
	Addr  uint32
	Alpha float64
}

// CascadeGenerator samples synthetic address sets from a symmetric
// logit-normal conservative cascade: at each split of the prefix tree the
// left share is sigmoid(Z) with Z ~ Normal(0, sigma^2), and the remaining
// leaf count is divided between the children accordingly.
//
// The PRNG is borrowed from the caller; two generators built on
// identically-seeded sources produce identical address sets.
type CascadeGenerator struct {
	sigma float64
	rng   *rand.Rand
}

// NewCascadeGenerator returns a generator with the given spread parameter.
func NewCascadeGenerator(sigma float64, rng *rand.Rand) *CascadeGenerator {
	return &CascadeGenerator{sigma: sigma, rng: rng}
}

// Generate samples n distinct /32 addresses, each tagged with the
// singularity exponent accumulated along its cascade path. Leaves are
// emitted in address order (depth-first, left child first).
func (g *CascadeGenerator) Generate(n int) []AddrAlpha {
	out := make([]AddrAlpha, 0, n)
	var sf tracesynth.SlopeFitter
	g.descend(0, 0, n, float64(n), sf, &out)
	return out
}

// descend splits k leaves below the prefix (base, length). The slope fitter
// is passed by value: each branch carries a copy of the state accumulated
// down its own path.
func (g *CascadeGenerator) descend(base uint32, length, k int, total float64, sf tracesynth.SlopeFitter, out *[]AddrAlpha) {
	if k == 0 {
		return
	}
	if length == 32 {
		*out = append(*out, AddrAlpha{Addr: base, Alpha: sf.Fit()})
		return
	}

	z := g.rng.NormFloat64() * g.sigma
	w := 1.0 / (1.0 + math.Exp(-z))
	leftK := int(math.Round(float64(k) * w))
	rightK := k - leftK

	// Each child subtree holds at most 2^(32-length-1) distinct leaves.
	capacity := int64(1) << (31 - length)
	if int64(k) > 2*capacity {
		panic(fmt.Sprintf("addrspace: %d leaves demanded below /%d prefix with capacity %d", k, length, 2*capacity))
	}
	if int64(leftK) > capacity {
		rightK += leftK - int(capacity)
		leftK = int(capacity)
	} else if int64(rightK) > capacity {
		leftK += rightK - int(capacity)
		rightK = int(capacity)
	}

	if k > 1 {
		sf.AddPoint(float64(length), -math.Log2(float64(k)/total))
	}

	childBit := uint32(1) << (31 - length)
	g.descend(base, length+1, leftK, total, sf, out)
	g.descend(base|childBit, length+1, rightK, total, sf, out)
}
