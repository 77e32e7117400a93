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

import "sort"

// AddrMap is a rank-preserving mapping from observed /32 addresses to
// synthetic /32 addresses. Both sides are ordered by singularity exponent;
// the i-th observed address maps to the floor(i*nt/nf)-th synthetic address,
// which specializes to a bijection when the sets match in size, leaves
// surplus synthetic addresses unmapped when they outnumber the observed set,
// and assigns consecutive observed ranks to each synthetic address when the
// observed set is larger. The assignment is monotone in alpha either way.
//
// The map is built once and read-only afterwards.
type AddrMap struct {
	m map[uint32]uint32
}

// NewAddrMap builds the mapping from an observed and a synthetic address
// list. The inputs are not mutated. Ties in alpha are broken by address so
// the ranking is identical across runs.
func NewAddrMap(observed, synthetic []AddrAlpha) *AddrMap {
	f := sortByAlpha(observed)
	t := sortByAlpha(synthetic)

	am := &AddrMap{m: make(map[uint32]uint32, len(f))}
	nf, nt := len(f), len(t)
	if nf == 0 || nt == 0 {
		return am
	}
	for i := range f {
		j := int(int64(i) * int64(nt) / int64(nf))
		am.m[f[i].Addr] = t[j].Addr
	}
	return am
}

// Get returns the synthetic image of addr. Callers treat an absent entry
// during trace generation as an invariant violation.
func (am *AddrMap) Get(addr uint32) (uint32, bool) {
	img, ok := am.m[addr]
	return img, ok
}

// Len returns the number of mapped observed addresses.
func (am *AddrMap) Len() int { return len(am.m) }

func sortByAlpha(in []AddrAlpha) []AddrAlpha {
	out := make([]AddrAlpha, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Alpha != out[j].Alpha {
			return out[i].Alpha < out[j].Alpha
		}
		return out[i].Addr < out[j].Addr
	})
	return out
}
