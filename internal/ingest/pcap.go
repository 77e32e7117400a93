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

// Package ingest turns pcap byte streams into the (FlowKey, Packet) tuples
// the core consumes. Link-layer, IPv4 and TCP/UDP headers are decoded with
// gopacket; multi-byte fields are converted to host byte order here so the
// core never sees wire formats. Non-IPv4 packets are skipped.
package ingest

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"tracesynth"
	"tracesynth/timing"
)

// Source reads packets from a pcap stream one at a time.
type Source struct {
	r *pcapgo.Reader
}

// NewSource wraps a pcap stream. The global header is read eagerly so a
// malformed file fails here rather than on the first packet.
func NewSource(r io.Reader) (*Source, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: read pcap header: %w", err)
	}
	return &Source{r: pr}, nil
}

// Next returns the next IPv4 packet as a (FlowKey, Packet) tuple, skipping
// anything the trace model does not cover. io.EOF signals a clean end of
// stream.
func (s *Source) Next() (tracesynth.FlowKey, tracesynth.Packet, error) {
	for {
		data, ci, err := s.r.ReadPacketData()
		if err != nil {
			return tracesynth.FlowKey{}, tracesynth.Packet{}, err
		}
		key, pkt, ok := decode(data, s.r.LinkType(), float64(ci.Timestamp.UnixNano())/1e9)
		if ok {
			return key, pkt, nil
		}
	}
}

// Load feeds every IPv4 packet of the stream into the analyzer and returns
// the number ingested.
func Load(r io.Reader, an *timing.Analyzer) (int, error) {
	src, err := NewSource(r)
	if err != nil {
		return 0, err
	}
	n := 0
	for {
		key, pkt, err := src.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("ingest: packet %d: %w", n+1, err)
		}
		an.Add(key, pkt)
		n++
	}
}

func decode(data []byte, link layers.LinkType, ts float64) (tracesynth.FlowKey, tracesynth.Packet, bool) {
	p := gopacket.NewPacket(data, link, gopacket.Lazy)
	ip4Layer := p.Layer(layers.LayerTypeIPv4)
	if ip4Layer == nil {
		return tracesynth.FlowKey{}, tracesynth.Packet{}, false
	}
	ip4 := ip4Layer.(*layers.IPv4)

	key := tracesynth.FlowKey{
		SAddr: binary.BigEndian.Uint32(ip4.SrcIP.To4()),
		DAddr: binary.BigEndian.Uint32(ip4.DstIP.To4()),
	}
	pkt := tracesynth.Packet{
		Time:  ts,
		Proto: uint8(ip4.Protocol),
		Len:   ip4.Length,
	}

	switch l4 := p.TransportLayer().(type) {
	case *layers.TCP:
		pkt.SPort = uint16(l4.SrcPort)
		pkt.DPort = uint16(l4.DstPort)
		pkt.TCPFlags = tcpFlagBits(l4)
	case *layers.UDP:
		pkt.SPort = uint16(l4.SrcPort)
		pkt.DPort = uint16(l4.DstPort)
	}
	return key, pkt, true
}

func tcpFlagBits(t *layers.TCP) uint8 {
	var f uint8
	if t.FIN {
		f |= 0x01
	}
	if t.SYN {
		f |= 0x02
	}
	if t.RST {
		f |= 0x04
	}
	if t.PSH {
		f |= 0x08
	}
	if t.ACK {
		f |= 0x10
	}
	if t.URG {
		f |= 0x20
	}
	if t.ECE {
		f |= 0x40
	}
	if t.CWR {
		f |= 0x80
	}
	return f
}
