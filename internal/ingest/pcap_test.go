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

package ingest

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"tracesynth"
	"tracesynth/timing"
)

var testMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}

func writePacket(t *testing.T, w *pcapgo.Writer, ts time.Time, netLayer gopacket.SerializableLayer, rest ...gopacket.SerializableLayer) {
	t.Helper()
	eth := &layers.Ethernet{SrcMAC: testMAC, DstMAC: testMAC, EthernetType: layers.EthernetTypeIPv4}
	if _, ok := netLayer.(*layers.ARP); ok {
		eth.EthernetType = layers.EthernetTypeARP
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	all := append([]gopacket.SerializableLayer{eth, netLayer}, rest...)
	if err := gopacket.SerializeLayers(buf, opts, all...); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	data := buf.Bytes()
	ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: len(data), Length: len(data)}
	if err := w.WritePacket(ci, data); err != nil {
		t.Fatalf("write packet: %v", err)
	}
}

// TestLoad_DecodesFlows writes a three-packet pcap in memory — a UDP
// packet, a TCP SYN/ACK, and an ARP frame — and checks the analyzer
// receives exactly the two IPv4 packets with host-byte-order addresses,
// ports, protocol, length and flag bits.
func TestLoad_DecodesFlows(t *testing.T) {
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("write header: %v", err)
	}

	udpIP := &layers.IPv4{
		Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.IPv4(10, 0, 0, 1).To4(), DstIP: net.IPv4(192, 168, 0, 1).To4(),
	}
	udp := &layers.UDP{SrcPort: 2000, DstPort: 53}
	udp.SetNetworkLayerForChecksum(udpIP)
	writePacket(t, w, time.Unix(100, 0), udpIP, udp, gopacket.Payload([]byte("query")))

	tcpIP := &layers.IPv4{
		Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolTCP,
		SrcIP: net.IPv4(10, 0, 0, 2).To4(), DstIP: net.IPv4(192, 168, 0, 1).To4(),
	}
	tcp := &layers.TCP{SrcPort: 44321, DstPort: 80, SYN: true, ACK: true, Window: 1024}
	tcp.SetNetworkLayerForChecksum(tcpIP)
	writePacket(t, w, time.Unix(100, 500000000), tcpIP, tcp)

	arp := &layers.ARP{
		AddrType: layers.LinkTypeEthernet, Protocol: layers.EthernetTypeIPv4,
		HwAddressSize: 6, ProtAddressSize: 4, Operation: layers.ARPRequest,
		SourceHwAddress: testMAC, SourceProtAddress: []byte{10, 0, 0, 1},
		DstHwAddress: make([]byte, 6), DstProtAddress: []byte{10, 0, 0, 254},
	}
	writePacket(t, w, time.Unix(101, 0), arp)

	an := timing.NewAnalyzer(0.01)
	n, err := Load(bytes.NewReader(buf.Bytes()), an)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 2 {
		t.Fatalf("Load ingested %d packets, want 2 (ARP skipped)", n)
	}

	udpKey := tracesynth.FlowKey{SAddr: 0x0a000001, DAddr: 0xc0a80001}
	bursts := an.Bursts(udpKey)
	if len(bursts) != 1 || len(bursts[0].Packets) != 1 {
		t.Fatalf("udp flow bursts = %v, want one single-packet burst", bursts)
	}
	got := bursts[0].Packets[0]
	if got.Time != 100.0 || got.SPort != 2000 || got.DPort != 53 || got.Proto != 17 {
		t.Errorf("udp packet = %+v", got)
	}
	if got.Len == 0 {
		t.Error("udp packet lost its IP total length")
	}

	tcpKey := tracesynth.FlowKey{SAddr: 0x0a000002, DAddr: 0xc0a80001}
	bursts = an.Bursts(tcpKey)
	if len(bursts) != 1 || len(bursts[0].Packets) != 1 {
		t.Fatalf("tcp flow bursts = %v, want one single-packet burst", bursts)
	}
	got = bursts[0].Packets[0]
	if got.Proto != 6 || got.SPort != 44321 || got.DPort != 80 {
		t.Errorf("tcp packet = %+v", got)
	}
	if got.TCPFlags != 0x12 { // SYN|ACK
		t.Errorf("tcp flags = %#02x, want 0x12", got.TCPFlags)
	}
}

// TestNewSource_RejectsGarbage: a stream without a pcap magic number fails
// at construction, not at the first read.
func TestNewSource_RejectsGarbage(t *testing.T) {
	if _, err := NewSource(bytes.NewReader([]byte("not a pcap"))); err == nil {
		t.Error("NewSource accepted garbage input")
	}
}
