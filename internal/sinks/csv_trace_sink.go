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

// Package sinks holds the output adapters for generated traces.
package sinks

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"tracesynth"
)

// csvHeader is the column layout of a trace file, one packet per row.
var csvHeader = []string{"time", "saddr", "daddr", "sport", "dport", "proto", "len", "tcpflags"}

// CSVTraceSink is a buffered CSV writer for generated packet streams. It is
// safe for concurrent use and optimized for append-only workloads.
type CSVTraceSink struct {
	mu sync.Mutex
	f  *os.File
	bw *bufio.Writer
	w  *csv.Writer
}

// NewCSVTraceSink creates (truncating) the file at path and writes the
// header row. Call Close when done.
func NewCSVTraceSink(path string) (*CSVTraceSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 1<<20 /*1MiB*/)
	s := &CSVTraceSink{f: f, bw: bw, w: csv.NewWriter(bw)}
	if err := s.w.Write(csvHeader); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Write appends one packet row.
func (s *CSVTraceSink) Write(key tracesynth.FlowKey, pkt tracesynth.Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write([]string{
		strconv.FormatFloat(pkt.Time, 'f', 9, 64),
		FormatAddr(key.SAddr),
		FormatAddr(key.DAddr),
		strconv.Itoa(int(pkt.SPort)),
		strconv.Itoa(int(pkt.DPort)),
		strconv.Itoa(int(pkt.Proto)),
		strconv.Itoa(int(pkt.Len)),
		strconv.Itoa(int(pkt.TCPFlags)),
	})
}

// Flush forces buffered rows to disk.
func (s *CSVTraceSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	return s.bw.Flush()
}

// Close flushes and closes the underlying file.
func (s *CSVTraceSink) Close() error {
	if err := s.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// FormatAddr renders a host-byte-order IPv4 address as a dotted quad.
func FormatAddr(a uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", a>>24, a>>16&0xff, a>>8&0xff, a&0xff)
}
