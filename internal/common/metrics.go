package common

import (
	"fmt"
	"sync"
	"time"
)

type Metrics struct {
	mu             sync.Mutex
	start          time.Time
	end            time.Time
	bytes          int64
	totalBytes     int64
	records        int64
	checksumErrors int64
	lines          int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Start() {
	m.mu.Lock()
	if m.start.IsZero() {
		m.start = time.Now()
		m.end = time.Time{}
	}
	m.mu.Unlock()
}

func (m *Metrics) Stop() {
	m.mu.Lock()
	if !m.start.IsZero() && m.end.IsZero() {
		m.end = time.Now()
	}
	m.mu.Unlock()
}

func (m *Metrics) AddRecord(size int64) {
	if size <= 0 {
		return
	}
	m.mu.Lock()
	m.bytes += size
	m.records++
	m.mu.Unlock()
}

func (m *Metrics) AddLine() {
	m.mu.Lock()
	m.lines++
	m.mu.Unlock()
}

func (m *Metrics) IncChecksumError() {
	m.mu.Lock()
	m.checksumErrors++
	m.mu.Unlock()
}

func (m *Metrics) SetTotalBytes(total int64) {
	if total < 0 {
		total = 0
	}
	m.mu.Lock()
	m.totalBytes = total
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Duration:       m.elapsedLocked(),
		Bytes:          m.bytes,
		TotalBytes:     m.totalBytes,
		Records:        m.records,
		ChecksumErrors: m.checksumErrors,
		Lines:          m.lines,
	}
}

func (m *Metrics) elapsedLocked() time.Duration {
	if m.start.IsZero() {
		return 0
	}
	if !m.end.IsZero() {
		return m.end.Sub(m.start)
	}
	return time.Since(m.start)
}

type MetricsSnapshot struct {
	Duration       time.Duration
	Bytes          int64
	TotalBytes     int64
	Records        int64
	ChecksumErrors int64
	Lines          int64
}

func (s MetricsSnapshot) RecordsPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Records) / s.Duration.Seconds()
}

func (s MetricsSnapshot) Completion() float64 {
	if s.TotalBytes <= 0 {
		return 0
	}
	ratio := float64(s.Bytes) / float64(s.TotalBytes)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// String formats the snapshot as a single summary line.
func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("Metrics: duration=%s lines=%d records=%d checksum_errors=%d decoded=%s (%.0f records/s)",
		s.Duration.Round(time.Microsecond),
		s.Lines,
		s.Records,
		s.ChecksumErrors,
		FormatBytes(s.Bytes),
		s.RecordsPerSecond(),
	)
}

func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div := float64(unit)
	exp := 0
	for n := float64(b) / div; n >= unit && exp < 6; n /= unit {
		div *= unit
		exp++
	}
	prefixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	return fmt.Sprintf("%.2f %s", float64(b)/div, prefixes[exp])
}
