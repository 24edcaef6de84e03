package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"example.com/flightlog/internal/flightlog"
	"example.com/flightlog/internal/reconcile"
	"example.com/flightlog/internal/samples"
)

func writeLog(t *testing.T, dir string, opts samples.Options) string {
	t.Helper()
	data, err := samples.BuildHex(opts)
	if err != nil {
		t.Fatalf("BuildHex: %v", err)
	}
	path := filepath.Join(dir, "log.hex")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestDecodeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		opts     samples.Options
		wantCode int
		rows     int
		wantDiag []string
	}{
		{
			name:     "two good records",
			opts:     samples.Options{Records: 2, Declare: 32},
			wantCode: exitOK,
			rows:     2,
			wantDiag: []string{"parsed 32 bytes successfully"},
		},
		{
			name:     "declared short",
			opts:     samples.Options{Records: 2, Declare: 16},
			wantCode: exitFail,
			rows:     2,
			wantDiag: []string{"parsed 32 bytes, expected 16"},
		},
		{
			name:     "corrupted checksum",
			opts:     samples.Options{Records: 1, Corrupt: []int{0}, Declare: -1},
			wantCode: exitFail,
			rows:     1,
			wantDiag: []string{"checksums don't match!", "checksum errors were found"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeLog(t, t.TempDir(), tc.opts)
			code, out, diag := runCLI(t, "decode", "--in", path)
			if code != tc.wantCode {
				t.Fatalf("exit = %d, want %d (stderr %q)", code, tc.wantCode, diag)
			}
			if rows := strings.Count(out, "\n") - 1; rows != tc.rows {
				t.Fatalf("rows = %d, want %d:\n%s", rows, tc.rows, out)
			}
			for _, want := range tc.wantDiag {
				if !strings.Contains(diag, want) {
					t.Fatalf("stderr %q missing %q", diag, want)
				}
			}
		})
	}
}

func TestDecodeIsDefaultCommand(t *testing.T) {
	path := writeLog(t, t.TempDir(), samples.Options{Records: 3, Declare: -1})
	code, out, diag := runCLI(t, "--in", path)
	if code != exitOK {
		t.Fatalf("exit = %d (stderr %q)", code, diag)
	}
	if !strings.HasPrefix(out, "timestamp,type,accel_x,accel_y,accel_z\n") {
		t.Fatalf("stdout = %q", out)
	}
}

func TestDecodeMalformedHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.hex")
	if err := os.WriteFile(path, []byte("start 16\nZZ\nend\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	code, _, diag := runCLI(t, "decode", "--in", path)
	if code != exitFail {
		t.Fatalf("exit = %d, want %d", code, exitFail)
	}
	if !strings.Contains(diag, "line 2") || !strings.Contains(diag, "malformed hex") {
		t.Fatalf("stderr = %q", diag)
	}
}

func TestDecodeMissingInput(t *testing.T) {
	code, _, diag := runCLI(t, "decode", "--in", filepath.Join(t.TempDir(), "absent.hex"))
	if code != exitFail || !strings.Contains(diag, "error:") {
		t.Fatalf("exit = %d stderr = %q", code, diag)
	}
}

func TestDecodeWritesReports(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, samples.Options{Records: 4, Corrupt: []int{2}, Declare: -1})
	csvPath := filepath.Join(dir, "table.csv")
	summaryPath := filepath.Join(dir, "summary.json")
	pdfPath := filepath.Join(dir, "report.pdf")
	diagPath := filepath.Join(dir, "findings.jsonl")

	code, out, diag := runCLI(t, "decode", "--in", path, "--csv", csvPath,
		"--summary", summaryPath, "--pdf", pdfPath, "--diagnostics", diagPath, "--metrics")
	if code != exitFail {
		t.Fatalf("exit = %d, want %d (stderr %q)", code, exitFail, diag)
	}
	if out != "" {
		t.Fatalf("stdout should be empty when --csv is a file, got %q", out)
	}
	if !strings.Contains(diag, "Metrics:") {
		t.Fatalf("metrics line missing: %q", diag)
	}
	table, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("ReadFile csv: %v", err)
	}
	if rows := strings.Count(string(table), "\n") - 1; rows != 4 {
		t.Fatalf("csv rows = %d, want 4", rows)
	}

	raw, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatalf("ReadFile summary: %v", err)
	}
	var sum reconcile.Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		t.Fatalf("Unmarshal summary: %v", err)
	}
	if sum.Pass || sum.ChecksumErrors != 1 || sum.Records != 4 || sum.Sha256 == "" {
		t.Fatalf("summary = %+v", sum)
	}
	if _, err := os.Stat(pdfPath); err != nil {
		t.Fatalf("pdf missing: %v", err)
	}
	findings, err := os.ReadFile(diagPath)
	if err != nil {
		t.Fatalf("ReadFile findings: %v", err)
	}
	if !strings.Contains(string(findings), `"kind":"checksum"`) {
		t.Fatalf("findings = %s", findings)
	}

	rerender := filepath.Join(dir, "again.pdf")
	code, out, diag = runCLI(t, "report", "--summary", summaryPath, "--pdf", rerender, "--lang", "tr")
	if code != exitOK {
		t.Fatalf("report exit = %d (stderr %q)", code, diag)
	}
	if !strings.Contains(out, "FAIL") {
		t.Fatalf("report stdout = %q", out)
	}
}

func TestDecodeWithConfig(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, samples.Options{Records: 2, Declare: -1})
	cfgPath := filepath.Join(dir, "flightlog.yaml")
	cfg := "input: log.hex\nsummary: summary.json\nlogs:\n  file: logs/flightlog.log\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("WriteFile config: %v", err)
	}
	code, _, diag := runCLI(t, "decode", "--config", cfgPath)
	if code != exitOK {
		t.Fatalf("exit = %d (stderr %q)", code, diag)
	}
	if _, err := os.Stat(filepath.Join(dir, "summary.json")); err != nil {
		t.Fatalf("summary missing: %v", err)
	}
	logData, err := os.ReadFile(filepath.Join(dir, "logs", "flightlog.log"))
	if err != nil {
		t.Fatalf("ReadFile log: %v", err)
	}
	if !strings.Contains(string(logData), "using config") {
		t.Fatalf("log file = %q", logData)
	}
}

func TestDecodeBinaryInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flight_log")
	if err := os.WriteFile(path, samples.BuildBinary(samples.Options{Records: 5}), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	code, out, diag := runCLI(t, "decode", "--binary", "--in", path)
	if code != exitOK {
		t.Fatalf("exit = %d (stderr %q)", code, diag)
	}
	if !strings.Contains(diag, "parsed 80 bytes successfully") {
		t.Fatalf("stderr = %q", diag)
	}
	if rows := strings.Count(out, "\n") - 1; rows != 5 {
		t.Fatalf("rows = %d, want 5", rows)
	}
}

func TestDumpThenDecode(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "flight_log")
	rec := flightlog.Record{Timestamp: 77, Type: flightlog.MsgWatchdog, AccelZ: 250}
	if err := os.WriteFile(bin, flightlog.Seal(&rec), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	hexPath := filepath.Join(dir, "log.hex")
	if code, _, diag := runCLI(t, "dump", "--in", bin, "--out", hexPath); code != exitOK {
		t.Fatalf("dump exit = %d (stderr %q)", code, diag)
	}
	code, out, diag := runCLI(t, "decode", "--in", hexPath)
	if code != exitOK {
		t.Fatalf("decode exit = %d (stderr %q)", code, diag)
	}
	if !strings.Contains(out, "77,4,0.00,0.00,9.81") {
		t.Fatalf("stdout = %q", out)
	}
}

func TestGenerateCommand(t *testing.T) {
	code, out, diag := runCLI(t, "generate", "--records", "2", "--corrupt", "1", "--declare", "48")
	if code != exitOK {
		t.Fatalf("exit = %d (stderr %q)", code, diag)
	}
	if !strings.HasPrefix(out, "start 48\n") || !strings.HasSuffix(out, "end\n") {
		t.Fatalf("stdout = %q", out)
	}
	if code, _, _ := runCLI(t, "generate", "--corrupt", "x"); code != exitUsage {
		t.Fatalf("bad --corrupt exit = %d, want %d", code, exitUsage)
	}
}

func TestUnknownCommand(t *testing.T) {
	code, _, diag := runCLI(t, "frobnicate")
	if code != exitUsage || !strings.Contains(diag, "Commands:") {
		t.Fatalf("exit = %d stderr = %q", code, diag)
	}
	code, _, _ = runCLI(t, "report")
	if code != exitUsage {
		t.Fatalf("report without --summary exit = %d", code)
	}
}
