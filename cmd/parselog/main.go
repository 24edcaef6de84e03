package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"example.com/flightlog/internal/common"
	"example.com/flightlog/internal/config"
	"example.com/flightlog/internal/flightlog"
	"example.com/flightlog/internal/reconcile"
	"example.com/flightlog/internal/report"
	"example.com/flightlog/internal/samples"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return decodeCmd(args, stdout, stderr)
	}
	switch args[0] {
	case "decode":
		return decodeCmd(args[1:], stdout, stderr)
	case "dump":
		return dumpCmd(args[1:], stdout, stderr)
	case "report":
		return reportCmd(args[1:], stdout, stderr)
	case "generate":
		return generateCmd(args[1:], stdout, stderr)
	case "help":
		usage(stdout)
		return exitOK
	default:
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `parselog %s (built %s) [command] [options]

Commands:
  decode    [--config <file.yaml|file.toml>] [--in log.hex] [--binary] [--csv -] [--summary <summary.json>] [--pdf <report.pdf>] [--diagnostics <findings.jsonl>] [--lang en|tr] [--metrics] [--log-file <file>]
  dump      --in <flight_log> [--out log.hex]
  report    --summary <summary.json> --pdf <report.pdf> [--lang en|tr]
  generate  [--out sample.hex] [--records N] [--corrupt i,j] [--declare N] [--binary]

decode is the default command.
`, version, buildDate)
}

func decodeCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML or TOML configuration file")
	in := fs.String("in", config.DefaultInput, "input log (hex container, or raw with --binary)")
	binary := fs.Bool("binary", false, "input is a raw binary flight log")
	csvOut := fs.String("csv", "-", "CSV output, - for stdout")
	summaryOut := fs.String("summary", "", "summary JSON output")
	pdfOut := fs.String("pdf", "", "PDF report output")
	diagOut := fs.String("diagnostics", "", "findings NDJSON output")
	lang := fs.String("lang", "en", "report language")
	metricsFlag := fs.Bool("metrics", false, "print decode metrics")
	logFile := fs.String("log-file", "", "rotating log file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(stderr, "config:", err)
			return exitUsage
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Input = *in
		case "binary":
			cfg.Binary = *binary
		case "csv":
			cfg.CSV = *csvOut
		case "summary":
			cfg.Summary = *summaryOut
		case "pdf":
			cfg.PDF = *pdfOut
		case "diagnostics":
			cfg.Diagnostics = *diagOut
		case "lang":
			cfg.Lang = *lang
		case "metrics":
			cfg.Metrics = *metricsFlag
		case "log-file":
			cfg.Logs.File = *logFile
		}
	})
	reportLang, err := report.ParseLanguage(cfg.Lang)
	if err != nil {
		fmt.Fprintln(stderr, "lang:", err)
		return exitUsage
	}

	closer, err := common.SetupLogging(stderr, cfg.Logs)
	if err != nil {
		fmt.Fprintln(stderr, "setup logging:", err)
		return exitUsage
	}
	defer func() {
		closer.Close()
		common.SetLogOutput(stderr)
	}()
	if *configPath != "" {
		common.Logf("using config %s", *configPath)
	}

	sess, runErr := decode(cfg, stdout, stderr)
	if sess == nil {
		fmt.Fprintln(stderr, "error:", runErr)
		return exitFail
	}

	if err := writeReports(cfg, sess, reportLang); err != nil {
		fmt.Fprintln(stderr, "report:", err)
		return exitFail
	}
	if runErr != nil {
		return exitFail
	}
	return exitOK
}

// decode runs one pass over cfg.Input. A nil session means the input or
// output could not be opened.
func decode(cfg config.Config, stdout, stderr io.Writer) (*reconcile.Session, error) {
	out := stdout
	if cfg.CSV != "" && cfg.CSV != "-" {
		f, err := os.Create(cfg.CSV)
		if err != nil {
			return nil, fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		out = f
	}

	var metrics *common.Metrics
	if cfg.Metrics {
		metrics = common.NewMetrics()
		defer func() {
			fmt.Fprintln(stderr, metrics.Snapshot())
		}()
	}
	opts := reconcile.Options{CSV: out, Diag: stderr, Metrics: metrics}

	if cfg.Binary {
		data, err := os.ReadFile(cfg.Input)
		if err != nil {
			return nil, err
		}
		return reconcile.RunBinary(data, opts)
	}
	f, err := os.Open(cfg.Input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return reconcile.Run(f, opts)
}

func writeReports(cfg config.Config, sess *reconcile.Session, lang report.Language) error {
	if cfg.Summary == "" && cfg.PDF == "" && cfg.Diagnostics == "" {
		return nil
	}
	sum := sess.Summary()
	sum.Input = cfg.Input
	if digest, _, err := common.Sha256OfFile(cfg.Input); err == nil {
		sum.Sha256 = digest
	} else {
		common.Logf("fingerprint %s: %v", cfg.Input, err)
	}
	if cfg.Summary != "" {
		if err := report.SaveSummaryJSON(sum, cfg.Summary); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		common.Logf("summary written to %s", cfg.Summary)
	}
	if cfg.PDF != "" {
		if err := report.SaveSummaryPDF(sum, lang, cfg.PDF); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		common.Logf("pdf report written to %s", cfg.PDF)
	}
	if cfg.Diagnostics != "" {
		if err := reconcile.SaveFindingsNDJSON(cfg.Diagnostics, sum.Findings); err != nil {
			return fmt.Errorf("write diagnostics: %w", err)
		}
	}
	return nil
}

func dumpCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "raw binary flight log")
	out := fs.String("out", "-", "hex container output, - for stdout")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *in == "" {
		fmt.Fprintln(stderr, "required: --in")
		return exitUsage
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintln(stderr, "read:", err)
		return exitFail
	}
	if len(data)%flightlog.RecordSize != 0 {
		common.Logf("%s: %d trailing bytes do not form a full record", *in, len(data)%flightlog.RecordSize)
	}
	if err := writeTo(*out, stdout, func(w io.Writer) error { return flightlog.WriteHexLog(w, data) }); err != nil {
		fmt.Fprintln(stderr, "dump:", err)
		return exitFail
	}
	return exitOK
}

func reportCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	summaryPath := fs.String("summary", "", "summary JSON")
	pdfOut := fs.String("pdf", "report.pdf", "PDF output")
	lang := fs.String("lang", "en", "report language")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *summaryPath == "" {
		fmt.Fprintln(stderr, "required: --summary")
		return exitUsage
	}
	reportLang, err := report.ParseLanguage(*lang)
	if err != nil {
		fmt.Fprintln(stderr, "lang:", err)
		return exitUsage
	}
	sum, err := report.LoadSummaryJSON(*summaryPath)
	if err != nil {
		fmt.Fprintln(stderr, "load summary:", err)
		return exitFail
	}
	if err := report.SaveSummaryPDF(sum, reportLang, *pdfOut); err != nil {
		fmt.Fprintln(stderr, "write pdf:", err)
		return exitFail
	}
	fmt.Fprintf(stdout, "wrote %s (%s)\n", *pdfOut, passLabel(sum.Pass))
	return exitOK
}

func generateCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "-", "output file, - for stdout")
	records := fs.Int("records", 8, "number of records")
	corrupt := fs.String("corrupt", "", "comma-separated record indexes with a broken checksum")
	declare := fs.Int64("declare", -1, "byte count written in the start marker (default: actual size)")
	binary := fs.Bool("binary", false, "write the raw binary log instead of the hex container")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *records < 0 {
		fmt.Fprintln(stderr, "--records must not be negative")
		return exitUsage
	}
	opts := samples.Options{Records: *records, Declare: *declare}
	idx, err := parseIndexes(*corrupt)
	if err != nil {
		fmt.Fprintln(stderr, "--corrupt:", err)
		return exitUsage
	}
	opts.Corrupt = idx

	err = writeTo(*out, stdout, func(w io.Writer) error {
		if *binary {
			_, err := w.Write(samples.BuildBinary(opts))
			return err
		}
		data, err := samples.BuildHex(opts)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	if err != nil {
		fmt.Fprintln(stderr, "generate:", err)
		return exitFail
	}
	return exitOK
}

func parseIndexes(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, errors.New("index must not be negative")
		}
		out = append(out, n)
	}
	return out, nil
}

// writeTo calls fn with stdout for "-" and a created file otherwise.
func writeTo(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func passLabel(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
