package report

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/flightlog/internal/reconcile"
)

// SaveSummaryPDF renders a decode summary into a PDF document.
func SaveSummaryPDF(sum reconcile.Summary, lang Language, out string) error {
	pdf, err := buildSummaryPDF(sum, lang)
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(out)
}

// RenderSummaryPDF returns the PDF bytes for sum.
func RenderSummaryPDF(sum reconcile.Summary, lang Language) ([]byte, error) {
	pdf, err := buildSummaryPDF(sum, lang)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const pageMargin = 15.0

type pdfWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	t   Translator
}

func buildSummaryPDF(sum reconcile.Summary, lang Language) (*gofpdf.Fpdf, error) {
	t := NewTranslator(lang)
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(t.T("title"), true)
	pdf.SetAuthor("parselog", false)
	pdf.SetCreator("parselog", false)
	pdf.SetMargins(pageMargin, 20, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	descriptor := ""
	if t.Lang() == LangTurkish {
		descriptor = "cp1254"
	}
	w := pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(descriptor), t: t}

	w.title(t.T("title"))
	if err := w.fingerprint(sum.Sha256); err != nil {
		return nil, err
	}
	w.summary(sum)
	w.types(sum.Types)
	w.acceleration(sum)
	w.findings(sum.Findings)

	if pdf.Err() {
		return nil, pdf.Error()
	}
	return pdf, nil
}

func (w pdfWriter) title(title string) {
	w.pdf.SetFont("Helvetica", "B", 18)
	w.pdf.Cell(0, 10, w.tr(title))
	w.pdf.Ln(12)
}

// fingerprint places a QR of the input digest in the top right corner.
func (w pdfWriter) fingerprint(hash string) error {
	if strings.TrimSpace(hash) == "" {
		return nil
	}
	png, err := FingerprintQR(hash, 256)
	if err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	w.pdf.RegisterImageOptionsReader("fingerprint", opts, bytes.NewReader(png))
	pageW, _ := w.pdf.GetPageSize()
	w.pdf.ImageOptions("fingerprint", pageW-pageMargin-30, 12, 30, 30, false, opts, 0, "")
	return nil
}

func (w pdfWriter) section(key string) {
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.Cell(0, 8, w.tr(w.t.T(key)))
	w.pdf.Ln(9)
}

func (w pdfWriter) summary(sum reconcile.Summary) {
	w.section("summary")
	w.pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "input", value: emptyFallback(sum.Input, "-")},
		{label: "fingerprint", value: shortHash(sum.Sha256)},
		{label: "declared_bytes", value: strconv.FormatInt(sum.DeclaredBytes, 10)},
		{label: "parsed_bytes", value: strconv.FormatInt(sum.ParsedBytes, 10)},
		{label: "records", value: strconv.Itoa(sum.Records)},
		{label: "checksum_errors", value: strconv.Itoa(sum.ChecksumErrors)},
		{label: "time_span", value: fmt.Sprintf("%d .. %d", sum.FirstTimestamp, sum.LastTimestamp)},
		{label: "overall", value: w.passLabel(sum.Pass)},
		{label: "verdict", value: emptyFallback(sum.Verdict, "-")},
	}
	for _, item := range items {
		w.pdf.CellFormat(50, 6, w.tr(w.t.T(item.label)), "", 0, "L", false, 0, "")
		w.pdf.CellFormat(0, 6, w.tr(item.value), "", 1, "L", false, 0, "")
	}
	if !sum.GeneratedAt.IsZero() {
		w.pdf.SetFont("Helvetica", "", 9)
		w.pdf.CellFormat(0, 5, w.tr(w.t.Format("generated", sum.GeneratedAt.Format(time.RFC3339))), "", 1, "L", false, 0, "")
	}
	w.pdf.Ln(4)
}

func (w pdfWriter) types(types map[string]int) {
	w.section("message_types")
	widths := []float64{60, 30}
	w.header(widths, "type", "count")

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	w.pdf.SetFont("Helvetica", "", 9)
	for _, name := range names {
		renderTableRow(w.pdf, widths, []string{name, strconv.Itoa(types[name])}, 5)
	}
	w.pdf.Ln(4)
}

func (w pdfWriter) acceleration(sum reconcile.Summary) {
	w.section("acceleration")
	widths := []float64{30, 30, 30}
	w.header(widths, "axis", "min", "max")
	w.pdf.SetFont("Helvetica", "", 9)
	axes := []struct {
		name string
		r    reconcile.AxisRange
	}{
		{name: "x", r: sum.AccelX},
		{name: "y", r: sum.AccelY},
		{name: "z", r: sum.AccelZ},
	}
	for _, a := range axes {
		renderTableRow(w.pdf, widths, []string{
			a.name,
			strconv.FormatFloat(a.r.Min, 'f', 2, 64),
			strconv.FormatFloat(a.r.Max, 'f', 2, 64),
		}, 5)
	}
	w.pdf.Ln(4)
}

func (w pdfWriter) header(widths []float64, keys ...string) {
	w.pdf.SetFillColor(240, 240, 240)
	w.pdf.SetFont("Helvetica", "B", 10)
	for i, k := range keys {
		w.pdf.CellFormat(widths[i], 7, w.tr(w.t.T(k)), "1", 0, "L", true, 0, "")
	}
	w.pdf.Ln(-1)
}

func (w pdfWriter) findings(findings []reconcile.Finding) {
	w.section("findings")
	if len(findings) == 0 {
		w.pdf.SetFont("Helvetica", "", 11)
		w.pdf.MultiCell(0, 6, w.tr(w.t.T("no_findings")), "", "L", false)
		return
	}
	for i, f := range findings {
		w.pdf.SetFont("Helvetica", "B", 10)
		header := fmt.Sprintf("%d. %s (%s)", i+1, f.Kind, f.Severity)
		w.pdf.MultiCell(0, 5, header, "", "L", false)

		if msg := strings.TrimSpace(f.Message); msg != "" {
			w.pdf.SetFont("Helvetica", "", 10)
			w.pdf.MultiCell(0, 5, w.tr(msg), "", "L", false)
		}
		if meta := w.findingMetadata(f); meta != "" {
			w.pdf.SetFont("Helvetica", "", 9)
			w.pdf.MultiCell(0, 4, w.tr(meta), "", "L", false)
		}
		w.pdf.Ln(2)
	}
}

func (w pdfWriter) findingMetadata(f reconcile.Finding) string {
	parts := make([]string, 0, 3)
	if f.Line != 0 {
		parts = append(parts, w.t.Format("line", f.Line))
	}
	if f.Timestamp != nil {
		parts = append(parts, fmt.Sprintf("t=%d", *f.Timestamp))
	}
	if f.Stored != "" || f.Computed != "" {
		parts = append(parts, w.t.Format("stored_computed", f.Stored, f.Computed))
	}
	return strings.Join(parts, " - ")
}

func (w pdfWriter) passLabel(pass bool) string {
	if pass {
		return w.t.T("pass")
	}
	return w.t.T("fail")
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		pdf.MultiCell(widths[i], lineHeight, strings.Join(lines, "\n"), "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func shortHash(hash string) string {
	hash = strings.TrimSpace(hash)
	if len(hash) > 16 {
		return hash[:16] + "..."
	}
	return emptyFallback(hash, "-")
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
