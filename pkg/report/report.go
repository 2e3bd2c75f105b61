// Package report renders an analysis result as a paginated PDF document.
package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ipinsight/pkg/domain"

	"github.com/go-pdf/fpdf"
)

type rgb [3]int

var (
	colorPrimary = rgb{37, 99, 235}   //nolint: gochecknoglobals
	colorDanger  = rgb{239, 68, 68}   //nolint: gochecknoglobals
	colorWarning = rgb{245, 158, 11}  //nolint: gochecknoglobals
	colorSuccess = rgb{34, 197, 94}   //nolint: gochecknoglobals
	colorMuted   = rgb{107, 114, 128} //nolint: gochecknoglobals
	colorDark    = rgb{31, 41, 55}    //nolint: gochecknoglobals
	colorLight   = rgb{243, 244, 246} //nolint: gochecknoglobals
	colorWhite   = rgb{255, 255, 255} //nolint: gochecknoglobals
)

const (
	pageWidth = 210.0
	margin    = 15.0
	// contentWidth is the usable width of an A4 page between the margins.
	contentWidth = pageWidth - 2*margin
)

// Generator renders analysis reports. The zero value is ready to use.
type Generator struct {
	// Now stamps the generation time. time.Now is used when nil.
	Now func() time.Time
}

// FileName returns the download name of the report of query generated at t.
func FileName(query string, t time.Time) string {
	return fmt.Sprintf("security-analysis-%s-%s.pdf", sanitize(query), t.UTC().Format(time.DateOnly))
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		return "target"
	}

	return s
}

// Generate renders the analysis of query.
func (g Generator) Generate(query string, res *domain.AnalysisResult) ([]byte, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Security analysis of "+query, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		setText(pdf, colorMuted)
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	addHeader(pdf, tr, query, res, now())
	addGeolocation(pdf, tr, res.Geolocation)
	addServices(pdf, tr, res.Services)
	addReputation(pdf, tr, res.Reputation)
	addRecommendations(pdf, tr, res.Recommendations)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func addHeader(pdf *fpdf.Fpdf, tr func(string) string, query string, res *domain.AnalysisResult, now time.Time) {
	pdf.AddPage()

	setFill(pdf, colorPrimary)
	pdf.Rect(0, 0, pageWidth, 45, "F")

	setText(pdf, colorWhite)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetY(12)
	pdf.CellFormat(0, 10, "Security Analysis", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, tr(query), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Generated "+now.UTC().Format("January 2, 2006 at 15:04 UTC"), "", 1, "L", false, 0, "")

	y := 55.0
	drawCard(pdf, margin, y, 55, 25, "Security score", fmt.Sprintf("%d / 100", res.SecurityScore), scoreColor(res.SecurityScore))
	drawCard(pdf, margin+62.5, y, 55, 25, "Address", tr(res.IP), colorPrimary)
	drawCard(pdf, margin+125, y, 55, 25, "Type", strings.ToUpper(string(res.Type)), colorMuted)

	pdf.SetY(y + 32)
	setText(pdf, colorMuted)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Risk tier: %s | Analyzed %s", domain.StatusFromScore(res.SecurityScore),
		res.Time().UTC().Format(time.DateTime)), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func addGeolocation(pdf *fpdf.Fpdf, tr func(string) string, geo domain.Geolocation) {
	addSectionHeader(pdf, "Geolocation")

	rows := [][2]string{
		{"Country", fmt.Sprintf("%s (%s)", geo.Country, geo.CountryCode)},
		{"Region", geo.Region},
		{"City", geo.City},
		{"Coordinates", fmt.Sprintf("%.4f, %.4f", geo.Latitude, geo.Longitude)},
		{"Timezone", geo.Timezone},
		{"ISP", geo.ISP},
		{"ASN", strings.TrimSpace(geo.ASN + " " + geo.ASNOrg)},
	}
	widths := []float64{45, contentWidth - 45}
	for i, r := range rows {
		drawTableRow(pdf, []string{r[0], tr(r[1])}, widths, i%2 == 1)
	}
	pdf.Ln(6)
}

func addServices(pdf *fpdf.Fpdf, tr func(string) string, services []domain.Service) {
	addSectionHeader(pdf, "Exposed services")
	if len(services) == 0 {
		addEmpty(pdf, "No exposed services detected.")

		return
	}

	widths := []float64{20, 45, 75, 40}
	drawTableHeader(pdf, []string{"Port", "Service", "Version", "Risk"}, widths)
	for i, s := range services {
		drawTableRow(pdf, []string{
			strconv.Itoa(s.Port),
			tr(s.Name),
			tr(truncate(s.Version, 45)),
			tr(s.RiskLevel.Text()),
		}, widths, i%2 == 1)
	}
	pdf.Ln(6)
}

func addReputation(pdf *fpdf.Fpdf, tr func(string) string, reps []domain.Reputation) {
	addSectionHeader(pdf, "Reputation")
	if len(reps) == 0 {
		addEmpty(pdf, "No reputation sources were consulted.")

		return
	}

	widths := []float64{40, 30, 25, 85}
	drawTableHeader(pdf, []string{"Source", "Status", "Confidence", "Details"}, widths)
	for i, r := range reps {
		drawTableRow(pdf, []string{
			tr(r.Name),
			tr(r.Status.Text()),
			fmt.Sprintf("%d%%", r.Confidence),
			tr(truncate(r.Details, 50)),
		}, widths, i%2 == 1)
	}
	pdf.Ln(6)
}

func addRecommendations(pdf *fpdf.Fpdf, tr func(string) string, recs []domain.Recommendation) {
	addSectionHeader(pdf, "Recommendations")
	if len(recs) == 0 {
		addEmpty(pdf, "No recommendations.")

		return
	}

	for _, r := range recs {
		setText(pdf, priorityColor(r.Priority))
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("[%s] %s", strings.ToUpper(string(r.Priority)), tr(r.Title)), "", 1, "L", false, 0, "")

		setText(pdf, colorDark)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr(r.Description), "", "L", false)
		if r.Action != "" {
			setText(pdf, colorMuted)
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(0, 5, tr("Action: "+r.Action), "", "L", false)
		}
		pdf.Ln(3)
	}
}

func addSectionHeader(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	setText(pdf, colorDark)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetLineWidth(0.5)
	pdf.Line(margin, pdf.GetY(), pageWidth-margin, pdf.GetY())
	pdf.Ln(4)
}

func addEmpty(pdf *fpdf.Fpdf, msg string) {
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorMuted)
	pdf.CellFormat(0, 8, msg, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func drawCard(pdf *fpdf.Fpdf, x, y, w, h float64, label, value string, accent rgb) {
	setFill(pdf, colorLight)
	pdf.RoundedRect(x, y, w, h, 2, "1234", "F")
	setFill(pdf, accent)
	pdf.Rect(x, y, 3, h, "F")

	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colorMuted)
	pdf.SetXY(x+6, y+3)
	pdf.CellFormat(w-8, 4, label, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 13)
	setText(pdf, colorDark)
	pdf.SetXY(x+6, y+11)
	pdf.CellFormat(w-8, 8, value, "", 0, "L", false, 0, "")
}

func drawTableHeader(pdf *fpdf.Fpdf, headers []string, widths []float64) {
	setFill(pdf, colorDark)
	setText(pdf, colorWhite)
	pdf.SetFont("Helvetica", "B", 9)

	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func drawTableRow(pdf *fpdf.Fpdf, values []string, widths []float64, alternate bool) {
	if alternate {
		setFill(pdf, colorLight)
	} else {
		setFill(pdf, colorWhite)
	}
	setText(pdf, colorDark)
	pdf.SetFont("Helvetica", "", 9)

	for i, v := range values {
		pdf.CellFormat(widths[i], 6, v, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func scoreColor(score int) rgb {
	switch domain.StatusFromScore(score) {
	case domain.StatusSafe:
		return colorSuccess
	case domain.StatusWarning:
		return colorWarning
	default:
		return colorDanger
	}
}

func priorityColor(p domain.Priority) rgb {
	switch p {
	case domain.PriorityHigh:
		return colorDanger
	case domain.PriorityMedium:
		return colorWarning
	case domain.PriorityLow:
		return colorPrimary
	default:
		return colorMuted
	}
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c[0], c[1], c[2]) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c[0], c[1], c[2]) }

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}

	return string(r[:maxLen-3]) + "..."
}
