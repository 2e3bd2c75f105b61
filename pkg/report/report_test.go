package report_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"ipinsight/pkg/domain"
	"ipinsight/pkg/report"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestFileName(t *testing.T) {
	require.Equal(t, "security-analysis-8.8.8.8-2025-03-10.pdf", report.FileName("8.8.8.8", now))
	require.Equal(t, "security-analysis-2001_db8_1-2025-03-10.pdf", report.FileName("2001:db8::1", now))
	require.Equal(t, "security-analysis-target-2025-03-10.pdf", report.FileName(" ", now))
}

func TestGenerate(t *testing.T) {
	res := &domain.AnalysisResult{
		IP:            "8.8.8.8",
		Type:          domain.TargetIPv4,
		SecurityScore: 94,
		Timestamp:     now.UnixMilli(),
		Geolocation: domain.Geolocation{
			Country: "United States", CountryCode: "US", City: "Mountain View",
			ISP: "Google LLC", ASN: "AS15169", ASNOrg: "Google LLC",
		},
		Services: []domain.Service{
			{Port: 53, Name: "DNS", Version: "Google DNS", RiskLevel: domain.RiskLow},
		},
		Reputation: []domain.Reputation{
			{Name: "VirusTotal", Status: domain.ReputationClean, Confidence: 95, Details: "Sin detecciones"},
		},
		Recommendations: []domain.Recommendation{
			{Priority: domain.PriorityInfo, Title: "Public DNS server", Description: "Widely used.", Action: "Monitor"},
		},
	}

	out, err := report.Generator{Now: func() time.Time { return now }}.Generate("8.8.8.8", res)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestGenerate_PageBreaks(t *testing.T) {
	res := &domain.AnalysisResult{IP: "10.0.0.1", Type: domain.TargetIPv4, SecurityScore: 20}
	for i := range 120 {
		res.Services = append(res.Services, domain.Service{
			Port: 1000 + i, Name: fmt.Sprintf("svc-%d", i), RiskLevel: domain.RiskHigh,
		})
	}

	out, err := report.Generator{}.Generate("10.0.0.1", res)
	require.NoError(t, err)
	pages := bytes.Count(out, []byte("/Type /Page")) - bytes.Count(out, []byte("/Type /Pages"))
	require.Greater(t, pages, 1)
}
