package analysis_test

import (
	"testing"

	"ipinsight/internal/analysis"
	"ipinsight/pkg/domain"

	"github.com/stretchr/testify/require"
)

func TestSecurityScore(t *testing.T) {
	clean := func(confidence int) domain.Reputation {
		return domain.Reputation{Status: domain.ReputationClean, Confidence: confidence}
	}
	svc := func(level domain.RiskLevel) domain.Service {
		return domain.Service{RiskLevel: level}
	}

	tests := []struct {
		name string
		in   analysis.ScoreInput
		want int
	}{
		{
			name: "two clean sources and low risk services",
			in: analysis.ScoreInput{
				Reputation: []domain.Reputation{clean(95), clean(98)},
				Services:   []domain.Service{svc(domain.RiskLow), svc(domain.RiskLow)},
			},
			want: 94,
		},
		{
			name: "malicious source and high risk service",
			in: analysis.ScoreInput{
				Reputation: []domain.Reputation{{Status: domain.ReputationMalicious, Confidence: 100}},
				Services:   []domain.Service{svc(domain.RiskHigh)},
			},
			// 0 + 9 + 16 + 9
			want: 34,
		},
		{
			name: "mixed",
			in: analysis.ScoreInput{
				Reputation: []domain.Reputation{
					{Status: domain.ReputationSuspicious, Confidence: 80},
					clean(100),
				},
				Services: []domain.Service{svc(domain.RiskMedium), svc(domain.RiskLow)},
			},
			// 0.4*70 + 0.3*85 + 16 + 9 = 78.5
			want: 79,
		},
		{
			name: "no data",
			in:   analysis.ScoreInput{},
			// 0 + 30 + 16 + 9
			want: 55,
		},
		{
			name: "geolocation is ignored",
			in: analysis.ScoreInput{
				Reputation:  []domain.Reputation{clean(95), clean(98)},
				Services:    []domain.Service{svc(domain.RiskLow), svc(domain.RiskLow)},
				Geolocation: domain.Geolocation{Country: "Nowhere"},
			},
			want: 94,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analysis.SecurityScore(tt.in)
			require.Equal(t, tt.want, got)
			require.Equal(t, got, analysis.SecurityScore(tt.in))
		})
	}
}

func TestSynthesize(t *testing.T) {
	res := analysis.Synthesize("1.1.1.1", domain.TargetIPv4, now)

	require.Equal(t, "1.1.1.1", res.IP)
	require.Equal(t, domain.TargetIPv4, res.Type)
	require.Equal(t, now.UnixMilli(), res.Timestamp)
	require.Equal(t, "Cloudflare Inc", res.Geolocation.ASNOrg)
	require.Equal(t, "AS13335", res.Geolocation.ASN)
	require.Len(t, res.Services, 2)
	require.Len(t, res.Reputation, 2)
	require.Len(t, res.Recommendations, 1)
	require.Equal(t, 94, res.SecurityScore)

	other := analysis.Synthesize("203.0.113.7", domain.TargetIPv4, now)
	require.Equal(t, "Google LLC", other.Geolocation.ISP)
}
