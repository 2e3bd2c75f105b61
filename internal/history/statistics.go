package history

import (
	"math"
	"slices"
	"time"

	"ipinsight/pkg/domain"
)

const (
	// DailyWindow is the number of UTC days in the activity time series.
	DailyWindow = 30
	// TopCountries caps the country frequency table.
	TopCountries = 10
	// RecentEntries caps the recent analyses list.
	RecentEntries = 10
)

// EmptyStatistics is the statistics of an empty history.
func EmptyStatistics() domain.Statistics {
	return domain.Statistics{
		TopCountries:    []domain.CountryCount{},
		AnalysisHistory: []domain.DailyCount{},
		RecentAnalyses:  []domain.HistoryEntry{},
	}
}

// CalculateStatistics derives statistics from entries, which are expected
// most-recent-first. The daily series always covers the DailyWindow UTC days
// ending on now's day, whatever span entries cover.
func CalculateStatistics(entries []domain.HistoryEntry, now time.Time) domain.Statistics {
	if len(entries) == 0 {
		return EmptyStatistics()
	}

	total := len(entries)
	stats := domain.Statistics{TotalAnalyses: total}

	ips := make(map[string]struct{}, total)
	countries := make(map[string]int)
	var order []string
	scoreSum := 0

	for _, e := range entries {
		ips[e.IP] = struct{}{}
		scoreSum += e.SecurityScore

		switch domain.StatusFromScore(e.SecurityScore) {
		case domain.StatusSafe:
			stats.RiskDistribution.Safe++
		case domain.StatusWarning:
			stats.RiskDistribution.Warning++
		case domain.StatusDanger:
			stats.RiskDistribution.Danger++
		}

		if _, seen := countries[e.Country]; !seen {
			order = append(order, e.Country)
		}
		countries[e.Country]++
	}

	stats.UniqueIPs = len(ips)
	stats.AverageScore = round2(float64(scoreSum) / float64(total))

	stats.TopCountries = make([]domain.CountryCount, 0, len(order))
	for _, c := range order {
		stats.TopCountries = append(stats.TopCountries, domain.CountryCount{
			Country:    c,
			Count:      countries[c],
			Percentage: float64(countries[c]) / float64(total) * 100,
		})
	}
	slices.SortStableFunc(stats.TopCountries, func(a, b domain.CountryCount) int {
		return b.Count - a.Count
	})
	if len(stats.TopCountries) > TopCountries {
		stats.TopCountries = stats.TopCountries[:TopCountries]
	}

	stats.AnalysisHistory = dailySeries(entries, now, DailyWindow)
	stats.RecentAnalyses = slices.Clone(entries[:min(RecentEntries, total)])

	return stats
}

type bucket struct {
	count int
	sum   int
}

func dailySeries(entries []domain.HistoryEntry, now time.Time, days int) []domain.DailyCount {
	today := now.UTC()
	dates := make([]string, 0, days)
	buckets := make(map[string]*bucket, days)
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i).Format(time.DateOnly)
		dates = append(dates, d)
		buckets[d] = &bucket{}
	}

	for _, e := range entries {
		d := time.UnixMilli(e.Timestamp).UTC().Format(time.DateOnly)
		if b, ok := buckets[d]; ok {
			b.count++
			b.sum += e.SecurityScore
		}
	}

	out := make([]domain.DailyCount, 0, days)
	for _, d := range dates {
		b := buckets[d]
		dc := domain.DailyCount{Date: d, Count: b.count}
		if b.count > 0 {
			dc.AverageScore = round2(float64(b.sum) / float64(b.count))
		}
		out = append(out, dc)
	}

	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
