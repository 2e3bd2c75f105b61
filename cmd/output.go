package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"ipinsight/pkg/domain"

	"github.com/olekukonko/tablewriter"
)

// timeLayout formats epoch millisecond timestamps in tables.
const timeLayout = "2006-01-02 15:04:05"

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format(timeLayout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func printResult(w io.Writer, query string, res *domain.AnalysisResult, fromCache bool) {
	_, _ = fmt.Fprintf(w, "Query:    %s\n", query)
	_, _ = fmt.Fprintf(w, "IP:       %s (%s)\n", res.IP, res.Type)
	_, _ = fmt.Fprintf(w, "Score:    %d/100 (%s)\n", res.SecurityScore, domain.StatusFromScore(res.SecurityScore))
	_, _ = fmt.Fprintf(w, "Analyzed: %s", formatMillis(res.Timestamp))
	if fromCache {
		_, _ = fmt.Fprint(w, " (cached)")
	}
	_, _ = fmt.Fprintln(w)

	geo := res.Geolocation
	_, _ = fmt.Fprintf(w, "Location: %s, %s, %s (%s)\n", geo.City, geo.Region, geo.Country, geo.CountryCode)
	_, _ = fmt.Fprintf(w, "Network:  %s %s %s\n\n", geo.ISP, geo.ASN, geo.ASNOrg)

	services := tablewriter.NewWriter(w)
	services.SetHeader([]string{"Port", "Service", "Version", "Risk"})
	for _, s := range res.Services {
		services.Append([]string{strconv.Itoa(s.Port), s.Name, s.Version, s.RiskText})
	}
	services.Render()

	reputation := tablewriter.NewWriter(w)
	reputation.SetHeader([]string{"Source", "Status", "Confidence", "Details"})
	for _, r := range res.Reputation {
		reputation.Append([]string{r.Name, r.StatusText, strconv.Itoa(r.Confidence) + "%", r.Details})
	}
	reputation.Render()

	recs := tablewriter.NewWriter(w)
	recs.SetHeader([]string{"Priority", "Recommendation", "Action"})
	recs.SetColWidth(60)
	for _, r := range res.Recommendations {
		recs.Append([]string{string(r.Priority), r.Title + ": " + r.Description, r.Action})
	}
	recs.Render()
}

func printHistory(w io.Writer, entries []domain.HistoryEntry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Query", "IP", "Type", "Score", "Status", "Country", "Time", "Cached"})
	for _, e := range entries {
		table.Append([]string{
			e.ID, e.Query, e.IP, string(e.Type), strconv.Itoa(e.SecurityScore),
			string(e.Status), e.Country, formatMillis(e.Timestamp), strconv.FormatBool(e.FromCache),
		})
	}
	table.Render()
}

func printStatistics(w io.Writer, stats domain.Statistics) {
	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Analyses", "Unique IPs", "Average Score", "Safe", "Warning", "Danger"})
	summary.Append([]string{
		strconv.Itoa(stats.TotalAnalyses),
		strconv.Itoa(stats.UniqueIPs),
		strconv.FormatFloat(stats.AverageScore, 'f', 2, 64),
		strconv.Itoa(stats.RiskDistribution.Safe),
		strconv.Itoa(stats.RiskDistribution.Warning),
		strconv.Itoa(stats.RiskDistribution.Danger),
	})
	summary.Render()

	countries := tablewriter.NewWriter(w)
	countries.SetHeader([]string{"Country", "Count", "Share"})
	for _, c := range stats.TopCountries {
		countries.Append([]string{c.Country, strconv.Itoa(c.Count), strconv.FormatFloat(c.Percentage, 'f', 2, 64) + "%"})
	}
	countries.Render()

	daily := tablewriter.NewWriter(w)
	daily.SetHeader([]string{"Date", "Analyses", "Average Score"})
	for _, d := range stats.AnalysisHistory {
		if d.Count == 0 {
			continue
		}
		daily.Append([]string{d.Date, strconv.Itoa(d.Count), strconv.FormatFloat(d.AverageScore, 'f', 2, 64)})
	}
	daily.Render()
}

func printComparisons(w io.Writer, list []domain.Comparison) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Query", "IP", "Score", "Country", "Services", "Saved"})
	for _, c := range list {
		table.Append([]string{
			c.ID, c.Query, c.Result.IP, strconv.Itoa(c.Result.SecurityScore),
			c.Result.Geolocation.Country, strconv.Itoa(len(c.Result.Services)), formatMillis(c.Timestamp),
		})
	}
	table.Render()
}
