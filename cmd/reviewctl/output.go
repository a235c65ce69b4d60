package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/search"
	"github.com/Duerkos/steam-reviews-ai/internal/service"
)

// maxCellWidth bounds free-text cells in tables.
const maxCellWidth = 80

// printer renders command results as tables or JSON.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, jsonOutput bool) *printer {
	return &printer{w: w, json: jsonOutput}
}

// JSON writes v as indented JSON.
func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Line writes a single line.
func (p *printer) Line(s string) {
	fmt.Fprintln(p.w, s)
}

func (p *printer) table(header []string, rows [][]string) error {
	table := tablewriter.NewTable(p.w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// Candidates renders ranked search results.
func (p *printer) Candidates(cands []domain.Candidate) error {
	if len(cands) == 0 {
		p.Line("No matching apps.")
		return nil
	}
	rows := make([][]string, 0, len(cands))
	for _, c := range cands {
		rows = append(rows, []string{
			strconv.FormatInt(c.Entry.ID, 10),
			truncate(c.Entry.Name),
			strconv.FormatFloat(c.FuzzyScore, 'f', 0, 64),
			strconv.Itoa(c.ReviewCount),
			string(c.Tier()),
		})
	}
	return p.table([]string{"appid", "name", "match", "reviews", "tier"}, rows)
}

// Stats renders review counts.
func (p *printer) Stats(s *domain.ReviewStats) error {
	rows := [][]string{
		{"appid", strconv.FormatInt(s.AppID, 10)},
		{"total", strconv.Itoa(s.TotalReviews)},
		{"positive", strconv.Itoa(s.TotalPositive)},
		{"negative", strconv.Itoa(s.TotalNegative)},
		{"positive ratio", strconv.FormatFloat(s.PositiveRatio()*100, 'f', 1, 64) + "%"},
		{"score", s.ReviewScoreDesc},
	}
	return p.table([]string{"field", "value"}, rows)
}

// Batch renders harvested reviews.
func (p *printer) Batch(b *domain.ReviewBatch) error {
	if b.Len() == 0 {
		p.Line("No reviews.")
		return nil
	}
	records := b.Sorted()
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{strconv.Itoa(r.ID), string(r.Sentiment), truncate(r.Text)})
	}
	if err := p.table([]string{"id", "sentiment", "text"}, rows); err != nil {
		return err
	}
	p.Line(fmt.Sprintf("\n%d reviews (%d positive, %d negative) of %d available",
		b.Len(), b.Positive(), b.Negative(), b.TotalAvailable))
	return nil
}

// Summary renders a summary result.
func (p *printer) Summary(appID int64, res *service.SummaryResult) error {
	if !res.Available {
		p.Line(fmt.Sprintf("App %d has no reviews to summarize.", appID))
		return nil
	}

	c := res.Content
	p.Line(fmt.Sprintf("App %d  score %d/10", appID, c.Score))
	p.Line("")
	p.Line(c.Summary)

	if len(c.PositiveFactors) > 0 {
		p.Line("\nPositive:")
		for _, f := range c.PositiveFactors {
			p.Line("  + " + f.Text)
		}
	}
	if len(c.NegativeFactors) > 0 {
		p.Line("\nNegative:")
		for _, f := range c.NegativeFactors {
			p.Line("  - " + f.Text)
		}
	}

	source := "generated"
	if res.FromCache {
		source = "cached"
	}
	p.Line("")
	if rec := res.Record; rec != nil {
		p.Line(fmt.Sprintf("%s %s, %d reviews at summary, %d now, consulted %d times",
			source, rec.SummaryDate.Format(time.DateOnly), rec.TotalReviewsAtSummary,
			res.CurrentReviewCount, rec.TimesConsulted))
	}
	return nil
}

// Reports renders bug reports.
func (p *printer) Reports(reports []*domain.BugReport) error {
	if len(reports) == 0 {
		p.Line("No reports.")
		return nil
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.ReportID,
			r.ReportDate.Format(time.DateTime),
			r.SummaryDate.Format(time.DateOnly),
			strconv.Itoa(r.TimesConsulted),
			truncate(r.Reason),
		})
	}
	return p.table([]string{"report", "filed", "summary date", "consulted", "reason"}, rows)
}

// SummaryHits renders summary search results.
func (p *printer) SummaryHits(res *search.SearchResult) error {
	if len(res.Hits) == 0 {
		p.Line("No summaries found.")
		return nil
	}
	rows := make([][]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		flag := ""
		if h.BugFlag {
			flag = "yes"
		}
		rows = append(rows, []string{
			strconv.FormatInt(h.AppID, 10),
			truncate(h.Name),
			strconv.Itoa(h.SummaryScore),
			strconv.Itoa(h.TotalReviews),
			flag,
			truncate(h.Summary),
		})
	}
	if err := p.table([]string{"appid", "name", "score", "reviews", "flagged", "summary"}, rows); err != nil {
		return err
	}
	p.Line(fmt.Sprintf("\n%d of %d summaries", len(res.Hits), res.Total))
	return nil
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxCellWidth {
		return s
	}
	return string(r[:maxCellWidth-3]) + "..."
}
