package exporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"seafoodpulse/pkg/contracts/domain"
)

// TableRenderer prints aggregate views as console tables
type TableRenderer struct {
	out io.Writer
}

// NewTableRenderer writes to out, or stdout when out is nil
func NewTableRenderer(out io.Writer) *TableRenderer {
	if out == nil {
		out = os.Stdout
	}
	return &TableRenderer{out: out}
}

func (r *TableRenderer) newTable(title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.AppendHeader(header)

	// right-align every column but the first
	configs := make([]table.ColumnConfig, 0, len(header))
	for i := 2; i <= len(header); i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
	return t
}

// WeeklyTotals renders per-week volume and growth
func (r *TableRenderer) WeeklyTotals(totals []domain.WeeklyTotal, avgGrowth float64) {
	t := r.newTable("Weekly volume", table.Row{"Week", "Volume", "Previous year", "Growth %"})
	for _, w := range totals {
		t.AppendRow(table.Row{w.Week, formatFloat(w.CurrentVolume), formatFloat(w.PriorVolume), formatFloat(w.VolumeGrowthPercent)})
	}
	t.AppendFooter(table.Row{"Avg", "", "", formatFloat(avgGrowth)})
	t.Render()
}

// Categories renders the category summary
func (r *TableRenderer) Categories(summaries []domain.CategorySummary) {
	t := r.newTable("Categories", table.Row{"Category", "Volume", "Avg price", "Share %", "Records"})
	for _, c := range summaries {
		t.AppendRow(table.Row{c.Category.DisplayName(), formatFloat(c.CurrentVolume), formatFloat(c.AvgPrice), formatFloat(c.VolumeSharePercent), c.Records})
	}
	t.Render()
}

// Markets renders market volume and price
func (r *TableRenderer) Markets(title string, summaries []domain.MarketSummary) {
	t := r.newTable(title, table.Row{"Market", "Volume", "Avg price"})
	for _, m := range summaries {
		t.AppendRow(table.Row{m.Market, formatFloat(m.CurrentVolume), formatFloat(m.AvgPrice)})
	}
	t.Render()
}

// Growth renders year-over-year market growth
func (r *TableRenderer) Growth(title string, growths []domain.MarketGrowth) {
	t := r.newTable(title, table.Row{"Market", "Volume", "Previous year", "Growth %"})
	for _, g := range growths {
		t.AppendRow(table.Row{g.Market, formatFloat(g.CurrentVolume), formatFloat(g.PriorVolume), formatFloat(g.GrowthPercent)})
	}
	t.Render()
}

// Records renders raw market rows
func (r *TableRenderer) Records(records []domain.MarketRecord) {
	t := r.newTable("Market records", table.Row{"Market", "Week", "Category", "Volume", "Price", "Prev volume", "Prev price"})
	for _, m := range records {
		t.AppendRow(table.Row{m.Market, m.Week, string(m.Category), formatFloat(m.CurrentVolume), formatFloat(m.CurrentPrice), formatFloat(m.PriorVolume), formatFloat(m.PriorPrice)})
	}
	t.Render()
}

// Ports renders port visit statistics
func (r *TableRenderer) Ports(ports []domain.PortSummary) {
	t := r.newTable("Ports", table.Row{"Port", "Country", "Visits", "Vessels", "Avg stay h"})
	for _, p := range ports {
		t.AppendRow(table.Row{p.PortName, p.PortCountry, p.VisitCount, p.UniqueVessels, formatFloat(p.AvgStayHours)})
	}
	t.Render()
}

// Report renders every view of an analysis report
func (r *TableRenderer) Report(report domain.AnalysisReport) {
	r.WeeklyTotals(report.WeeklyTotals, report.AverageWeeklyGrowth)
	r.Categories(report.Categories)
	r.Markets("Top markets", report.Markets)
	r.Growth("Fastest growing markets", report.Insights.FastestGrowing)
}

// Operation renders the outcome of each step of an operation
func (r *TableRenderer) Operation(snap domain.OperationSnapshot) {
	t := r.newTable(fmt.Sprintf("Operation %s (%s)", snap.ID, snap.Status), table.Row{"Step", "Status", "Progress", "Attempts", "Message"})
	for _, s := range snap.Steps {
		msg := s.Message
		if s.Error != "" {
			msg = s.Error
		}
		t.AppendRow(table.Row{s.Name, string(s.Status), fmt.Sprintf("%d%%", s.Progress), s.Attempts, text.WrapSoft(msg, 60)})
	}
	if snap.CompletedAt != nil {
		t.AppendFooter(table.Row{"Duration", "", "", "", snap.CompletedAt.Sub(snap.StartedAt).Round(time.Millisecond).String()})
	}
	t.Render()
}
