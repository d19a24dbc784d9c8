package ui

import (
	"fmt"
	"time"

	"github.com/cairofuzz/cairofuzz/internal/session"
)

// StatsView renders the session.StatsSnapshot panel of the dashboard.
type StatsView struct {
	width int
}

// NewStatsView creates a new stats view.
func NewStatsView(width int) *StatsView {
	return &StatsView{width: width}
}

// SetWidth updates the view size.
func (v *StatsView) SetWidth(width int) {
	v.width = width
}

// Render renders the stats panel for the latest snapshot.
func (v *StatsView) Render(snap session.StatsSnapshot) string {
	var b []byte
	write := func(s string) { b = append(b, s...) }

	write(HeaderStyle.Render("📊 Session"))
	write("\n\n")
	write(RenderLabelValue("Executions", formatNumber(snap.TotalExecutions)))
	write("\n")
	write(RenderLabelValue("Exec/sec", fmt.Sprintf("%.1f", snap.ExecutionsPerSecond)))
	write("\n")
	write(RenderLabelValue("Uptime", formatDuration(time.Duration(snap.UptimeSeconds*float64(time.Second)))))
	write("\n\n")

	write(HeaderStyle.Render("🧭 Coverage"))
	write("\n\n")
	write(RenderLabelValue("Coverage size", formatNumber(int64(snap.CoverageSize))))
	write("\n")
	write(RenderLabelValue("Corpus size", formatNumber(int64(snap.CorpusSize))))
	write("\n")
	write(RenderLabelValue("Since last hit", formatDuration(time.Duration(snap.SecondsSinceCoverage*float64(time.Second)))))
	write("\n\n")

	write(HeaderStyle.Render("💥 Crashes"))
	write("\n\n")
	write(RenderLabelValue("Total", formatNumber(snap.CrashesTotal)))
	write("\n")
	style := SuccessStyle
	if snap.UniqueCrashes > 0 {
		style = CrashAbortStyle
	}
	write(RenderLabel("Unique"))
	write(" ")
	write(style.Render(formatNumber(int64(snap.UniqueCrashes))))
	write("\n")

	return StatsPanelStyle.Width(v.width).Render(string(b))
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
