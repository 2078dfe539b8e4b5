// Command report prints the snapshot views to the console: the top 20 by
// confirmed cases, the top 15 movers by weekly change and weekly percent
// increase with their last-week/current pairs, and the global timeline.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/charmbracelet/lipgloss/table"

	app "github.com/okian/covidboard/internal/app"
	"github.com/okian/covidboard/internal/config"
	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/ranking"
	"github.com/okian/covidboard/internal/domain/timeslice"
	"github.com/okian/covidboard/pkg/logger"
	"github.com/okian/covidboard/pkg/metrics"
)

const (
	topConfirmed = 20
	topMovers    = 15
	// lookupName is spelled the way the snapshot spells it, which the
	// resolver must also match against "South Korea" style names.
	lookupName = "Korea, South"
	runTimeout = 30 * time.Second
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	noteStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	// Keep stderr quiet unless something goes wrong.
	_ = logger.SetLevelString("warn")
	metrics.Init(cfg.MetricsOptions()...)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	svc := app.New(app.WithConfig(cfg), app.WithLogger(logger.Get()))
	if err := svc.Start(ctx); err != nil {
		logger.Get().Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	if err := run(ctx, os.Stdout, svc); err != nil {
		logger.Get().Error(ctx, "report failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, svc *app.Service) error {
	d, err := svc.Dataset(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, titleStyle.Render("COVID-19 country snapshot"))
	fmt.Fprintln(w, noteStyle.Render(fmt.Sprintf("%d countries loaded from %s", d.Len(), d.Source())))

	top, err := svc.TopN(ctx, model.FieldCumulativeConfirmed, ranking.Largest, topConfirmed)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Top %d by confirmed cases", topConfirmed)))
	fmt.Fprintln(w, rankedTable(top))

	for _, f := range []model.Field{model.FieldPeriodChange, model.FieldPeriodPctChange} {
		pairs, err := svc.TimeSlices(ctx, f, topMovers, timeslice.DefaultSpec())
		if err != nil {
			return err
		}
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Top %d by %s", topMovers, f)))
		fmt.Fprintln(w, pairTable(pairs))
	}

	fmt.Fprintln(w, sectionStyle.Render("Entity lookup"))
	if m, err := svc.Resolve(ctx, lookupName); err != nil {
		fmt.Fprintln(w, warnStyle.Render(err.Error()))
	} else {
		fmt.Fprintf(w, "%q -> %q (%s match)\n", lookupName, m.Record.EntityName, m.Kind)
	}

	tl, err := svc.Timeline(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, sectionStyle.Render("Global timeline"))
	if last, ok := tl.Latest(); ok {
		fmt.Fprintf(w, "%d days, latest %s: %s cases, %s deaths\n",
			tl.Len(), last.Day(), humanize.Comma(last.Cases), humanize.Comma(last.Deaths))
	}
	if tl.Provenance.Synthetic() {
		fmt.Fprintln(w, warnStyle.Render("timeline source unavailable; showing placeholder data"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, noteStyle.Render(fmt.Sprintf("%d countries visualized", d.Len())))
	return nil
}

func rankedTable(v ranking.RankedView) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Country", v.Field.String())
	for _, r := range v.Rows {
		t.Row(strconv.Itoa(r.Position), r.Record.EntityName, formatValue(v.Field, r.Value))
	}
	return t.String()
}

func pairTable(pairs []timeslice.Pair) string {
	t := table.New().Border(lipgloss.NormalBorder())
	if len(pairs) > 0 {
		t.Headers("Country", pairs[0].Before().Label, pairs[0].After().Label)
	}
	for _, p := range pairs {
		t.Row(p.EntityName, humanize.Comma(int64(p.Before().Value)), humanize.Comma(int64(p.After().Value)))
	}
	return t.String()
}

func formatValue(f model.Field, v float64) string {
	if f == model.FieldPeriodPctChange {
		return strconv.FormatFloat(v, 'f', 2, 64) + "%"
	}
	return humanize.Comma(int64(v))
}
