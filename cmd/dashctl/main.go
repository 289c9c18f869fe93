package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/bootstrap"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/config"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/pages"
	"github.com/andresuchdata/sportstore-dash/backend-go/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const appMetadataKey = "app"

func pageFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "page",
		Aliases:  []string{"p"},
		Usage:    "Dashboard page name",
		Required: true,
	}
}

func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start-date", Usage: "First day of the range (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "end-date", Usage: "Last day of the range (YYYY-MM-DD)"},
		&cli.StringSliceFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Filter as dimension=value, repeat for more values"},
	}
}

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "json or table", Value: "table"}
}

func initApp(c *cli.Context) error {
	cfg := config.Load()
	logger.Setup(c.String("log-level"), cfg.Server.LogFormat)

	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	c.App.Metadata[appMetadataKey] = app
	return nil
}

func closeApp(c *cli.Context) error {
	if app, ok := c.App.Metadata[appMetadataKey].(*bootstrap.App); ok && app != nil {
		app.Close()
	}
	return nil
}

func appFrom(c *cli.Context) *bootstrap.App {
	return c.App.Metadata[appMetadataKey].(*bootstrap.App)
}

func main() {
	_ = godotenv.Load(".env")

	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("dashctl failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "dashctl",
		Usage:    "Query the sporting goods dashboards from the command line",
		Metadata: map[string]interface{}{},

		// filter values are data labels and may contain commas
		DisableSliceFlagSeparator: true,

		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"DASHCTL_LOG_LEVEL"}},
		},
		Before: initApp,
		After:  closeApp,
		Commands: []*cli.Command{
			{
				Name:   "pages",
				Usage:  "List the dashboard pages",
				Flags:  []cli.Flag{outputFlag()},
				Action: runPages,
			},
			{
				Name:   "dashboard",
				Usage:  "Compute the KPIs and charts of a page",
				Flags:  append([]cli.Flag{pageFlag(), outputFlag()}, selectionFlags()...),
				Action: runDashboard,
			},
			{
				Name:  "aggregate",
				Usage: "Run one aggregation over a filtered page",
				Flags: append([]cli.Flag{
					pageFlag(),
					outputFlag(),
					&cli.StringSliceFlag{Name: "group-by", Aliases: []string{"g"}, Usage: "One or two dimensions, repeated or comma separated", Required: true},
					&cli.StringFlag{Name: "measure", Aliases: []string{"m"}, Value: domain.MeasureNet},
					&cli.StringFlag{Name: "reduction", Aliases: []string{"r"}, Value: string(domain.ReduceSum)},
					&cli.StringFlag{Name: "distinct-by"},
					&cli.StringFlag{Name: "sort", Value: string(domain.SortKeyAsc)},
					&cli.IntFlag{Name: "top", Usage: "Keep the first N rows after sorting"},
				}, selectionFlags()...),
				Action: runAggregate,
			},
			{
				Name:   "options",
				Usage:  "List the selectable filter values of a page",
				Flags:  []cli.Flag{pageFlag(), outputFlag()},
				Action: runOptions,
			},
			{
				Name:  "cache",
				Usage: "Manage cached datasets",
				Subcommands: []*cli.Command{
					{
						Name:  "clear",
						Usage: "Drop cached datasets of one page or all pages",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "page", Aliases: []string{"p"}, Usage: "Only this page"},
						},
						Action: runCacheClear,
					},
				},
			},
			{
				Name:  "sync",
				Usage: "Download the data files of file-backed pages from object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dest", Usage: "Destination directory", EnvVars: []string{"APP_DATA_DIR"}, Value: "./data"},
				},
				Action: runSync,
			},
		},
	}
}

func parseSelection(c *cli.Context) (pages.Selection, error) {
	sel := pages.Selection{Values: make(map[string][]string)}

	start, end := c.String("start-date"), c.String("end-date")
	if start != "" || end != "" {
		if start == "" {
			start = end
		}
		if end == "" {
			end = start
		}
		from, err := pages.ParseDay(start)
		if err != nil {
			return sel, fmt.Errorf("invalid start-date %q: %w", start, err)
		}
		to, err := pages.ParseDay(end)
		if err != nil {
			return sel, fmt.Errorf("invalid end-date %q: %w", end, err)
		}
		sel.DateRange = &domain.DateRange{From: from, To: to}
	}

	for _, f := range c.StringSlice("filter") {
		dim, values, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(dim) == "" {
			return sel, fmt.Errorf("invalid filter %q, want dimension=value", f)
		}
		dim = strings.TrimSpace(dim)
		if v := strings.TrimSpace(values); v != "" {
			sel.Values[dim] = append(sel.Values[dim], v)
		}
	}
	return sel, nil
}

func splitDims(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, dim := range strings.Split(v, ",") {
			if dim = strings.TrimSpace(dim); dim != "" {
				out = append(out, dim)
			}
		}
	}
	return out
}

func runPages(c *cli.Context) error {
	list := appFrom(c).Dashboards.ListPages()
	if c.String("output") == "json" {
		return writeJSON(c.App.Writer, list)
	}
	tw := newTable(c.App.Writer)
	fmt.Fprintln(tw, "NAME\tTITLE\tSOURCE\tFILTERS")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Title, p.Source, strings.Join(p.Filters, ","))
	}
	return tw.Flush()
}

func runDashboard(c *cli.Context) error {
	sel, err := parseSelection(c)
	if err != nil {
		return err
	}
	d, err := appFrom(c).Dashboards.Dashboard(c.Context, c.String("page"), sel)
	if err != nil {
		return err
	}
	if c.String("output") == "json" {
		return writeJSON(c.App.Writer, d)
	}

	tw := newTable(c.App.Writer)
	fmt.Fprintf(tw, "%s\t(%d records)\n\n", d.Title, d.RecordCount)
	for _, k := range d.KPIs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Title, formatValue(k.Value, k.Unit), k.Key)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, v := range d.Visualizations {
		fmt.Fprintf(c.App.Writer, "\n== %s (%s)\n", v.Title, v.Chart)
		if err := writeRows(c.App.Writer, v.Result); err != nil {
			return err
		}
	}
	return nil
}

func runAggregate(c *cli.Context) error {
	sel, err := parseSelection(c)
	if err != nil {
		return err
	}
	req := domain.AggregateRequest{
		GroupBy:    splitDims(c.StringSlice("group-by")),
		Measure:    c.String("measure"),
		Reduction:  domain.Reduction(c.String("reduction")),
		DistinctBy: c.String("distinct-by"),
		Sort:       domain.SortOrder(c.String("sort")),
		TopN:       c.Int("top"),
	}
	if req.Reduction == domain.ReduceCount || req.Reduction == domain.ReduceCountDistinct {
		req.Measure = ""
	}

	res, err := appFrom(c).Dashboards.Aggregate(c.Context, c.String("page"), sel, req)
	if err != nil {
		return err
	}
	if c.String("output") == "json" {
		return writeJSON(c.App.Writer, res)
	}
	return writeRows(c.App.Writer, res)
}

func runOptions(c *cli.Context) error {
	opts, err := appFrom(c).Dashboards.Options(c.Context, c.String("page"))
	if err != nil {
		return err
	}
	if c.String("output") == "json" {
		return writeJSON(c.App.Writer, opts)
	}
	tw := newTable(c.App.Writer)
	if opts.MinDate != nil && opts.MaxDate != nil {
		fmt.Fprintf(tw, "dates\t%s .. %s\n", opts.MinDate.Format("2006-01-02"), opts.MaxDate.Format("2006-01-02"))
	}
	p, err := appFrom(c).Dashboards.Page(c.String("page"))
	if err != nil {
		return err
	}
	for _, dim := range p.FilterDimensions() {
		fmt.Fprintf(tw, "%s\t%s\n", dim, strings.Join(opts.Dimensions[dim], " | "))
	}
	return tw.Flush()
}

func runCacheClear(c *cli.Context) error {
	svc := appFrom(c).Dashboards
	if page := c.String("page"); page != "" {
		if _, err := svc.Page(page); err != nil {
			return err
		}
		if err := appFrom(c).Cache.Invalidate(c.Context, page); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "cleared cache of page %s\n", page)
		return nil
	}
	if err := svc.InvalidateAll(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "cleared all cached datasets")
	return nil
}

func runSync(c *cli.Context) error {
	app := appFrom(c)
	if app.Storage == nil {
		return fmt.Errorf("object storage is not configured (STORAGE_ENDPOINT, STORAGE_BUCKET)")
	}
	dest := c.String("dest")
	for _, p := range app.Registry.List() {
		if p.Source.Kind != pages.SourceFile {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(p.Source.Path))
		if err := app.Storage.DownloadObject(c.Context, p.Source.Path, target); err != nil {
			return fmt.Errorf("failed to sync page %s: %w", p.Name, err)
		}
		fmt.Fprintf(c.App.Writer, "%s -> %s\n", p.Source.Path, target)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeRows(w io.Writer, res domain.AggregationResult) error {
	tw := newTable(w)
	header := append([]string{}, res.GroupBy...)
	header = append(header, strings.TrimSpace(string(res.Reduction)+" "+res.Measure))
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, row := range res.Rows {
		fmt.Fprintf(tw, "%s\t%s\n", strings.Join(row.Keys, "\t"), formatValue(row.Value, ""))
	}
	return tw.Flush()
}

func formatValue(v domain.Value, unit string) string {
	if !v.Valid {
		return "sin datos"
	}
	s := fmt.Sprintf("%.2f", v.Float)
	if unit != "" {
		s = unit + " " + s
	}
	return s
}
