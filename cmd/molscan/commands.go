package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/molecule-scanner/internal/cavity"
	"github.com/banshee-data/molecule-scanner/internal/config"
	"github.com/banshee-data/molecule-scanner/internal/render"
	"github.com/banshee-data/molecule-scanner/internal/scan"
	"github.com/banshee-data/molecule-scanner/internal/store"
)

func runScan(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	var sf sessionFlags
	sf.register(fs)
	rangeSpec := fs.String("range", "", "Radius range min:max:steps, e.g. 3:5:40 (required)")
	outDir := fs.String("out", "", "Output directory (defaults to scan-<timestamp>)")
	column := fs.String("column", "", "Column for the PNG plot (default from config: percent_buried_volume)")
	dbPath := fs.String("db", "", "Scan history database (default from config)")
	noDB := fs.Bool("no-db", false, "Do not store the scan in the history database")
	label := fs.String("label", "", "Label stored with the scan")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rs, err := scan.ParseRangeSpec(*rangeSpec)
	if err != nil {
		return err
	}
	sess, err := sf.open()
	if err != nil {
		return err
	}
	defer sess.close()

	o := scan.NewOrchestrator(sess.runner)
	o.Progress = func(done, total int, res scan.JobResult) {
		log.Printf("[%d/%d] %v (%s)", done, total, res, res.Duration.Round(time.Millisecond))
	}
	table, runErr := o.RunRange(ctx, rs.Min, rs.Max, rs.Steps, sess.cfg.Template(rs.Min), sess.parallelism)
	if table == nil {
		return runErr
	}
	if table.Len() == 0 {
		if runErr != nil {
			return runErr
		}
		return fmt.Errorf("%w: no radius in %g..%g produced a volume, check your atom indices", scan.ErrEmptyScanResult, rs.Min, rs.Max)
	}

	dir := *outDir
	if dir == "" {
		dir = fmt.Sprintf("scan-%s", time.Now().Format("20060102-150405"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	written, err := writeScanOutputs(table, dir, firstNonEmpty(*column, sess.cfg.GetPlotColumn()), filepath.Base(sf.xyz))
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintln(stdout, p)
	}

	if peakR, peak, err := table.Peak(scan.PercentBuriedVolume); err == nil {
		log.Printf("peak %s = %.1f at r = %.3f", scan.PercentBuriedVolume, peak, peakR)
	}

	if !*noDB {
		summary := o.LastSummary()
		rec := &store.ScanRecord{
			Label:     *label,
			XYZPath:   sf.xyz,
			RMin:      rs.Min,
			RMax:      rs.Max,
			Steps:     rs.Steps,
			Params:    sess.cfg.Template(rs.Min),
			Succeeded: summary.Succeeded,
			Empty:     summary.Empty,
			Failed:    summary.Failed,
			Elapsed:   summary.Elapsed,
		}
		if err := saveScan(firstNonEmpty(*dbPath, sess.cfg.GetDatabasePath()), rec, table); err != nil {
			return err
		}
		log.Printf("stored scan %s", rec.ScanID)
	}
	return runErr
}

// writeScanOutputs writes the CSV table, the PNG plot of column and the HTML
// dashboard into dir and returns the file paths.
func writeScanOutputs(table *scan.Table, dir, column, title string) ([]string, error) {
	csvPath := filepath.Join(dir, "scan.csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return nil, err
	}
	if err := table.WriteCSV(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s: %w", csvPath, err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	pngPath := filepath.Join(dir, fmt.Sprintf("scan-%s.png", column))
	if err := render.SaveScanPlot(table, column, pngPath); err != nil {
		return nil, err
	}

	htmlPath := filepath.Join(dir, "scan.html")
	if err := writeFileWith(htmlPath, func(w io.Writer) error {
		return render.ScanDashboardHTML(w, table, title)
	}); err != nil {
		return nil, err
	}
	return []string{csvPath, pngPath, htmlPath}, nil
}

func saveScan(path string, rec *store.ScanRecord, table *scan.Table) error {
	db, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()
	return db.SaveScan(rec, table)
}

func runSingle(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("single", flag.ContinueOnError)
	var sf sessionFlags
	sf.register(fs)
	radius := fs.Float64("r", 3.5, "Sphere radius")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := sf.open()
	if err != nil {
		return err
	}
	defer sess.close()

	res := sess.runner.Run(ctx, sess.cfg.Template(*radius))
	switch res.Status {
	case scan.StatusEmpty:
		return fmt.Errorf("r = %g: %w, check your atom indices", *radius, res.Err)
	case scan.StatusFailure:
		return res.Err
	}
	return printJobResult(stdout, res)
}

// printJobResult writes the total block followed by the quadrant and octant
// tables.
func printJobResult(w io.Writer, res scan.JobResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "r = %g (job %s)\n\n", res.Params.Radius, res.Key)
	for _, k := range scan.TotalKeys {
		if v, ok := res.Total[k]; ok {
			fmt.Fprintf(tw, "%s\t%.1f\n", k, v)
		}
	}
	for _, block := range []struct {
		name    string
		results scan.RegionResults
	}{
		{"quadrant", res.Quadrant},
		{"octant", res.Octant},
	} {
		regions := regionLabels(block.results)
		if len(regions) == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s\t%s\n", block.name, strings.Join(scan.RegionKeys, "\t"))
		for _, region := range regions {
			fmt.Fprint(tw, region)
			for _, k := range scan.RegionKeys {
				fmt.Fprintf(tw, "\t%.1f", block.results[k][region])
			}
			fmt.Fprintln(tw)
		}
	}
	return tw.Flush()
}

var (
	regionOrder = map[string]int{"SW": 0, "NW": 1, "NE": 2, "SE": 3}
	octantOrder = map[string]int{"": 0, "-z": 1, "+z": 2}
)

// regionLabels returns the labels in calculator order: SW NW NE SE, with
// the -z octants before the +z ones.
func regionLabels(rr scan.RegionResults) []string {
	var labels []string
	for label := range rr[scan.FreeVolume] {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		si, sj := labels[i][2:], labels[j][2:]
		if si != sj {
			return octantOrder[si] < octantOrder[sj]
		}
		return regionOrder[labels[i][:2]] < regionOrder[labels[j][:2]]
	})
	return labels
}

func runCavity(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("cavity", flag.ContinueOnError)
	var sf sessionFlags
	sf.register(fs)
	radius := fs.Float64("r", 3.5, "Sphere radius")
	outDir := fs.String("out", "", "Output directory (defaults to cavity-<timestamp>)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := sf.open()
	if err != nil {
		return err
	}
	defer sess.close()

	top, bottom, err := sess.runner.SurfaceFiles(ctx, sess.cfg.Template(*radius))
	if err != nil {
		return err
	}
	points, err := cavity.LoadSurfaces(sess.runner.FS(), top, bottom)
	if err != nil {
		return err
	}
	grids, err := cavity.Build(points, sess.cfg.Sentinels())
	if err != nil {
		return err
	}
	rows, cols := grids.Dims()
	log.Printf("cavity grid %dx%d at r = %g", rows, cols, *radius)

	dir := *outDir
	if dir == "" {
		dir = fmt.Sprintf("cavity-%s", time.Now().Format("20060102-150405"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	paths, err := render.SaveCavityPlots(grids, dir, "cavity")
	if err != nil {
		return err
	}
	htmlPath := filepath.Join(dir, "cavity.html")
	title := fmt.Sprintf("%s r=%g", filepath.Base(sf.xyz), *radius)
	if err := writeFileWith(htmlPath, func(w io.Writer) error {
		return render.CavityHTML(w, grids, title)
	}); err != nil {
		return err
	}
	for _, p := range append(paths, htmlPath) {
		fmt.Fprintln(stdout, p)
	}
	return nil
}

func runHistory(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configPath := fs.String("config", "", "JSON scan config")
	dbPath := fs.String("db", "", "Scan history database (default from config)")
	limit := fs.Int("limit", 20, "Number of scans to list, 0 for all")
	show := fs.String("show", "", "Print the table of this scan id as CSV")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfigOrDefault(*configPath)
	if err != nil {
		return err
	}
	path := firstNonEmpty(*dbPath, cfg.GetDatabasePath())
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no scan history at %s: %w", path, err)
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if *show != "" {
		_, table, err := db.LoadScan(*show)
		if err != nil {
			return err
		}
		return table.WriteCSV(stdout)
	}

	recs, err := db.ListScans(*limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCAN ID\tCREATED\tLABEL\tXYZ\tRANGE\tROWS\tEMPTY\tFAILED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g..%g/%d\t%d\t%d\t%d\n",
			r.ScanID, time.Unix(0, r.CreatedAt).Format(time.RFC3339), r.Label, r.XYZPath,
			r.RMin, r.RMax, r.Steps, r.RowCount, r.Empty, r.Failed)
	}
	return tw.Flush()
}

func loadConfigOrDefault(path string) (*config.ScanConfig, error) {
	if path == "" {
		return config.EmptyScanConfig(), nil
	}
	return config.LoadScanConfig(path)
}

func writeFileWith(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
