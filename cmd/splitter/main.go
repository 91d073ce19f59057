// Command splitter splits a PDF bundle on the local filesystem without the
// HTTP service or a database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"smartsplit/internal/config"
	"smartsplit/internal/csvexport"
	"smartsplit/internal/domain"
	"smartsplit/internal/export"
	"smartsplit/internal/oracle"
	_ "smartsplit/internal/oracle/claude"
	_ "smartsplit/internal/oracle/openai"
	"smartsplit/internal/patterns"
	"smartsplit/internal/pdfsource"
	"smartsplit/internal/pipeline"
	"smartsplit/internal/xlsxexport"
)

type options struct {
	input     string
	outDir    string
	collision string
	manifest  string
	preview   int
	dryRun    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "in", "", "input PDF (required)")
	flag.StringVar(&opts.outDir, "out", "./output", "output directory")
	flag.StringVar(&opts.collision, "collision", "", "rename, skip or overwrite (default from config)")
	flag.StringVar(&opts.manifest, "manifest", "csv", "manifest format: csv, xlsx or none")
	flag.IntVar(&opts.preview, "preview", 0, "write a single-page preview of this 1-based page and exit")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "print the split plan without writing sections")
	flag.Parse()

	if opts.input == "" {
		fmt.Fprintln(os.Stderr, "Usage: splitter -in bundle.pdf [-out dir] [-collision rename|skip|overwrite] [-manifest csv|xlsx|none] [-preview N] [-dry-run]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.collision != "" {
		cfg.Export.CollisionStrategy = opts.collision
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	pdfCfg := pdfsource.DefaultConfig()
	pdfCfg.FirstLines = cfg.Layout.FirstLines
	src, err := pdfsource.Open(f, pdfCfg)
	if err != nil {
		return err
	}

	if opts.preview > 0 {
		return writePreview(ctx, src, opts)
	}

	lib, err := patterns.Load(cfg.Patterns.File)
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}
	clsOracle, err := oracle.FromConfig(&cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to initialize oracle: %w", err)
	}

	splitRun, err := pipeline.NewFromConfig(cfg, lib, clsOracle).Run(ctx, filepath.Base(opts.input), src)
	if err != nil {
		return err
	}
	printPlan(splitRun)
	if opts.dryRun {
		return nil
	}

	sink := export.NewLocalSink(opts.outDir, domain.CollisionStrategy(cfg.Export.CollisionStrategy))
	result, err := sink.Export(ctx, f, splitRun)
	if err != nil {
		return err
	}
	for _, file := range result.Files {
		status := "written"
		if file.Skipped {
			status = "skipped"
		}
		fmt.Printf("%-8s %s\n", status, file.Location)
	}

	return writeManifest(splitRun, opts)
}

func printPlan(run *domain.SplitRun) {
	fmt.Printf("%s: %d pages, %d sections\n", run.SourceName, run.PageCount, len(run.Sections))
	for i, s := range run.Sections {
		fmt.Printf("  %2d  %-24s %.2f %-10s %s\n", i+1, s.DocumentType, s.Confidence, s.Method, s.Filename)
	}
}

func writePreview(ctx context.Context, src *pdfsource.Source, opts options) error {
	data, err := src.Preview(ctx, opts.preview-1)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(opts.input), filepath.Ext(opts.input))
	path := filepath.Join(opts.outDir, fmt.Sprintf("%s_preview_p%d.pdf", base, opts.preview))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func writeManifest(run *domain.SplitRun, opts options) error {
	var data []byte
	switch domain.ManifestFormat(opts.manifest) {
	case domain.ManifestCSV:
		var sb strings.Builder
		if err := csvexport.WriteManifest(&sb, run); err != nil {
			return err
		}
		data = []byte(sb.String())
	case domain.ManifestXLSX:
		var err error
		if data, err = xlsxexport.Build(run); err != nil {
			return err
		}
	case "none":
		return nil
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, opts.manifest)
	}

	path := filepath.Join(opts.outDir, csvexport.BuildFilename(run.SourceName, opts.manifest))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	fmt.Println("manifest", path)
	return nil
}
