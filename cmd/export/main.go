package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vodeneev/easepick/internal/analysis"
	"github.com/Vodeneev/easepick/internal/app"
	"github.com/Vodeneev/easepick/internal/pkg/config"
	"github.com/Vodeneev/easepick/internal/pkg/export"
	"github.com/Vodeneev/easepick/internal/pkg/format"
	"github.com/Vodeneev/easepick/internal/pkg/logging"
	"github.com/Vodeneev/easepick/internal/provider"
)

type options struct {
	Date    string
	League  int
	Season  int
	Mode    string
	TZ      string
	Out     string
	Summary bool
	Command string
}

func main() {
	var configPath string
	var opts options

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config file (optional, can be set via CONFIG_PATH env var)")
	flag.StringVar(&opts.Date, "date", time.Now().UTC().Format("2006-01-02"), "Fixture date (YYYY-MM-DD)")
	flag.IntVar(&opts.League, "league", 0, "League id (optional)")
	flag.IntVar(&opts.Season, "season", 0, "Season year (optional)")
	flag.StringVar(&opts.Mode, "mode", "B", "Analysis mode: B, C or D")
	flag.StringVar(&opts.TZ, "tz", "utc", "Kickoff time zone: utc, local or an IANA name")
	flag.StringVar(&opts.Out, "out", "", "Output file (default stdout)")
	flag.BoolVar(&opts.Summary, "summary", false, "Write the text summary instead of CSV")
	flag.StringVar(&opts.Command, "command", "", `Matchup filter, e.g. "analyze:Arsenal vs Chelsea"`)
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	cfg.ApplyEnv(os.Getenv)

	// stdout may carry the export, so logs go to stderr.
	log.SetOutput(os.Stderr)
	if _, err := logging.SetupLogger(&cfg.Logging, "export"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, closeProvider := app.NewProvider(cfg, nil)
	defer closeProvider()

	out := io.Writer(os.Stdout)
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			log.Fatalf("export: failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := run(ctx, p, cfg.API.Concurrency, opts, out, os.Stderr); err != nil {
		log.Fatalf("export: %v", err)
	}
}

// run loads and analyses one query and writes the rows of the selected mode to out.
// Progress and status messages go to status.
func run(ctx context.Context, p provider.Provider, concurrency int, opts options, out, status io.Writer) error {
	mode, err := analysis.ParseMode(opts.Mode)
	if err != nil {
		return err
	}
	if !format.ValidTimezone(opts.TZ) {
		return fmt.Errorf("unknown time zone %q", opts.TZ)
	}
	q := provider.Query{Date: opts.Date, League: opts.League, Season: opts.Season}
	if err := q.Validate(); err != nil {
		return err
	}

	entries, err := provider.LoadFixturesWithOdds(ctx, p, q, provider.LoadOptions{
		Concurrency: concurrency,
		Progress: func(done, total int, _ provider.Result) {
			fmt.Fprintf(status, "\rFetching odds %d/%d", done, total)
			if done == total {
				fmt.Fprintln(status)
			}
		},
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(status, "No fixtures found for the selected filters.")
		return nil
	}
	fmt.Fprintf(status, "Loaded %d fixtures.\n", len(entries))

	result := analysis.AnalyzeFixtures(entries, analysis.ParseAnalyzeCommand(opts.Command))
	rows := result.Rows(mode)
	fmt.Fprintf(status, "Mode %s: %d rows, picks: %d, flags: %d\n", mode, len(rows), result.Picks, result.Flags)

	if opts.Summary {
		text := export.Summary(mode, rows, opts.TZ)
		if text == "" {
			return nil
		}
		_, err = fmt.Fprintln(out, text)
		return err
	}

	data, err := export.CSV(mode, rows, opts.TZ)
	if err != nil {
		return fmt.Errorf("failed to build csv: %w", err)
	}
	_, err = out.Write(data)
	return err
}
