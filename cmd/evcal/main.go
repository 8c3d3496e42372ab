package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"evcal/internal/catalog"
	"evcal/internal/config"
	"evcal/internal/ics"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/pages"
	"evcal/internal/pgsource"
	"evcal/internal/web"
)

type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	once       bool
	icsOut     string
}

func main() {
	flags := parseFlags()

	if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLog.Error("failed to load env file", err, "path", flags.envFile)
	}
	if flags.configPath == "" {
		flags.configPath = os.Getenv(config.EnvConfig)
	}
	if flags.configPath == "" {
		flags.configPath = "./config.yaml"
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv(os.Getenv)
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone", err)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"week_start", conf.WeekStart,
		"horizon_months", conf.HorizonMonths,
		"max_occurrences", conf.MaxOccurrences,
		"pages_dir", conf.PagesDir,
		"ics_count", len(conf.ICSFiles),
		"database", conf.DatabaseURL != "",
		"refresh", conf.RefreshCron,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources, closeSources, err := buildSources(ctx, conf)
	if err != nil {
		appLog.Error("failed to set up template sources", err)
		os.Exit(1)
	}
	defer closeSources()

	builder := catalog.NewBuilder(catalog.Config{
		WeekStart:      conf.Weekday(),
		HorizonMonths:  conf.HorizonMonths,
		MaxOccurrences: conf.MaxOccurrences,
		TemplateTypes:  conf.TemplateTypes,
		TaxonomyType:   conf.TaxonomyType,
	})

	if flags.once || flags.icsOut != "" {
		if err := runOnce(ctx, conf, builder, sources, loc, flags); err != nil {
			appLog.Error("one-shot run failed", err)
			os.Exit(1)
		}
		return
	}

	srv := web.NewServer(conf, builder, loc)
	refresh := func() {
		templates, err := sources.Templates(ctx)
		if err != nil {
			// Partial results from the healthy sources are still served.
			appLog.Error("template refresh incomplete", err)
		}
		srv.SetTemplates(templates)
	}
	refresh()

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, refresh); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	if err := srv.Serve(ctx); err != nil {
		appLog.Error("http server failed", err)
		os.Exit(1)
	}
	appLog.Info("evcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to config file (default $EVCAL_CONFIG or ./config.yaml)")
	flag.StringVar(&cfg.envFile, "env", ".env", "Path to an optional .env file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Print the occurrences of the rolling window as JSON and exit")
	flag.StringVar(&cfg.icsOut, "ics", "", "Write the rolling window as an iCalendar file and exit")

	flag.Parse()

	return cfg
}

// buildSources wires every configured template source. The returned
// close function releases the database pool, if any.
func buildSources(ctx context.Context, conf *config.Config) (catalog.Sources, func(), error) {
	var sources catalog.Sources
	closeFn := func() {}

	if conf.PagesDir != "" {
		if _, err := os.Stat(conf.PagesDir); err == nil {
			sources = append(sources, &pages.Source{Dir: conf.PagesDir})
		} else {
			appLog.Warn("pages dir not found, skipping", "pages_dir", conf.PagesDir)
		}
	}
	if len(conf.ICSFiles) > 0 {
		sources = append(sources, &ics.Source{
			Locations: conf.ICSFiles,
			Fetcher:   ics.NewFetcher(conf.ICSCacheDir),
		})
	}
	if conf.DatabaseURL != "" {
		pool, err := pgsource.NewPool(ctx, conf.DatabaseURL)
		if err != nil {
			return nil, closeFn, err
		}
		if err := pgsource.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, closeFn, err
		}
		sources = append(sources, pgsource.New(pool))
		closeFn = pool.Close
	}

	if len(sources) == 0 {
		appLog.Warn("no template sources configured")
	}
	return sources, closeFn, nil
}

type dumpOccurrence struct {
	TemplateID string `json:"template_id"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Token      string `json:"token"`
	Route      string `json:"route"`
	Location   string `json:"location,omitempty"`
}

func runOnce(ctx context.Context, conf *config.Config, builder *catalog.Builder, sources catalog.Sources, loc *time.Location, flags flagConfig) error {
	templates, err := sources.Templates(ctx)
	if err != nil {
		appLog.Error("template load incomplete", err)
	}

	window := catalog.RollingWindow(catalog.NaiveNow(loc), conf.HorizonMonths)
	res := builder.Build(templates, window, nil)
	catalog.SortByStart(res.Occurrences)

	if flags.icsOut != "" {
		if err := writeFeedFile(flags.icsOut, res.Occurrences); err != nil {
			return err
		}
		appLog.Info("feed written", "path", flags.icsOut, "occurrences", len(res.Occurrences))
	}
	if flags.once {
		return dump(os.Stdout, res.Occurrences)
	}
	return nil
}

func writeFeedFile(path string, occs []model.Occurrence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ics.WriteFeed(f, "evcal", occs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func dump(w io.Writer, occs []model.Occurrence) error {
	out := make([]dumpOccurrence, 0, len(occs))
	for _, occ := range occs {
		out = append(out, dumpOccurrence{
			TemplateID: occ.TemplateID,
			Title:      occ.Title,
			Start:      occ.StartFormatted(),
			End:        occ.EndFormatted(),
			Token:      occ.Token,
			Route:      occ.Route,
			Location:   occ.Location,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
