package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Mess1Ass/AidoruSite/internal/api"
	"github.com/Mess1Ass/AidoruSite/internal/config"
	"github.com/Mess1Ass/AidoruSite/internal/ics"
	appLog "github.com/Mess1Ass/AidoruSite/internal/log"
	"github.com/Mess1Ass/AidoruSite/internal/schedule"
	"github.com/Mess1Ass/AidoruSite/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath  string
	listen      string
	month       string
	once        bool
	print       bool
	importFeeds bool
	debug       bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("aidorucal starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"api_base_url", conf.APIBaseURL,
		"listen", conf.Listen,
		"editor_mode", conf.EditorMode,
		"refresh", conf.RefreshCron,
		"feed_count", len(conf.Feeds),
		"once", flags.once,
		"print", flags.print,
		"import", flags.importFeeds,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	client := api.NewClient(conf.APIBaseURL, time.Duration(conf.HTTPTimeoutSeconds)*time.Second)
	eng := schedule.NewEngine(client, schedule.WithDefaultCity(conf.DefaultCity))

	year, month, err := resolveMonth(flags.month)
	if err != nil {
		appLog.Error("invalid -month value", err, "month", flags.month)
		os.Exit(1)
	}

	switch {
	case flags.print:
		events, err := eng.FetchMonth(ctx, year, month)
		if err != nil {
			os.Exit(1)
		}
		fmt.Print(renderMonthTable(schedule.MonthKey(year, month), events))
		return

	case flags.importFeeds:
		if err := runImport(ctx, conf, eng, year, month); err != nil {
			appLog.Error("feed import failed", err)
			os.Exit(1)
		}
		return

	case flags.once:
		if _, err := eng.Refresh(ctx, year, month); err != nil {
			os.Exit(1)
		}
		return
	}

	// Daemon mode: initial fetch, cron-driven refresh, companion server.
	if _, err := eng.FetchMonth(ctx, year, month); err != nil {
		appLog.Error("initial month fetch failed", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.RefreshCron, func() {
		now := time.Now()
		if _, err := eng.Refresh(ctx, now.Year(), int(now.Month())); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, eng).Handler(),
	}

	go func() {
		appLog.Info("starting companion server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("companion server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("companion server shutdown failed", err)
	}
	appLog.Info("aidorucal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/aidorucal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.month, "month", "", "Month to operate on as YYYY-MM (default: current month)")
	flag.BoolVar(&cfg.once, "once", false, "Refresh the month once and exit")
	flag.BoolVar(&cfg.print, "print", false, "Print the month's schedule table and exit")
	flag.BoolVar(&cfg.importFeeds, "import", false, "Import configured ICS feeds into the month and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

// resolveMonth parses a YYYY-MM flag value, defaulting to the current
// local month.
func resolveMonth(s string) (int, int, error) {
	if s == "" {
		now := time.Now()
		return now.Year(), int(now.Month()), nil
	}
	if !schedule.ValidMonthKey(s) {
		return 0, 0, errors.New("month must be YYYY-MM")
	}
	parts := strings.SplitN(s, "-", 2)
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	if month < 1 || month > 12 {
		return 0, 0, errors.New("month out of range")
	}
	return year, month, nil
}

// runImport creates one event per imported feed occurrence. Individual
// failures are logged and skipped so one bad entry does not abort the run.
func runImport(ctx context.Context, conf *config.Config, eng *schedule.Engine, year, month int) error {
	if !conf.EditorMode {
		return errors.New("editor mode is disabled; import would mutate the calendar")
	}
	if len(conf.Feeds) == 0 {
		return errors.New("no feeds configured")
	}

	for _, feed := range conf.Feeds {
		body, err := ics.FetchFeed(ctx, feed.URL)
		if err != nil {
			appLog.Error("feed fetch failed", err, "feed", feed.Name)
			continue
		}

		drafts, err := ics.ImportMonth(body, year, month)
		if err != nil {
			appLog.Error("feed parse failed", err, "feed", feed.Name)
			continue
		}

		for _, d := range drafts {
			if _, err := eng.Create(ctx, schedule.Draft{
				Title:    d.Title,
				Date:     d.Date,
				Location: d.Location,
			}); err != nil {
				appLog.Error("imported event create failed", err, "feed", feed.Name, "title", d.Title, "date", d.Date)
			}
		}
	}
	return nil
}
