package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"olx-monitor/config"
	"olx-monitor/monitor"
	"olx-monitor/notify"
	"olx-monitor/scraper/olx"
	"olx-monitor/services"
	"olx-monitor/storage"
	"olx-monitor/utils"
)

var version = "dev"

var (
	configPath string
	saveToFile bool
	interval   time.Duration
	pages      int
	dataDir    string
	showUI     bool
	once       bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "olx-monitor [URL]",
		Short:   "Watch an OLX search page and report new offers",
		Version: version,
		Long: `olx-monitor renders an OLX search results page on a schedule, keeps track
of the offers it has already seen and reports the new ones in the terminal,
in JSON snapshots and through desktop, Discord or Telegram notifications.`,
		Example: `  # Watch a search every 5 minutes
  olx-monitor "https://www.olx.pl/elektronika/telefony/q-iphone/"

  # Scan two result pages once and save the offers to ./data
  olx-monitor --once --pages 2 --save "https://www.olx.pl/motoryzacja/"`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "YAML config file (optional)")
	rootCmd.Flags().BoolVarP(&saveToFile, "save", "s", false, "Save each batch of offers as JSON")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", 5*time.Minute, "Time between scans")
	rootCmd.Flags().IntVarP(&pages, "pages", "p", 1, "Result pages to scan per cycle")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "data", "Directory for JSON snapshots")
	rootCmd.Flags().BoolVar(&showUI, "show-ui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single scan and exit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, args)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := utils.NewLogger()
	if strings.EqualFold(cfg.LogLevel, "debug") {
		logger.SetDebug(true)
	}

	if cfg.TargetURL == "" {
		if cfg.TargetURL, err = promptTargetURL(); err != nil {
			return err
		}
	}
	if err := config.ValidateTargetURL(cfg.TargetURL); err != nil {
		return err
	}
	targetURL, err := config.WithSorting(cfg.TargetURL, cfg.SortOrder)
	if err != nil {
		return err
	}

	logger.Info("=== OLX Monitor starting ===")
	logger.Info("Config: pages %d | interval %v | save %v | headless %v",
		cfg.PagesToScrape, cfg.ScanInterval, cfg.SaveToFile, cfg.Headless)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor := olx.New(cfg, logger)
	defer extractor.Close()

	m := monitor.New(targetURL, extractor, services.NewController(logger, nil), logger).
		WithDisplay(services.NewDisplay(os.Stdout), services.NewInsightService(logger))

	if cfg.SaveToFile {
		snaps, err := storage.NewSnapshotWriter(cfg.DataDir)
		if err != nil {
			return err
		}
		m.WithSnapshots(snaps)
	}

	if cfg.RawCSVPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.RawCSVPath)
		if err != nil {
			return err
		}
		defer csvWriter.Close()
		m.WithRawWriter(csvWriter)
	}

	var archive *storage.SQLWriter
	if cfg.ArchiveDriver != "" {
		archive, err = storage.NewSQLWriter(cfg.ArchiveDriver, cfg.ArchiveConnString())
		if err != nil {
			return err
		}
		defer archive.Close()
		m.WithArchive(archive)
		logger.Info("Archiving new offers to %s", cfg.ArchiveDriver)
	}

	dispatcher, err := buildDispatcher(cfg, logger)
	if err != nil {
		return err
	}
	if dispatcher.Len() == 0 {
		logger.Warn("No notification channel configured; new offers are only printed")
	}
	m.WithNotifier(dispatcher)

	if once {
		if _, err := m.RunOnce(ctx); err != nil {
			return err
		}
		if archive != nil {
			reportArchive(ctx, archive, logger)
		}
		return nil
	}

	if err := m.Run(ctx, cfg.ScanInterval); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("=== OLX Monitor stopped ===")
	return nil
}

// applyFlags lets explicitly set flags and the URL argument override the
// file and environment configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config, args []string) {
	if len(args) == 1 {
		cfg.TargetURL = strings.TrimSpace(args[0])
	}
	flags := cmd.Flags()
	if flags.Changed("save") {
		cfg.SaveToFile = saveToFile
	}
	if flags.Changed("interval") {
		cfg.ScanInterval = interval
	}
	if flags.Changed("pages") {
		cfg.PagesToScrape = pages
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("show-ui") {
		cfg.Headless = !showUI
	}
}

func buildDispatcher(cfg *config.Config, logger *utils.Logger) (*notify.Dispatcher, error) {
	var notifiers []notify.Notifier

	if cfg.DesktopNotify {
		notifiers = append(notifiers, notify.NewDesktopNotifier())
	}
	if cfg.DiscordWebhook != "" {
		notifiers = append(notifiers, notify.NewDiscordNotifier(cfg.DiscordWebhook, nil, logger))
	}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}

	return notify.NewDispatcher(logger, notifiers...), nil
}

// reportArchive logs the size of the archive and its newest offer after a
// single scan.
func reportArchive(ctx context.Context, archive *storage.SQLWriter, logger *utils.Logger) {
	offers, err := archive.FetchAll(ctx)
	if err != nil {
		logger.Warn("[storage] Archive summary failed: %v", err)
		return
	}
	if len(offers) == 0 {
		logger.Info("[storage] Archive is empty")
		return
	}
	newest := offers[0]
	logger.Info("[storage] Archive holds %d offers, newest: %s (%s)",
		len(offers), newest.Title, newest.Date.Format("02.01.2006 15:04"))
}

func promptTargetURL() (string, error) {
	fmt.Print("Enter OLX search URL: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return "", fmt.Errorf("read target URL: %w", config.ErrMissingTargetURL)
	}
	return strings.TrimSpace(line), nil
}
