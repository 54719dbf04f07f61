package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sharescrape/internal/logging"
	"sharescrape/internal/scrape"
	"sharescrape/internal/session"
	_ "sharescrape/internal/sites/tianyancha"
	"sharescrape/internal/table"
	"sharescrape/internal/tabs"
	"sharescrape/internal/wait"
	"sharescrape/internal/workbook"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	inputFile    string
	outputFile   string
	site         string
	showUI       bool
	proxyURL     string
	browserBin   string
	timeout      time.Duration
	pollAttempts int
	pollInterval time.Duration
	tabSettle    time.Duration
	tabLabels    []string
	logFile      string
	verbose      bool
	noLogin      bool
	envFile      string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "sharescrape",
		Short:   "Scrape shareholder tables for a list of companies into a workbook",
		Version: version,
		Long: `sharescrape logs into the company information site, searches every company
from the input list, reads the shareholder and historical shareholder tables of
its detail page and appends them to the output workbook. Rows already stored in
the workbook are kept; each run only adds to it.`,
		Example: `  # Scrape the companies listed in column A of test.xlsx
  sharescrape -i test.xlsx -o L1_share.xlsx --showui

  # Read credentials from a .env file and log every retry
  sharescrape --env .env -i companies.csv -v

  # Prefer a different historical tab label
  sharescrape --tabs 历史主要股东,历史股东信息`,
		Args:         cobra.NoArgs,
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "test.xlsx", "Company list (.xlsx, .csv or .txt; first column, no header)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", workbook.DefaultPath, "Workbook the tables are merged into")
	rootCmd.Flags().StringVar(&site, "site", "tianyancha", "Site provider ("+strings.Join(session.Names(), ", ")+")")
	rootCmd.Flags().BoolVar(&showUI, "showui", true, "Show browser UI (needed to solve the CAPTCHA)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", os.Getenv("SHARESCRAPE_PROXY"), "Proxy URL, defaults to SHARESCRAPE_PROXY env var")
	rootCmd.Flags().StringVar(&browserBin, "browser-bin", os.Getenv("SHARESCRAPE_BROWSER"), "Browser executable, defaults to SHARESCRAPE_BROWSER env var (empty to auto-detect)")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Timeout for navigation and element lookups")
	rootCmd.Flags().IntVar(&pollAttempts, "poll-attempts", table.DefaultAttempts, "Times a loading table is checked before giving up")
	rootCmd.Flags().DurationVar(&pollInterval, "poll-interval", table.DefaultInterval, "Pause between table load checks")
	rootCmd.Flags().DurationVar(&tabSettle, "tab-settle", tabs.DefaultSettle, "Pause after switching to the historical tab")
	rootCmd.Flags().StringSliceVar(&tabLabels, "tabs", tabs.DefaultHistoricalLabels, "Historical tab labels, in order of preference")
	rootCmd.Flags().StringVar(&logFile, "log-file", "scraping.log", "Append log records to this file (empty to disable)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log debug records, including table previews")
	rootCmd.Flags().BoolVar(&noLogin, "no-login", false, "Skip the login form and CAPTCHA pause")
	rootCmd.Flags().StringVar(&envFile, "env", ".env", "Dotenv file with TYC_PHONE and TYC_PASSWORD")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	logger, closeLog, err := logging.New(os.Stderr, logging.Options{Verbose: verbose, File: logFile})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer closeLog()

	provider, ok := session.Get(site)
	if !ok {
		return fmt.Errorf("unknown site: %s", site)
	}

	companies, err := workbook.ReadCompanies(inputFile)
	if err != nil {
		return err
	}
	logger.Info("loaded company list", "file", inputFile, "companies", len(companies))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nav, err := provider.Open(ctx, session.Options{
		ProxyURL:   proxyURL,
		BrowserBin: browserBin,
		ShowUI:     showUI,
		Timeout:    timeout,
		Phone:      os.Getenv("TYC_PHONE"),
		Password:   os.Getenv("TYC_PASSWORD"),
		SkipLogin:  noLogin,
		Prompt:     os.Stdin,
		PromptOut:  os.Stderr,
		Logger:     logger,
	})
	if err != nil {
		logger.Log(ctx, logging.LevelCritical, "failed to start session", "err", err)
		return err
	}
	defer nav.Close()

	ext := table.NewExtractor(wait.Fixed(pollAttempts, pollInterval), logger)
	sw := tabs.NewSwitcher(tabLabels, tabSettle, wait.Policy{}, logger)
	merger := workbook.NewMerger(outputFile, logger)
	orch := scrape.NewOrchestrator(nav, ext, sw, merger, logger)

	report, err := scrape.NewBatch(orch, logger).Run(ctx, companies)
	report.Render(cmd.OutOrStdout())
	return err
}
