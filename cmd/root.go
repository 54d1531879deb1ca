package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"plowdown/downloader"
	"plowdown/internal"
	"plowdown/utils"
)

var (
	maxRetries     int
	unlimitedTry   bool
	noExtraWait    bool
	noOverwrite    bool
	forceOverwrite bool
	checkOnly      bool
	markQueue      bool
	captchaMethod  string
	tempDirectory  string
	outputDir      string
	cookiesPath    string
	rateLimit      string
	proxyURL       string
	timeoutSecs    int
	workers        int
	noFallback     bool
	runDownload    string
	downloadInfo   string
	quiet          bool
	debug          bool
	logLevel       string
	logFile        string
	config         *internal.Config

	exitCode int
)

var rootCmd = &cobra.Command{
	Use:     "plowdown [OPTIONS] <URL|FILE>...",
	Short:   "Download files from file-sharing hosts",
	Version: "v1.0.0",
	Long: `Plowdown downloads files hosted on file-sharing services. Each link goes
through a site-specific resolver module that turns the hosting page URL into
a direct file URL (waiting out availability windows and captcha retries as
needed), then through an HTTP transfer with resume and collision handling.

Arguments are direct URLs or link-list files (one URL per line, '#' comments
preserved). Failures are isolated per link; the process exit code reflects
the batch outcome.

Examples:
  plowdown https://example-host.com/file/abc123
  plowdown -o ~/downloads --mark-downloaded links.txt
  plowdown --max-retries 5 --no-overwrite links.txt more-links.txt
  plowdown --check-only https://example-host.com/file/abc123

Environment Variables:
  PLOWDOWN_MAX_RETRIES     Default retry cap
  PLOWDOWN_TIMEOUT         Per-link timeout in seconds
  PLOWDOWN_COOKIES         Path to a Netscape-format cookie file
  PLOWDOWN_CAPTCHA_METHOD  Captcha method (prompt, none, online)
  PLOWDOWN_RATE_LIMIT      Bandwidth cap (e.g. 500K, 2M)`,
	Args: cobra.MinimumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfiguration(cmd); err != nil {
			return fmt.Errorf("configuration error: %v", err)
		}

		if err := internal.InitLogger(config); err != nil {
			return fmt.Errorf("failed to initialize logger: %v", err)
		}

		internal.LogDebug("configuration loaded: retries=%d, timeout=%d, captcha=%s, workers=%d",
			maxRetries, timeoutSecs, captchaMethod, workers)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var rateLimitBytes int64
		if rateLimit != "" {
			var err error
			rateLimitBytes, err = utils.ParseRateLimit(rateLimit)
			if err != nil {
				return fmt.Errorf("invalid rate limit format: %v\n\nSupported formats:\n  - 1M (1 MB/s)\n  - 500K (500 KB/s)\n  - 1024 (1024 bytes/s)", err)
			}
		}

		retries := maxRetries
		if unlimitedTry {
			retries = -1
		}

		opts := &internal.DownloadOptions{
			MaxRetries:      retries,
			NoExtraWait:     noExtraWait,
			NoOverwrite:     noOverwrite,
			Overwrite:       forceOverwrite,
			CheckOnly:       checkOnly,
			MarkQueue:       markQueue,
			CaptchaMethod:   captchaMethod,
			TempDirectory:   tempDirectory,
			OutputDirectory: outputDir,
			Timeout:         time.Duration(timeoutSecs) * time.Second,
			RateLimit:       rateLimitBytes,
			CookieFile:      cookiesPath,
			RunDownload:     runDownload,
			DownloadInfo:    downloadInfo,
			Quiet:           quiet,
		}

		return executeBatch(args, opts)
	},
}

// loadConfiguration merges the config file, environment and CLI flags in
// increasing precedence.
func loadConfiguration(cmd *cobra.Command) error {
	config = internal.DefaultConfig()
	if err := config.LoadConfigFile(""); err != nil {
		return err
	}
	config.LoadFromEnv()

	// Flags the user left untouched pick up the merged config value.
	if !cmd.Flags().Changed("max-retries") {
		maxRetries = config.MaxRetries
	}
	if !cmd.Flags().Changed("timeout") {
		timeoutSecs = config.DefaultTimeout
	}
	if !cmd.Flags().Changed("captcha-method") {
		captchaMethod = config.CaptchaMethod
	}
	if !cmd.Flags().Changed("temp-directory") {
		tempDirectory = config.TempDirectory
	}
	if !cmd.Flags().Changed("output-directory") {
		outputDir = config.OutputDirectory
	}
	if !cmd.Flags().Changed("cookies") {
		cookiesPath = config.CookieFile
	}
	if !cmd.Flags().Changed("limit-rate") {
		rateLimit = config.RateLimit
	}
	if !cmd.Flags().Changed("workers") {
		workers = config.Workers
	}
	if !cmd.Flags().Changed("no-fallback") {
		noFallback = config.NoFallback
	}

	if debug {
		config.EnableDebug = true
		config.LogLevel = "debug"
	}
	if quiet {
		config.QuietMode = true
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	if logFile != "" {
		config.LogFile = logFile
	}

	config.MaxRetries = maxRetries
	config.DefaultTimeout = timeoutSecs
	config.CaptchaMethod = captchaMethod
	config.TempDirectory = tempDirectory
	config.OutputDirectory = outputDir
	config.Workers = workers

	return config.ValidateConfig()
}

// executeBatch runs the batch pipeline with signal-driven cancellation.
// Pending cleanup (cookie jars, temp files) still runs on interrupt.
func executeBatch(inputs []string, opts *internal.DownloadOptions) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		internal.LogInfo("received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()

	var limiter internal.RateLimiter
	if opts.RateLimit > 0 {
		limiter = utils.NewTokenBucketLimiter(opts.RateLimit)
	}

	httpClient := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		ProxyURL: proxyURL,
	})

	registry := downloader.NewRegistry(!noFallback)
	engine := downloader.NewTransferEngine(httpClient, limiter)

	pipeline := downloader.NewPipeline(registry, engine, opts)
	pipeline.Workers = workers

	code, err := pipeline.Run(ctx, inputs)
	exitCode = code
	if err != nil {
		return err
	}

	internal.LogDebug("batch finished with exit code %d", code)
	return nil
}

func init() {
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 2, "Retry cap for captcha failures and transfer restarts (env: PLOWDOWN_MAX_RETRIES)")
	rootCmd.Flags().BoolVar(&unlimitedTry, "unlimited-retries", false, "Retry indefinitely, overrides --max-retries")
	rootCmd.Flags().BoolVar(&noExtraWait, "no-extra-wait", false, "Do not wait out hoster availability windows")
	rootCmd.Flags().BoolVar(&noOverwrite, "no-overwrite", false, "Never overwrite existing files, pick a .N suffixed name instead")
	rootCmd.Flags().BoolVar(&forceOverwrite, "overwrite", false, "Force a fresh transfer, disabling resume")
	rootCmd.Flags().BoolVar(&checkOnly, "check-only", false, "Only check whether links are alive, do not download")
	rootCmd.Flags().BoolVarP(&markQueue, "mark-downloaded", "m", false, "Annotate processed links in the source link-list file")
	rootCmd.Flags().StringVar(&captchaMethod, "captcha-method", "prompt", "Captcha method: prompt, none, online (env: PLOWDOWN_CAPTCHA_METHOD)")
	rootCmd.Flags().StringVar(&tempDirectory, "temp-directory", "", "Directory for temporary files during transfer")
	rootCmd.Flags().StringVarP(&outputDir, "output-directory", "o", "", "Directory where final files are placed")
	rootCmd.Flags().StringVarP(&cookiesPath, "cookies", "c", "", "Netscape-format cookie file seeding each link's jar (env: PLOWDOWN_COOKIES)")
	rootCmd.Flags().StringVarP(&rateLimit, "limit-rate", "r", "", "Bandwidth limit shared across transfers, e.g. 500K, 2M (env: PLOWDOWN_RATE_LIMIT)")
	rootCmd.Flags().StringVar(&proxyURL, "proxy", "", "HTTP/SOCKS proxy URL")
	rootCmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "Per-link timeout in seconds, 0 = none (env: PLOWDOWN_TIMEOUT)")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of links processed concurrently (env: PLOWDOWN_WORKERS)")
	rootCmd.Flags().BoolVar(&noFallback, "no-fallback", false, "Fail links no module matches instead of fetching them directly")
	rootCmd.Flags().StringVar(&runDownload, "run-download", "", "External download command template with %url, %filename, %cookies")
	rootCmd.Flags().StringVar(&downloadInfo, "download-info-only", "", "Print this template (same placeholders) instead of downloading")

	// Logging flags
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging (env: PLOWDOWN_DEBUG)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Set log level (debug, info, warn, error) (env: PLOWDOWN_LOG_LEVEL)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr (env: PLOWDOWN_LOG_FILE)")
}

// Execute runs the root command and returns the process exit code: 0 when
// every link succeeded, a single failing link's code, or the multiple-failure
// base plus the first failing code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if exitCode == 0 {
			exitCode = internal.ExitCodeFatal
		}
	}
	return exitCode
}
