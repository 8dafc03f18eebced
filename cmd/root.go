package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jikamens/b2sweeper/b2"
	"github.com/jikamens/b2sweeper/config"
	"github.com/jikamens/b2sweeper/filter"
)

var (
	version   = "dev"
	buildTime = "unknown"

	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *b2.Client

	// Command flags
	bucketName string
	filterExpr string
	preset     string
	dryRun     bool
	noConfirm  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "b2sweeper",
	Short: "A tool to inspect and clean up Backblaze B2 buckets",
	Long: `b2sweeper is a CLI tool for maintaining Backblaze B2 backup buckets:
listing files and file versions, deleting old versions matching filter
expressions, cleaning up unfinished large file uploads, and downloading
files by id.`,
}

// SetVersion sets the version information for the application
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, bt)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&bucketName, "bucket", "b", "", "bucket name (defaults to b2.bucket from config)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "perform a dry run without making changes")

	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(bucketsCmd)
}

// initializeApp initializes the configuration and the B2 client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Override dry-run from command line if specified
	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}

	// Create the B2 client; this performs the account authorization
	client, err = b2.NewClient(cfg.B2.AccountID, cfg.B2.ApplicationKey, logger)
	if err != nil {
		return fmt.Errorf("failed to create B2 client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// resolveBucket maps the configured or flag-given bucket name to its id.
func resolveBucket(ctx context.Context) (b2.Bucket, error) {
	name := bucketName
	if name == "" {
		name = cfg.B2.Bucket
	}
	if name == "" {
		return b2.Bucket{}, fmt.Errorf("no bucket specified; use --bucket or set b2.bucket in config")
	}

	buckets, err := client.ListBuckets(ctx, name)
	if err != nil {
		return b2.Bucket{}, fmt.Errorf("failed to look up bucket %q: %w", name, err)
	}
	if len(buckets) == 0 {
		return b2.Bucket{}, fmt.Errorf("bucket %q not found", name)
	}
	return buckets[0], nil
}

// getFilter determines and compiles the filter expression to use.
// Returns nil when no expression is configured and none is required.
func getFilter(required bool) (*filter.Filter, error) {
	// Priority: command line filter > preset > default
	expr := filterExpr
	if expr == "" && preset != "" {
		presetFilter, ok := cfg.Filter.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("preset '%s' not found in config", preset)
		}
		expr = presetFilter.Expression
	}
	if expr == "" {
		expr = cfg.Filter.DefaultExpression
	}

	if expr == "" {
		if required {
			return nil, fmt.Errorf("no filter expression specified")
		}
		return nil, nil
	}

	f, err := filter.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return f, nil
}

// confirm asks the user before a destructive operation.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var response string
	fmt.Scanln(&response)
	return strings.ToLower(strings.TrimSpace(response)) == "y"
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:     "test",
	Short:   "Test the connection to Backblaze B2",
	Long:    `Authorize against the B2 API and display basic account information.`,
	PreRunE: initializeApp,
	RunE:    runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	// The connection was already authorized during client creation
	fmt.Println("✓ Authorization successful!")

	ctx := context.Background()
	buckets, err := client.ListBuckets(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list buckets: %w", err)
	}

	fmt.Printf("\nAccount %s:\n", client.AccountID())
	fmt.Printf("- Total buckets: %d\n", len(buckets))

	if len(buckets) > 0 {
		fmt.Printf("\nBuckets:\n")
		for _, bucket := range buckets {
			fmt.Printf("  • %s (%s, ID: %s)\n", bucket.BucketName, bucket.BucketType, bucket.BucketID)
		}
	}

	return nil
}

// bucketsCmd represents the buckets command
var bucketsCmd = &cobra.Command{
	Use:     "buckets [name]",
	Short:   "List the account's buckets",
	Long:    `List the account's buckets, optionally filtered by exact name.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: initializeApp,
	RunE:    runBuckets,
}

func runBuckets(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	buckets, err := client.ListBuckets(context.Background(), name)
	if err != nil {
		return err
	}

	if len(buckets) == 0 {
		fmt.Println("No buckets found.")
		return nil
	}

	for _, bucket := range buckets {
		fmt.Printf("• %s (%s)\n", bucket.BucketName, bucket.BucketType)
		if cfg.Safety.ShowDetails {
			fmt.Printf("  ID: %s\n", bucket.BucketID)
		}
	}

	return nil
}
