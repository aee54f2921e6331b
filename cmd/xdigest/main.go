package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"xdigest/internal/collect"
	"xdigest/internal/config"
	"xdigest/internal/dedup"
	"xdigest/internal/pipeline"
	"xdigest/internal/schedule"
	"xdigest/internal/server"
	"xdigest/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "xdigest",
	Short:   "Daily digest of curated X accounts",
	Long:    "xdigest collects posts from curated accounts, ranks them, and delivers a daily analyzed digest by email.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// API keys and SMTP credentials may live in a local .env
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
}

func openDB() (*store.Store, error) {
	return store.Open(filepath.Join(cfg.GetDataDir(), "xdigest.db"))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("xdigest", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/xdigest/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure accounts, keywords, API keys, and email.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Posts:")
		fmt.Printf("  Total collected: %d\n", stats.TotalPosts)
		fmt.Printf("  Scored: %d\n", stats.ScoredPosts)
		fmt.Println("\nReports:")
		fmt.Printf("  Total: %d\n", stats.Reports)
		if stats.LastReport != "" {
			fmt.Printf("  Last report: %.10s\n", stats.LastReport)
		}
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect posts from configured sources without generating a report",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Collecting posts from sources...")
		posts := collect.NewCollector(cfg.Collection).Collect(cmd.Context())
		unique := dedup.New(db).Deduplicate(posts)

		if err := db.SavePosts(unique, ""); err != nil {
			return fmt.Errorf("saving posts: %w", err)
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", len(posts))
		fmt.Printf("  New posts: %d\n", len(unique))
		fmt.Printf("  Duplicates skipped: %d\n", len(posts)-len(unique))
		return nil
	},
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> dedup -> rank -> analyze -> report -> email",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}

		result := pipe.Run(cmd.Context())
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.ReportID != "" {
			fmt.Println("\nPipeline complete! Run 'xdigest serve' to view the report.")
		}
		return nil
	},
}

// --- reports command ---

var reportsLimit int

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List recent reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		reports, err := db.GetRecentReports(reportsLimit)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No reports yet. Run 'xdigest run' to generate one.")
			return nil
		}

		for _, r := range reports {
			fmt.Printf("%.10s  %-30s  %d posts  %s\n", r.Date, r.Title, r.PostCount, r.ID)
		}
		return nil
	},
}

func init() {
	reportsCmd.Flags().IntVarP(&reportsLimit, "limit", "n", 10, "Number of reports to list")
}

// --- schedule command ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline daily at the configured send time",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}

		sched, err := schedule.New(cfg.Email.SendTime, func(ctx context.Context) {
			result := pipe.Run(ctx)
			for _, step := range result.Steps {
				if step.Err != nil {
					log.Printf("%s: %v", step.Name, step.Err)
				}
			}
		})
		if err != nil {
			return err
		}

		fmt.Printf("Scheduler started, daily run at %s. Press Ctrl+C to stop.\n", cfg.Email.SendTime)
		sched.Start(cmd.Context())
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local report browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}
