package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "connections-scraper",
	Short: "Signs in to LinkedIn and stores the account's connections in a database.",
	Long: `connections-scraper drives a real browser through the sign-in form, the member's
own profile and the fully scrolled connections page, then writes one row per
record to a fresh "connections" table.

Every flag can also be set through the environment variable named in brackets
or a .env file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

type flagBinding struct {
	key   string
	name  string
	usage string
	value any
}

var bindings = []flagBinding{
	{"LINKEDIN_USERNAME", "username", "account e-mail or phone", ""},
	{"LINKEDIN_PASSWORD", "password", "account password", ""},
	{"BASE_URL", "base-url", "site root", "https://www.linkedin.com"},
	{"WAIT_SECONDS", "wait", "seconds to wait after each navigation step", 10},
	{"SCROLL_MAX_ITERATIONS", "scroll-max-iterations", "give up scrolling after this many iterations", 500},
	{"BROWSER_DRIVER", "browser", "browser driver: chromedp or rod", "chromedp"},
	{"HEADLESS", "headless", "run the browser without a window", false},
	{"CHROME_PATH", "chrome-path", "browser executable; empty to auto-detect", ""},
	{"STORE_DRIVER", "store", "record store: sqlite or postgres", "sqlite"},
	{"DB_PATH", "db", "sqlite database file, or :memory:", "linkedin.db"},
	{"POSTGRES_URL", "postgres-url", "postgres connection string for --store=postgres", ""},
	{"LOG_PATH", "log", "browser console log file", "linkedin.log"},
	{"LOG_LEVEL", "log-level", "debug, info, warn or error", "info"},
	{"REDIS_ADDR", "redis-addr", "archive raw snapshots to this redis; empty to disable", ""},
	{"REDIS_PASSWORD", "redis-password", "redis password", ""},
	{"REDIS_DB", "redis-db", "redis database number", 0},
	{"SNAPSHOT_TTL_HOURS", "snapshot-ttl", "hours archived snapshots are kept", 48},
	{"METRICS_FILE", "metrics-file", "write prometheus metrics to this textfile at exit", ""},
	{"STATUS_ADDR", "status-addr", "serve /api/health, /api/progress and /metrics on this address", ""},
}

func init() {
	flags := rootCmd.Flags()
	for _, b := range bindings {
		usage := fmt.Sprintf("%s [%s]", b.usage, b.key)
		switch v := b.value.(type) {
		case string:
			flags.String(b.name, v, usage)
		case int:
			flags.Int(b.name, v, usage)
		case bool:
			flags.Bool(b.name, v, usage)
		}
		if err := viper.BindPFlag(b.key, flags.Lookup(b.name)); err != nil {
			panic(err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Scrape failed", "error", err)
		stop()
		os.Exit(1)
	}
}
