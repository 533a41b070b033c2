// Command reconcile-counters recomputes every meme's vote and comment counters
// from the stored rows and repairs the ones that drifted.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/pscheid92/memeboard/internal/adapter/postgres"
	"github.com/pscheid92/memeboard/internal/app"
	"github.com/pscheid92/memeboard/internal/domain"
	"github.com/pscheid92/memeboard/internal/platform/logging"
)

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "PostgreSQL URL (or set DATABASE_URL env)")
		dryRun      = flag.Bool("dry-run", false, "Report drifted memes without writing")
		timeout     = flag.Duration("timeout", 5*time.Minute, "Abort after this long")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Database URL required (--database or DATABASE_URL env)")
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, "text")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, *databaseURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	slog.Info("Connected to database", "url", sanitizeURL(*databaseURL))

	reconciler := postgres.NewReconciler(pool)
	var counters domain.CounterReconciler = reconciler
	if *dryRun {
		counters = reconciler.DryRun()
	}

	start := time.Now()
	svc := app.NewService(app.Deps{Reconciler: counters})
	fixed, err := svc.ReconcileCounters(ctx)
	if err != nil {
		log.Fatalf("Reconciliation failed: %v", err)
	}

	slog.Info("Reconciliation complete", "drifted_memes", fixed, "dry_run", *dryRun, "duration", time.Since(start))
}

// sanitizeURL hides the password of a connection URL for logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
