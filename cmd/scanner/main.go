package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/homefront-io/redalert-gateway/pkg/catalog"
	"github.com/homefront-io/redalert-gateway/pkg/config"
	"github.com/homefront-io/redalert-gateway/pkg/notifier"
	"github.com/homefront-io/redalert-gateway/pkg/oref"
	"github.com/homefront-io/redalert-gateway/pkg/services"
	"github.com/homefront-io/redalert-gateway/pkg/store"
)

func main() {
	// Configure Log Level from Environment Variable
	logLevelStr := os.Getenv("LOG_LEVEL")
	switch strings.ToLower(logLevelStr) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up the alert source and load the reference catalogs once. They are
	// reused for the lifetime of the process.
	source := oref.NewClient(&cfg.Oref)
	catalogs, err := catalog.Load(ctx, source)
	if err != nil {
		logrus.Fatalf("Failed to load catalogs: %v", err)
	}

	// Set up the storage backend
	pool, err := store.NewPool(ctx, &cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	storage := store.NewPostgresStorage(pool, cfg.Alerting.PageSize)
	if err := storage.EnsureSchema(ctx); err != nil {
		logrus.Fatalf("Failed to ensure schema: %v", err)
	}

	// Set up the distribution stream for fan-out notifications
	publisher, err := notifier.NewStreamPublisher(&cfg.Timeplus)
	if err != nil {
		logrus.Fatalf("Failed to connect to Timeplus: %v", err)
	}
	defer publisher.Close()

	if err := publisher.EnsureStream(ctx); err != nil {
		logrus.Fatalf("Failed to set up notification stream: %v", err)
	}

	// Wire the store's change events into the notifier
	st := store.NewStore(storage, int64(cfg.Alerting.CooldownS))
	st.OnChange(notifier.New(publisher).OnChange)

	scanner := services.NewScanner(source, catalogs, st)
	scanner.Run(ctx, time.Duration(cfg.Oref.PollIntervalS)*time.Second)

	logrus.Info("Scanner exited properly")
}
