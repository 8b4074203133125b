// Command fixlinks links every contract to a merchant record, creating the
// merchant from the contract's company info when none matches.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"paydesk/internal/app"
	"paydesk/internal/config"
	"paydesk/internal/logging"
	"paydesk/internal/services/linking"
)

func main() {
	os.Exit(run())
}

func run() int {
	verbose := flag.Bool("v", false, "print every contract result as JSON")
	flag.Parse()

	config.LoadEnv()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, err := app.OpenStore(cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to open store")
		return 2
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	report, err := linking.NewService(store, log).FixAll(ctx)
	if *verbose {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			log.WithError(encErr).Error("Failed to print report")
		}
	}
	if err != nil {
		log.WithError(err).Error("Some contracts could not be linked")
		return 1
	}
	return 0
}
