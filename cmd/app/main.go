package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/airvara/flightdesk/api"
	"github.com/airvara/flightdesk/config"
	"github.com/airvara/flightdesk/internal/bootstrap"
	"github.com/airvara/flightdesk/internal/registry"
	"github.com/airvara/flightdesk/internal/storage"
	"github.com/airvara/flightdesk/internal/ticket"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flightStore := storage.NewFlightStore(cfg.Storage.FlightsFile())
	bookingStore := storage.NewBookingStore(cfg.Storage.BookingsFile())
	waitlistStore := storage.NewWaitlistStore(cfg.Storage.WaitlistFile())

	reg := registry.New(flightStore, bookingStore, waitlistStore)
	if err := reg.Load(ctx); err != nil {
		log.Fatalf("load flights: %v", err)
	}

	tickets := ticket.NewGenerator(cfg.Tickets)

	router := bootstrap.NewRouter(
		api.NewFlightHandler(reg),
		api.NewBookingHandler(reg, tickets),
	)

	if err := bootstrap.Run(ctx, cfg, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
