// Command cinema runs the seat-reservation service: the show and wallet
// aggregates, the saga coordinator and the HTTP API in one process.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/io-da/query"
	"github.com/sirupsen/logrus"

	"github.com/terraskye/cinema-saga/cinema"
	"github.com/terraskye/cinema-saga/config"
	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
	"github.com/terraskye/cinema-saga/eventsourcing/eventbus/amqp"
	busmemory "github.com/terraskye/cinema-saga/eventsourcing/eventbus/memory"
	"github.com/terraskye/cinema-saga/eventsourcing/eventstore/disk"
	"github.com/terraskye/cinema-saga/eventsourcing/eventstore/memory"
	cqrsotel "github.com/terraskye/cinema-saga/eventsourcing/otel"
	"github.com/terraskye/cinema-saga/httpapi"
	"github.com/terraskye/cinema-saga/projection"
	"github.com/terraskye/cinema-saga/reservation"
	"github.com/terraskye/cinema-saga/wallet"
)

// eventStream is an event store that also exposes its committed envelopes.
type eventStream interface {
	cqrs.EventStore
	Events() <-chan *cqrs.Envelope
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slogger)

	cqrs.MustInit()

	var store eventStream
	switch cfg.EventStore {
	case config.StoreDisk:
		fileStore, err := disk.NewFileStore(cfg.EventStoreDir)
		if err != nil {
			logger.WithError(err).Fatal("opening event store")
		}
		store = fileStore
	default:
		store = memory.NewMemoryStore(4096)
	}
	defer store.Close()

	eventBus := busmemory.NewEventBus(256)
	defer eventBus.Close()

	var relay *amqp.Relay
	relayCh := make(chan *cqrs.Envelope, 1024)
	if cfg.AMQPURL != "" {
		relay, err = amqp.NewRelay(cfg.AMQPURL, "cinema.events")
		if err != nil {
			logger.WithError(err).Fatal("connecting to amqp")
		}
		defer relay.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if relay != nil {
		go relay.Run(ctx, relayCh)
	}

	// fan committed events out to the in-process bus and the optional relay
	go func() {
		for env := range store.Events() {
			eventBus.Dispatch(env)
			if relay == nil {
				continue
			}
			select {
			case relayCh <- env:
			default:
				logger.WithField("stream_id", env.StreamID).Warn("relay backlog full, dropping event")
			}
		}
	}()

	go func() {
		for err := range eventBus.Errors() {
			logger.WithError(err).Error("event handler failed")
		}
	}()

	commandBus := cqrs.NewCommandBus(64, 8)
	defer commandBus.Stop()

	appStore := cqrsotel.NewTelemetryStore(store)
	shows := cinema.NewService(appStore, commandBus, logger)
	wallets := wallet.NewService(appStore, commandBus, logger)

	showsByReservation := projection.NewShowsByReservation()
	if err := showsByReservation.Subscribe(ctx, eventBus, slogger); err != nil {
		logger.WithError(err).Fatal("subscribing projection")
	}
	if err := showsByReservation.Rebuild(ctx, store); err != nil {
		logger.WithError(err).Fatal("rebuilding projection")
	}

	provider := cqrs.NewQueryProvider()
	showsByReservation.RegisterProvider(provider)
	queries := query.NewBus()
	queries.Handlers(provider)
	defer queries.Shutdown()

	sagas := reservation.NewCoordinator(reservation.NewMemoryStore(), shows, wallets, logger, reservation.Config{
		MaxAttempts: cfg.SagaMaxAttempts,
		RetryDelay:  cfg.SagaRetryDelay,
		StepTimeout: cfg.SagaStepTimeout,
	})
	if err := sagas.Resume(ctx); err != nil {
		logger.WithError(err).Fatal("resuming reservations")
	}

	server := httpapi.NewServer(shows, wallets, sagas, queries, logger)

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := server.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("http server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown")
	}
	sagas.Wait()
}
