package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/afero"
	"github.com/twmb/franz-go/pkg/sr"

	"github.com/niksmo/marketplace/config"
	"github.com/niksmo/marketplace/internal/adapter/httphandler"
	"github.com/niksmo/marketplace/internal/adapter/imagestore"
	"github.com/niksmo/marketplace/internal/adapter/kafka"
	"github.com/niksmo/marketplace/internal/adapter/storage"
	"github.com/niksmo/marketplace/internal/core/port"
	"github.com/niksmo/marketplace/internal/core/service"
	"github.com/niksmo/marketplace/pkg/schema"
)

// App assembles the adapters around the core services: one storage
// backend, the image store, the optional events producer and the HTTP
// server.
type App struct {
	ctx context.Context
	cfg config.Config

	storage    port.CatalogStorage
	pgStorage  *storage.PgStorage
	images     port.ImageStore
	events     port.CatalogEventsProducer
	evProducer kafka.CatalogEventsProducer
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	app.initImageStore()
	app.initEventsProducer()
	app.initHTTPServer()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	switch app.cfg.Storage.Backend {
	case config.StorageBackendPostgres:
		s, err := storage.NewPgStorage(app.ctx, app.cfg.Storage.PostgresDSN)
		if err != nil {
			app.fallDown(op, err)
		}
		app.pgStorage = s
		app.storage = s
	case config.StorageBackendFile:
		s, err := storage.NewFileStorage(
			afero.NewOsFs(), app.cfg.Storage.FileDir,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		app.storage = s
	default:
		app.fallDown(op, fmt.Errorf(
			"unknown storage backend %q", app.cfg.Storage.Backend,
		))
	}
}

func (app *App) initImageStore() {
	const op = "App.initImageStore"

	s, err := imagestore.New(
		afero.NewOsFs(), app.cfg.Images.Dir, app.cfg.Images.PublicBaseURL,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.images = s
}

func (app *App) initEventsProducer() {
	const op = "App.initEventsProducer"

	if !app.cfg.EventsEnabled() {
		slog.Info("catalog events are disabled: no seed brokers configured")
		return
	}

	srClient, err := sr.NewClient(
		sr.URLs(app.cfg.Broker.SchemaRegistryURLs...),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	subject := app.cfg.Broker.CatalogEventsTopic + "-value"
	serde, err := schema.NewSerdeCatalogEventV1(
		app.ctx,
		schema.SubjectOpt(subject),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	p, err := kafka.NewCatalogEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx,
			app.cfg.Broker.SeedBrokers,
			app.cfg.Broker.CatalogEventsTopic,
		),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.evProducer = p
	app.events = p
}

func (app *App) initHTTPServer() {
	products := service.NewProducts(app.storage, app.images, app.events)
	reviews := service.NewReviews(app.storage, app.events)

	mux := http.NewServeMux()
	httphandler.RegisterProducts(mux, products, app.cfg.PublicBaseURL)
	httphandler.RegisterReviews(mux, reviews)

	imagesFS := afero.NewHttpFs(afero.NewOsFs())
	mux.Handle("GET /img/", http.StripPrefix(
		"/img/", http.FileServer(imagesFS.Dir(app.cfg.Images.Dir)),
	))

	handler := httphandler.AllowJSON(mux)
	handler = httphandler.AllowOrigins(app.cfg.AllowedOrigins)(handler)
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, handler)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	if app.events != nil {
		app.evProducer.Close()
	}
	if app.pgStorage != nil {
		app.pgStorage.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
