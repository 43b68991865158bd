package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Lelo88/book-management-api/internal/books"
	"github.com/Lelo88/book-management-api/internal/config"
	"github.com/Lelo88/book-management-api/internal/db"
	"github.com/Lelo88/book-management-api/internal/docs"
	"github.com/Lelo88/book-management-api/internal/health"
	"github.com/Lelo88/book-management-api/internal/httpx"
	"github.com/Lelo88/book-management-api/internal/images"
)

const shutdownTimeout = 10 * time.Second

// storage agrupa el repositorio elegido con su chequeo de /ready y su cierre.
type storage struct {
	repository books.Repository
	pinger     health.Pinger
	close      func()
}

// appDeps permite reemplazar todo lo que toca red o disco en tests.
type appDeps struct {
	loadConfig     func() (config.Config, error)
	newLogger      func(cfg config.Config) *slog.Logger
	openStorage    func(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error)
	openImages     func(cfg config.Config) (books.ImageStore, error)
	listenAndServe func(server *http.Server) error
}

var (
	loadConfigFn     = config.Load
	openStorageFn    = openStorage
	openImagesFn     = openImages
	listenAndServeFn = func(server *http.Server) error {
		return server.ListenAndServe()
	}
	fatalf = func(args ...any) {
		fmt.Fprintln(os.Stderr, args...)
		os.Exit(1)
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := appDeps{
		loadConfig:     loadConfigFn,
		newLogger:      newLogger,
		openStorage:    openStorageFn,
		openImages:     openImagesFn,
		listenAndServe: listenAndServeFn,
	}

	if err := run(ctx, deps); err != nil {
		fatalf(err)
	}
}

func run(ctx context.Context, deps appDeps) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}

	logger := deps.newLogger(cfg)

	store, err := deps.openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	imageStore, err := deps.openImages(cfg)
	if err != nil {
		return err
	}

	service := books.NewService(store.repository, imageStore, logger,
		books.WithImageCleanupOnDelete(cfg.DeleteImageOnBookDelete),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           buildRouter(cfg, logger, service, store.pinger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			slog.String("addr", server.Addr),
			slog.String("storage", cfg.StorageDriver),
			slog.String("images", cfg.ImageDriver),
		)
		serveErr <- deps.listenAndServe(server)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// newLogger usa texto en desarrollo y JSON en el resto de entornos.
func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}

	options := &slog.HandlerOptions{Level: level}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, options))
}

// openStorage conecta el driver configurado.
func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if cfg.RunMigrations {
			if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
				return storage{}, err
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return storage{}, err
		}
		return storage{
			repository: books.NewPostgresRepository(pool),
			pinger:     pool,
			close:      pool.Close,
		}, nil

	case config.StorageMongo:
		client, err := db.NewMongoClient(ctx, cfg.MongoURL)
		if err != nil {
			return storage{}, err
		}
		collection := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
		return storage{
			repository: books.NewMongoRepository(collection),
			pinger:     db.MongoPinger{Client: client},
			close: func() {
				disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := client.Disconnect(disconnectCtx); err != nil {
					logger.Warn("mongo disconnect", slog.Any("error", err))
				}
			},
		}, nil

	case config.StorageMemory:
		repository := books.NewMemoryRepository()
		return storage{repository: repository, pinger: repository, close: func() {}}, nil

	default:
		return storage{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

// openImages crea el almacenamiento de portadas configurado.
func openImages(cfg config.Config) (books.ImageStore, error) {
	switch cfg.ImageDriver {
	case config.ImagesLocal:
		return images.NewLocalStore(cfg.UploadDir, cfg.ImageFolder, cfg.PublicBaseURL), nil
	case config.ImagesCloudinary:
		return images.NewCloudinaryStore(cfg.CloudinaryURL, cfg.ImageFolder)
	default:
		return nil, fmt.Errorf("unsupported IMAGE_DRIVER %q", cfg.ImageDriver)
	}
}

func buildRouter(cfg config.Config, logger *slog.Logger, service books.ServiceAPI, pinger health.Pinger) http.Handler {
	r := chi.NewRouter()

	// Middlewares base para trazabilidad y estabilidad.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.EchoRequestID)
	r.Use(httpx.AccessLog(logger))
	r.Use(httpx.Recoverer(logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpx.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(httpx.Timeout(cfg.RequestTimeout))
	}

	// Errores de routing se manejan a nivel router.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusNotFound, httpx.MessageRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, httpx.MessageMethodNotAllowed)
	})

	healthHandler := health.New(pinger)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	docs.RegisterRoutes(r)

	if cfg.ImageDriver == config.ImagesLocal {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(httpx.LimitBody(cfg.MaxUploadBytes))
		books.RegisterRoutes(r, books.NewHandler(service, logger))
	})

	return r
}
