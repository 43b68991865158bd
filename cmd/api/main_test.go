package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Lelo88/book-management-api/internal/books"
	"github.com/Lelo88/book-management-api/internal/config"
	"github.com/Lelo88/book-management-api/internal/httpx"
	"github.com/Lelo88/book-management-api/internal/images"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	pingCalled bool
}

func (pinger *fakePinger) Ping(ctx context.Context) error {
	pinger.pingCalled = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()

	return config.Config{
		Port:           "7070",
		Environment:    "development",
		StorageDriver:  config.StorageMemory,
		ImageDriver:    config.ImagesLocal,
		ImageFolder:    "Book-Management",
		UploadDir:      t.TempDir(),
		PublicBaseURL:  "http://localhost:7070",
		MaxUploadBytes: 1 << 20,
		RequestTimeout: 5 * time.Second,
	}
}

// testDeps arma dependencias en memoria; closed indica si se cerró el storage.
func testDeps(t *testing.T, closed *bool) appDeps {
	t.Helper()

	cfg := testConfig(t)
	return appDeps{
		loadConfig: func() (config.Config, error) { return cfg, nil },
		newLogger:  func(config.Config) *slog.Logger { return discardLogger() },
		openStorage: func(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
			repository := books.NewMemoryRepository()
			return storage{repository: repository, pinger: repository, close: func() { *closed = true }}, nil
		},
		openImages: func(cfg config.Config) (books.ImageStore, error) {
			return images.NewLocalStore(cfg.UploadDir, cfg.ImageFolder, cfg.PublicBaseURL), nil
		},
		listenAndServe: func(server *http.Server) error { return nil },
	}
}

func TestMain_FatalOnError(t *testing.T) {
	originalLoad := loadConfigFn
	originalOpenStorage := openStorageFn
	originalListen := listenAndServeFn
	originalFatal := fatalf
	defer func() {
		loadConfigFn = originalLoad
		openStorageFn = originalOpenStorage
		listenAndServeFn = originalListen
		fatalf = originalFatal
	}()

	expectedErr := errors.New("config failed")
	loadConfigFn = func() (config.Config, error) {
		return config.Config{}, expectedErr
	}
	openStorageFn = func(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
		return storage{}, errors.New("should not be called")
	}
	listenAndServeFn = func(server *http.Server) error {
		return nil
	}

	fatalCalled := false
	var fatalArg any
	fatalf = func(args ...any) {
		fatalCalled = true
		if len(args) > 0 {
			fatalArg = args[0]
		}
	}

	main()

	require.True(t, fatalCalled)
	require.Equal(t, expectedErr, fatalArg)
}

func TestRun_ConfigError(t *testing.T) {
	closed := false
	deps := testDeps(t, &closed)
	deps.loadConfig = func() (config.Config, error) {
		return config.Config{}, errors.New("load failed")
	}
	deps.openStorage = func(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
		t.Fatal("storage should not be opened")
		return storage{}, nil
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "load failed")
}

func TestRun_StorageError(t *testing.T) {
	closed := false
	deps := testDeps(t, &closed)
	deps.openStorage = func(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
		return storage{}, errors.New("db down")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "db down")
}

func TestRun_ImagesError(t *testing.T) {
	closed := false
	deps := testDeps(t, &closed)
	deps.openImages = func(cfg config.Config) (books.ImageStore, error) {
		return nil, errors.New("bad cloudinary url")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "bad cloudinary url")
	require.True(t, closed)
}

func TestRun_ListenError(t *testing.T) {
	closed := false
	deps := testDeps(t, &closed)
	var capturedAddr string
	deps.listenAndServe = func(server *http.Server) error {
		capturedAddr = server.Addr
		return errors.New("listen failed")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "listen failed")
	require.Equal(t, ":7070", capturedAddr)
	require.True(t, closed)
}

func TestRun_ServerClosedIsNotAnError(t *testing.T) {
	closed := false
	deps := testDeps(t, &closed)
	deps.listenAndServe = func(server *http.Server) error {
		return http.ErrServerClosed
	}

	require.NoError(t, run(context.Background(), deps))
	require.True(t, closed)
}

func TestRun_GracefulShutdown(t *testing.T) {
	closed := false
	deps := testDeps(t, &closed)
	block := make(chan struct{})
	deps.listenAndServe = func(server *http.Server) error {
		<-block
		return http.ErrServerClosed
	}
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, run(ctx, deps))
	require.True(t, closed)
}

func TestNewLogger(t *testing.T) {
	cfg := config.Config{Environment: "production", LogLevel: "warn"}

	logger := newLogger(cfg)

	require.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	cfg.LogLevel = "loud"
	require.True(t, newLogger(cfg).Enabled(context.Background(), slog.LevelInfo))
}

func TestOpenStorage_Memory(t *testing.T) {
	cfg := testConfig(t)

	store, err := openStorage(context.Background(), cfg, discardLogger())

	require.NoError(t, err)
	require.IsType(t, &books.MemoryRepository{}, store.repository)
	require.NoError(t, store.pinger.Ping(context.Background()))
	store.close()
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = "sqlite"

	_, err := openStorage(context.Background(), cfg, discardLogger())

	require.ErrorContains(t, err, "STORAGE_DRIVER")
}

func TestOpenImages(t *testing.T) {
	cfg := testConfig(t)

	store, err := openImages(cfg)
	require.NoError(t, err)
	require.IsType(t, &images.LocalStore{}, store)

	cfg.ImageDriver = "s3"
	_, err = openImages(cfg)
	require.ErrorContains(t, err, "IMAGE_DRIVER")
}

func newTestRouter(t *testing.T, cfg config.Config) (http.Handler, *fakePinger) {
	t.Helper()

	pinger := &fakePinger{}
	service := books.NewService(books.NewMemoryRepository(), images.NewLocalStore(cfg.UploadDir, cfg.ImageFolder, cfg.PublicBaseURL), discardLogger())
	return buildRouter(cfg, discardLogger(), service, pinger), pinger
}

func TestBuildRouter_HealthReady(t *testing.T) {
	router, pinger := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	resp := decodeResponse(t, rec)
	require.Equal(t, "ok", asMap(t, resp.Result)["status"])

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeResponse(t, rec)
	require.Equal(t, "ready", asMap(t, resp.Result)["status"])
	require.True(t, pinger.pingCalled)
}

func TestBuildRouter_NotFound(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	for _, path := range []string{"/missing", "/api/book/a/b"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code, path)
		resp := decodeResponse(t, rec)
		require.True(t, resp.Error)
		require.Equal(t, httpx.MessageRouteNotFound, resp.Message)
	}
}

func TestBuildRouter_MethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Error)
	require.Equal(t, httpx.MessageMethodNotAllowed, resp.Message)
}

func TestBuildRouter_BooksAndUploads(t *testing.T) {
	cfg := testConfig(t)
	router, _ := newTestRouter(t, cfg)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("title", "Dune"))
	require.NoError(t, writer.WriteField("author", "Herbert"))
	part, err := writer.CreateFormFile("cover_image", "cover.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/book/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	cover, ok := asMap(t, resp.Result)["cover_image"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(cover, "http://localhost:7070/uploads/Book-Management/"))

	// La portada queda servida desde disco.
	req = httptest.NewRequest(http.MethodGet, strings.TrimPrefix(cover, "http://localhost:7070"), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	onDisk, err := os.ReadFile(filepath.Join(cfg.UploadDir, "Book-Management", filepath.Base(cover)))
	require.NoError(t, err)
	require.Equal(t, onDisk, rec.Body.Bytes())
}

func TestBuildRouter_BodyLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxUploadBytes = 10
	router, _ := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/book/", strings.NewReader(strings.Repeat("x", 64)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.True(t, decodeResponse(t, rec).Error)
}

func TestBuildRouter_CORSAndRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.CORSAllowedOrigins = []string{"http://localhost:5173"}
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	router, _ := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/book/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/book/", nil))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestBuildRouter_NoUploadsForCloudinary(t *testing.T) {
	cfg := testConfig(t)
	cfg.ImageDriver = config.ImagesCloudinary
	router, _ := newTestRouter(t, cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/Book-Management/x.png", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) httpx.Response {
	t.Helper()

	var response httpx.Response
	decoder := json.NewDecoder(bytes.NewReader(recorder.Body.Bytes()))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&response))
	require.Equal(t, recorder.Code, response.Status)
	return response
}

func asMap(t *testing.T, value any) map[string]any {
	t.Helper()

	out, ok := value.(map[string]any)
	require.True(t, ok, "expected map, got %T", value)
	return out
}

func TestBuildRouter_Docs(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	require.Equal(t, "/docs/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}
