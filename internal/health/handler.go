package health

import (
	"context"
	"net/http"
	"time"

	"github.com/Lelo88/book-management-api/internal/httpx"
)

// readyTimeout acota el ping del almacenamiento en /ready.
const readyTimeout = 2 * time.Second

// Pinger es lo mínimo que necesita /ready del almacenamiento.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler encapsula endpoints de health.
type Handler struct {
	storage Pinger
	now     func() time.Time
}

// New crea un handler de health. storage puede ser nil (ready responde 503).
func New(storage Pinger) *Handler {
	return &Handler{storage: storage, now: time.Now}
}

// Health indica si el proceso está vivo. No toca el almacenamiento.
func (handler *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, http.StatusOK, "ok", map[string]any{
		"status": "ok",
		"time":   handler.now().UTC().Format(time.RFC3339),
	})
}

// Ready verifica que el almacenamiento responda.
func (handler *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if handler.storage == nil {
		httpx.Fail(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := handler.storage.Ping(ctx); err != nil {
		httpx.Fail(w, http.StatusServiceUnavailable, "storage is not reachable")
		return
	}

	httpx.OK(w, http.StatusOK, "ready", map[string]any{"status": "ready"})
}
