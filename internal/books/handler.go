package books

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lelo88/book-management-api/internal/httpx"
	"github.com/Lelo88/book-management-api/internal/images"
	"github.com/go-chi/chi/v5"
)

// Mensajes que ve el cliente web.
const (
	MessageAdded        = "Book added successfully"
	MessageAddFailed    = "Failed to add book"
	MessageUpdated      = "Book updated successfully"
	MessageDeleted      = "Book deleted successfully"
	MessageFetched      = "Book fetch success"
	MessageListed       = "Books fetched successfully"
	MessageNotFound     = "Book not found"
	MessageImageMissing = "Image is not Found"
	MessageInvalidForm  = "Invalid form data"
	MessageBodyTooLarge = "Request body too large"
)

// coverField es el nombre de la parte multipart con la portada.
const coverField = "cover_image"

// multipartMemory es lo que el parser mantiene en memoria antes de ir a disco.
const multipartMemory = 32 << 20

// ServiceAPI define lo que el handler necesita.
// Permite testear handlers con stubs sin tocar DB.
type ServiceAPI interface {
	Add(ctx context.Context, input CreateBookInput) (Book, error)
	List(ctx context.Context) ([]Book, error)
	Get(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, id string, input UpdateBookInput) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
}

// Handler HTTP para libros.
// Solo traduce HTTP <-> dominio (service).
type Handler struct {
	service ServiceAPI
	logger  *slog.Logger
}

// NewHandler crea un handler de libros.
func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Create maneja POST /api/book.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	if err := parseForm(request); err != nil {
		handler.formError(writer, request, err)
		return
	}

	// La imagen se revisa antes que el resto del formulario.
	upload, err := readUpload(request)
	if err != nil {
		handler.fail(writer, request, "create", err)
		return
	}
	if upload == nil {
		httpx.Fail(writer, http.StatusBadRequest, MessageImageMissing)
		return
	}

	input, err := ParseCreateForm(request.PostForm)
	if err != nil {
		handler.fail(writer, request, "create", err)
		return
	}
	input.CoverImage = upload

	book, err := handler.service.Add(request.Context(), input)
	if err != nil {
		handler.fail(writer, request, "create", err)
		return
	}

	httpx.OK(writer, http.StatusCreated, MessageAdded, book)
}

// List maneja GET /api/book.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	books, err := handler.service.List(request.Context())
	if err != nil {
		handler.fail(writer, request, "list", err)
		return
	}

	httpx.OK(writer, http.StatusOK, MessageListed, books)
}

// GetByID maneja GET /api/book/{bookId}.
func (handler *Handler) GetByID(writer http.ResponseWriter, request *http.Request) {
	book, err := handler.service.Get(request.Context(), chi.URLParam(request, "bookId"))
	if err != nil {
		handler.fail(writer, request, "get", err)
		return
	}

	httpx.OK(writer, http.StatusOK, MessageFetched, book)
}

// Update maneja PUT /api/book/{bookId}. La portada es opcional.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request) {
	if err := parseForm(request); err != nil {
		handler.formError(writer, request, err)
		return
	}

	upload, err := readUpload(request)
	if err != nil {
		handler.fail(writer, request, "update", err)
		return
	}

	input, err := ParseUpdateForm(request.PostForm)
	if err != nil {
		handler.fail(writer, request, "update", err)
		return
	}
	input.CoverImage = upload

	book, err := handler.service.Update(request.Context(), chi.URLParam(request, "bookId"), input)
	if err != nil {
		handler.fail(writer, request, "update", err)
		return
	}

	httpx.OK(writer, http.StatusOK, MessageUpdated, book)
}

// Delete maneja DELETE /api/book/{bookId} y devuelve el libro borrado.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	book, err := handler.service.Delete(request.Context(), chi.URLParam(request, "bookId"))
	if err != nil {
		handler.fail(writer, request, "delete", err)
		return
	}

	httpx.OK(writer, http.StatusOK, MessageDeleted, book)
}

// fail traduce errores de dominio a sobres. Lo desconocido es 500 y
// el detalle solo queda en el log.
func (handler *Handler) fail(writer http.ResponseWriter, request *http.Request, operation string, err error) {
	var validationError *ValidationError

	switch {
	case errors.As(err, &validationError):
		httpx.Fail(writer, http.StatusBadRequest, validationError.Message())
	case errors.Is(err, ErrorImageRequired):
		httpx.Fail(writer, http.StatusBadRequest, MessageImageMissing)
	case errors.Is(err, ErrorNotFound):
		httpx.Fail(writer, http.StatusBadRequest, MessageNotFound)
	case errors.Is(err, ErrorCreationFailed):
		httpx.Fail(writer, http.StatusBadRequest, MessageAddFailed)
	case errors.Is(err, context.DeadlineExceeded):
		handler.logger.WarnContext(request.Context(), "book request timed out",
			slog.String("request_id", httpx.RequestIDFrom(request)),
			slog.String("operation", operation),
		)
		httpx.Fail(writer, http.StatusGatewayTimeout, httpx.MessageTimeout)
	default:
		handler.logger.ErrorContext(request.Context(), "book request failed",
			slog.String("request_id", httpx.RequestIDFrom(request)),
			slog.String("operation", operation),
			slog.Any("error", err),
		)
		httpx.Fail(writer, http.StatusInternalServerError, httpx.MessageServerError)
	}
}

func (handler *Handler) formError(writer http.ResponseWriter, request *http.Request, err error) {
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		httpx.Fail(writer, http.StatusRequestEntityTooLarge, MessageBodyTooLarge)
		return
	}

	handler.logger.DebugContext(request.Context(), "invalid form",
		slog.String("request_id", httpx.RequestIDFrom(request)),
		slog.Any("error", err),
	)
	httpx.Fail(writer, http.StatusBadRequest, MessageInvalidForm)
}

// parseForm acepta multipart y también urlencoded (edición sin imagen).
func parseForm(request *http.Request) error {
	err := request.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return err
}

// readUpload bufferiza la portada. Sin archivo (o vacío) devuelve nil.
func readUpload(request *http.Request) (*images.Upload, error) {
	if request.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := request.FormFile(coverField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, &ValidationError{Fields: []FieldError{{Field: coverField, Message: "must be an image"}}}
	}

	return &images.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
