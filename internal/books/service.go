package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lelo88/book-management-api/internal/images"
)

// Repository es el contrato de persistencia. La ausencia de un id se
// informa con ErrorNotFound, nunca con un error del driver.
type Repository interface {
	Create(ctx context.Context, book Book) (Book, error)
	ListAll(ctx context.Context) ([]Book, error)
	GetByID(ctx context.Context, id string) (Book, error)
	UpdateByID(ctx context.Context, id string, patch BookPatch) (Book, error)
	DeleteByID(ctx context.Context, id string) (Book, error)
}

// ImageStore es la capacidad de almacenamiento de portadas.
type ImageStore interface {
	Store(ctx context.Context, upload images.Upload) (string, error)
	Delete(ctx context.Context, identifier string) error
	IdentifierFromURL(rawURL string) (string, error)
}

// Service contiene reglas de negocio de libros.
type Service struct {
	repository          Repository
	images              ImageStore
	logger              *slog.Logger
	now                 func() time.Time
	deleteImageOnDelete bool
}

// Option ajusta un Service.
type Option func(*Service)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// WithImageCleanupOnDelete borra también la portada al borrar un libro.
func WithImageCleanupOnDelete(enabled bool) Option {
	return func(service *Service) { service.deleteImageOnDelete = enabled }
}

// NewService crea un service de libros.
func NewService(repository Repository, imageStore ImageStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	service := &Service{
		repository: repository,
		images:     imageStore,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (service *Service) timestamp() string {
	return service.now().Format(TimestampLayout)
}

// Add sube la portada y crea el libro con created_at == updated_at.
func (service *Service) Add(ctx context.Context, input CreateBookInput) (Book, error) {
	if input.CoverImage == nil {
		return Book{}, ErrorImageRequired
	}
	if err := validateInput(input); err != nil {
		return Book{}, err
	}

	coverURL, err := service.images.Store(ctx, *input.CoverImage)
	if err != nil {
		return Book{}, fmt.Errorf("store cover image: %w", err)
	}

	now := service.timestamp()
	book, err := service.repository.Create(ctx, Book{
		Title:       input.Title,
		Author:      input.Author,
		Category:    input.Category,
		PublishYear: input.PublishYear,
		ISBNNum:     input.ISBNNum,
		Price:       input.Price,
		CoverImage:  coverURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		// La imagen quedó huérfana.
		service.removeImage(ctx, coverURL)
		if errors.Is(err, ErrorCreationFailed) {
			return Book{}, ErrorCreationFailed
		}
		return Book{}, err
	}

	return book, nil
}

// List devuelve todos los libros; nunca nil.
func (service *Service) List(ctx context.Context) ([]Book, error) {
	books, err := service.repository.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// Get obtiene un libro por id.
func (service *Service) Get(ctx context.Context, id string) (Book, error) {
	return service.repository.GetByID(ctx, id)
}

// Update aplica los campos presentes y, si llega una portada nueva,
// reemplaza la anterior. El borrado de la vieja es best-effort.
func (service *Service) Update(ctx context.Context, id string, input UpdateBookInput) (Book, error) {
	if err := validateInput(input); err != nil {
		return Book{}, err
	}

	// Sin registro no se sube nada ni se toca el almacenamiento de imágenes.
	current, err := service.repository.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	patch := BookPatch{
		Title:       input.Title,
		Author:      input.Author,
		Category:    input.Category,
		PublishYear: input.PublishYear,
		ISBNNum:     input.ISBNNum,
		Price:       input.Price,
	}

	if input.CoverImage != nil {
		coverURL, err := service.images.Store(ctx, *input.CoverImage)
		if err != nil {
			return Book{}, fmt.Errorf("store cover image: %w", err)
		}
		patch.CoverImage = &coverURL

		if current.CoverImage != "" && current.CoverImage != coverURL {
			service.removeImage(ctx, current.CoverImage)
		}
	}

	patch.UpdatedAt = service.timestamp()

	book, err := service.repository.UpdateByID(ctx, id, patch)
	if err != nil {
		// La portada nueva no quedó referenciada por ningún registro.
		if patch.CoverImage != nil && *patch.CoverImage != current.CoverImage {
			service.removeImage(ctx, *patch.CoverImage)
		}
		return Book{}, err
	}

	return book, nil
}

// Delete borra el libro y devuelve cómo estaba. La portada se conserva
// salvo que el service se haya creado con WithImageCleanupOnDelete.
func (service *Service) Delete(ctx context.Context, id string) (Book, error) {
	book, err := service.repository.DeleteByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	if service.deleteImageOnDelete && book.CoverImage != "" {
		service.removeImage(ctx, book.CoverImage)
	}

	return book, nil
}

// removeImage deriva el identificador de la URL y pide el borrado.
// Cualquier falla se loguea y no se propaga.
func (service *Service) removeImage(ctx context.Context, coverURL string) {
	identifier, err := service.images.IdentifierFromURL(coverURL)
	if err != nil {
		service.logger.WarnContext(ctx, "cover image identifier",
			slog.String("url", coverURL),
			slog.Any("error", err),
		)
		return
	}

	if err := service.images.Delete(ctx, identifier); err != nil {
		service.logger.WarnContext(ctx, "cover image cleanup failed",
			slog.String("identifier", identifier),
			slog.Any("error", err),
		)
	}
}
