package books

import "github.com/Lelo88/book-management-api/internal/images"

// TimestampLayout es el formato visible de created_at y updated_at ("17/10/2026, 3:04:05 pm").
const TimestampLayout = "02/01/2006, 3:04:05 pm"

// Book representa un libro del catálogo tal como viaja en la API.
// El id lo asigna el almacenamiento; los timestamps los pone el service.
type Book struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Category    string   `json:"category,omitempty"`
	PublishYear *int     `json:"publish_year,omitempty"`
	ISBNNum     *int64   `json:"isbn_num,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	CoverImage  string   `json:"cover_image,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// CreateBookInput es el formulario de alta ya parseado.
type CreateBookInput struct {
	Title       string   `form:"title" validate:"required,max=256"`
	Author      string   `form:"author" validate:"required,max=256"`
	Category    string   `form:"category" validate:"max=128"`
	PublishYear *int     `form:"publish_year" validate:"omitempty,min=0,max=9999"`
	ISBNNum     *int64   `form:"isbn_num" validate:"omitempty,isbn_num"`
	Price       *float64 `form:"price" validate:"omitempty,min=0"`

	CoverImage *images.Upload `form:"cover_image" validate:"-"`
}

// UpdateBookInput es el formulario de edición: nil significa "no vino".
type UpdateBookInput struct {
	Title       *string  `form:"title" validate:"omitempty,min=1,max=256"`
	Author      *string  `form:"author" validate:"omitempty,min=1,max=256"`
	Category    *string  `form:"category" validate:"omitempty,max=128"`
	PublishYear *int     `form:"publish_year" validate:"omitempty,min=0,max=9999"`
	ISBNNum     *int64   `form:"isbn_num" validate:"omitempty,isbn_num"`
	Price       *float64 `form:"price" validate:"omitempty,min=0"`

	CoverImage *images.Upload `form:"cover_image" validate:"-"`
}

// BookPatch es lo que el repositorio aplica en un update.
// Los campos nil conservan el valor guardado; UpdatedAt siempre se escribe.
type BookPatch struct {
	Title       *string
	Author      *string
	Category    *string
	PublishYear *int
	ISBNNum     *int64
	Price       *float64
	CoverImage  *string
	UpdatedAt   string
}
