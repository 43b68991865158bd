// Package images implementa el almacenamiento de portadas.
// Cada backend devuelve una URL pública y borra por un identificador
// derivado de esa misma URL.
package images

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

var (
	ErrInvalidImageURL = errors.New("invalid image url")
	ErrEmptyUpload     = errors.New("empty upload")
)

// Upload es el archivo ya bufferizado que llega en el multipart.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IdentifierFromURL toma el último segmento del path, descarta todo desde el
// primer punto y le antepone la carpeta lógica.
// "https://res.cloudinary.com/x/image/upload/v1/Book-Management/abc.jpg" -> "Book-Management/abc"
func IdentifierFromURL(folder, rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", ErrInvalidImageURL
	}

	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		return "", ErrInvalidImageURL
	}

	name, _, _ := strings.Cut(base, ".")
	if name == "" {
		return "", ErrInvalidImageURL
	}

	return strings.Trim(folder, "/") + "/" + name, nil
}
