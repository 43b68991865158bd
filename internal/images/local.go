package images

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore guarda las portadas en disco; la API las sirve bajo /uploads.
type LocalStore struct {
	root    string
	folder  string
	baseURL string
	newName func() string
}

// NewLocalStore crea el store. root es el directorio que se sirve como /uploads.
func NewLocalStore(root, folder, publicBaseURL string) *LocalStore {
	return &LocalStore{
		root:    root,
		folder:  strings.Trim(folder, "/"),
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		newName: func() string { return uuid.NewString() },
	}
}

// Root devuelve el directorio servido como /uploads.
func (store *LocalStore) Root() string {
	return store.root
}

// Store escribe el archivo y devuelve su URL pública.
func (store *LocalStore) Store(ctx context.Context, upload Upload) (string, error) {
	if len(upload.Data) == 0 {
		return "", ErrEmptyUpload
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(store.root, store.folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("images: create folder: %w", err)
	}

	name := store.newName() + extensionFor(upload)
	if err := os.WriteFile(filepath.Join(dir, name), upload.Data, 0o644); err != nil {
		return "", fmt.Errorf("images: write file: %w", err)
	}

	return store.baseURL + "/uploads/" + store.folder + "/" + name, nil
}

// Delete borra "<folder>/<name>.*". Si no existe no es error.
func (store *LocalStore) Delete(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	folder, name, ok := strings.Cut(identifier, "/")
	if !ok || folder != store.folder || name == "" || strings.ContainsAny(name, `/\*?[`) {
		return fmt.Errorf("images: invalid identifier %q", identifier)
	}

	matches, err := filepath.Glob(filepath.Join(store.root, store.folder, name+".*"))
	if err != nil {
		return fmt.Errorf("images: glob: %w", err)
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("images: remove: %w", err)
		}
	}
	return nil
}

// IdentifierFromURL aplica la convención común con la carpeta de este store.
func (store *LocalStore) IdentifierFromURL(rawURL string) (string, error) {
	return IdentifierFromURL(store.folder, rawURL)
}

// extensionFor prioriza la extensión del nombre original y si no la deduce del contenido.
func extensionFor(upload Upload) string {
	if ext := strings.ToLower(filepath.Ext(upload.Filename)); ext != "" {
		return ext
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(upload.Data)
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
