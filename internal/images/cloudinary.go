package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// cloudinaryUploader es el subconjunto del SDK que usamos (permite testear sin red).
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStore sube las portadas a Cloudinary dentro de una carpeta fija.
type CloudinaryStore struct {
	api    cloudinaryUploader
	folder string
}

// NewCloudinaryStore crea el store a partir de CLOUDINARY_URL.
func NewCloudinaryStore(cloudinaryURL, folder string) (*CloudinaryStore, error) {
	client, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("images: cloudinary config: %w", err)
	}
	return newCloudinaryStore(&client.Upload, folder), nil
}

func newCloudinaryStore(api cloudinaryUploader, folder string) *CloudinaryStore {
	return &CloudinaryStore{api: api, folder: strings.Trim(folder, "/")}
}

// Store sube el archivo y devuelve la secure_url.
func (store *CloudinaryStore) Store(ctx context.Context, upload Upload) (string, error) {
	if len(upload.Data) == 0 {
		return "", ErrEmptyUpload
	}

	result, err := store.api.Upload(ctx, bytes.NewReader(upload.Data), uploader.UploadParams{
		Folder: store.folder,
	})
	if err != nil {
		return "", fmt.Errorf("images: cloudinary upload: %w", err)
	}
	if result == nil {
		return "", errors.New("images: cloudinary upload: empty result")
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("images: cloudinary upload: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", errors.New("images: cloudinary upload: missing secure_url")
	}

	return result.SecureURL, nil
}

// Delete destruye el asset identificado por su public id.
func (store *CloudinaryStore) Delete(ctx context.Context, identifier string) error {
	result, err := store.api.Destroy(ctx, uploader.DestroyParams{PublicID: identifier})
	if err != nil {
		return fmt.Errorf("images: cloudinary destroy: %w", err)
	}
	if result != nil && result.Error.Message != "" {
		return fmt.Errorf("images: cloudinary destroy: %s", result.Error.Message)
	}
	return nil
}

// IdentifierFromURL devuelve el public id que Cloudinary asignó a la URL.
func (store *CloudinaryStore) IdentifierFromURL(rawURL string) (string, error) {
	return IdentifierFromURL(store.folder, rawURL)
}
