// Package docs sirve la documentación embebida de la API.
package docs

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml swagger.html
var assets embed.FS

// serveAsset devuelve un handler para un archivo embebido.
func serveAsset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := assets.ReadFile(name)
		if err != nil {
			http.Error(w, name+" not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// OpenAPIHandler sirve el documento OpenAPI.
func OpenAPIHandler() http.HandlerFunc {
	return serveAsset("openapi.yaml", "application/yaml; charset=utf-8")
}

// OpenAPIJSONHandler sirve el mismo documento convertido a JSON.
func OpenAPIJSONHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := openAPIJSON()
		if err != nil {
			http.Error(w, "openapi.json: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// SwaggerUIHandler sirve la página de Swagger UI que consume /docs/openapi.yaml.
func SwaggerUIHandler() http.HandlerFunc {
	return serveAsset("swagger.html", "text/html; charset=utf-8")
}

func openAPIJSON() ([]byte, error) {
	raw, err := assets.ReadFile("openapi.yaml")
	if err != nil {
		return nil, err
	}

	var document any
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("parse openapi.yaml: %w", err)
	}
	return json.Marshal(jsonCompatible(document))
}

// jsonCompatible convierte claves no string (ej. códigos 200 sin comillas).
func jsonCompatible(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		for key, item := range typed {
			typed[key] = jsonCompatible(item)
		}
		return typed
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[fmt.Sprint(key)] = jsonCompatible(item)
		}
		return out
	case []any:
		for i, item := range typed {
			typed[i] = jsonCompatible(item)
		}
		return typed
	default:
		return value
	}
}
