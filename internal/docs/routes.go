package docs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Prefix es donde vive la documentación.
const Prefix = "/docs"

// RegisterRoutes monta Swagger UI y el OpenAPI embebido (yaml y json).
// Sin subrouter: un Route sobre Prefix también tomaría "/docs" y taparía el redirect.
func RegisterRoutes(router chi.Router) {
	router.Get(Prefix, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, Prefix+"/", http.StatusMovedPermanently)
	})
	router.Get(Prefix+"/", SwaggerUIHandler())
	router.Get(Prefix+"/openapi.yaml", OpenAPIHandler())
	router.Get(Prefix+"/openapi.json", OpenAPIJSONHandler())
}
