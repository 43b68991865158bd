package books

import "github.com/go-chi/chi/v5"

// BasePath es donde cuelga el recurso (el cliente web lo tiene fijo).
const BasePath = "/api/book"

// RegisterRoutes registra rutas de libros en el router.
func RegisterRoutes(route chi.Router, handler *Handler) {
	route.Route(BasePath, func(route chi.Router) {
		route.Post("/", handler.Create)
		route.Get("/", handler.List)
		route.Get("/{bookId}", handler.GetByID)
		route.Put("/{bookId}", handler.Update)
		route.Delete("/{bookId}", handler.Delete)
	})
}
