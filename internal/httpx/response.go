package httpx

import (
	"encoding/json"
	"net/http"
)

// Response es el sobre estándar que devuelve la API, tanto en éxito como en error.
// Los clientes ramifican sobre Error sin mirar el status HTTP.
type Response struct {
	Status  int    `json:"status"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

// Mensajes genéricos compartidos por todos los recursos.
const (
	MessageServerError      = "Internal server error"
	MessageRouteNotFound    = "Resource not found"
	MessageMethodNotAllowed = "Method not allowed"
	MessageTimeout          = "Request timed out"
)

// fallbackBody se usa cuando ni siquiera el sobre se puede serializar.
const fallbackBody = `{"status":500,"error":true,"message":"Internal server error"}`

// JSON escribe una respuesta JSON con headers correctos.
// El status HTTP coincide siempre con Response.Status.
func JSON(w http.ResponseWriter, resp Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		// Último recurso: no se pudo serializar JSON.
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallbackBody + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(append(body, '\n'))
}

// OK devuelve una respuesta exitosa con result.
func OK(w http.ResponseWriter, status int, message string, result any) {
	JSON(w, Response{
		Status:  status,
		Error:   false,
		Message: message,
		Result:  result,
	})
}

// Fail devuelve un error sin payload.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, Response{
		Status:  status,
		Error:   true,
		Message: message,
	})
}
