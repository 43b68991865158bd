package cli

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lelo88/book-management-api/internal/client"
	"github.com/Lelo88/book-management-api/internal/ui"
)

const defaultAPI = "http://localhost:8000"

// app es el estado compartido por los subcomandos durante una ejecución.
type app struct {
	newAPI  func(baseURL string) client.BookAPI
	apiURL  string
	timeout time.Duration
	api     client.BookAPI
}

// NewRootCommand arma el árbol de comandos de bookctl.
// newAPI permite inyectar un cliente falso; nil usa el cliente HTTP real.
func NewRootCommand(newAPI func(baseURL string) client.BookAPI) *cobra.Command {
	if newAPI == nil {
		newAPI = func(baseURL string) client.BookAPI {
			return client.New(baseURL, &http.Client{Timeout: 30 * time.Second})
		}
	}
	state := &app{newAPI: newAPI}

	root := &cobra.Command{
		Use:   "bookctl",
		Short: "Manage the book catalog from the terminal",
		Long: ui.FormatTitle("bookctl") + " - command line client for the Book Management API\n\n" +
			"The API base URL comes from --api or the BOOKCTL_API environment variable.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			state.api = state.newAPI(strings.TrimRight(state.apiURL, "/"))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&state.apiURL, "api", envOr("BOOKCTL_API", defaultAPI), "API base URL")
	root.PersistentFlags().DurationVar(&state.timeout, "timeout", 30*time.Second, "Request timeout")

	root.AddCommand(
		newListCommand(state),
		newGetCommand(state),
		newAddCommand(state),
		newUpdateCommand(state),
		newDeleteCommand(state),
	)

	return root
}

// Execute corre bookctl y devuelve el código de salida.
func Execute() int {
	root := NewRootCommand(nil)
	if err := root.Execute(); err != nil {
		root.PrintErrln(ui.FormatError(err.Error()))
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
