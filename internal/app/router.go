package app

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forestscape/soldmis/internal/platform/httpx"
	soldmishttp "github.com/forestscape/soldmis/internal/soldmis/http"
)

const serviceName = "Forestscape MIS"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SoldMISHandler *soldmishttp.Handler
}

// NewRouter constructs the chi.Router for the gateway. /health and /routes are
// open; everything under /soldmis sits behind the bearer gate.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": serviceName,
			"ts":      time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Get("/routes", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string][]string{"routes": routeList(r)})
	})

	token := ""
	if params.Config != nil {
		token = params.Config.APIToken
	}
	r.Route("/soldmis", func(sr chi.Router) {
		sr.Use(BearerAuth(token))
		params.SoldMISHandler.MountRoutes(sr)
	})

	return r
}

// routeList enumerates the registered method/pattern pairs, sorted.
func routeList(r chi.Routes) []string {
	var routes []string
	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, route+" ["+method+"]")
		return nil
	})
	sort.Strings(routes)
	return routes
}
