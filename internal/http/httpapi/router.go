package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"flyergen/internal/http/handlers"
	"flyergen/internal/middleware"
)

// Options carries the router-level knobs that do not belong to any handler.
type Options struct {
	RateLimitPerMin int
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	StaticDir       string
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/flyers", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/", app.FlyersGenerate)
	})

	r.Route("/v1/assets", func(r chi.Router) {
		r.Get("/", app.AssetsList)
		r.Get("/{id}/url", app.AssetURL)
		r.Post("/urls", app.AssetURLs)
	})

	r.Route("/v1/providers", func(r chi.Router) {
		r.Get("/", app.ProvidersList)
		r.Post("/reload", app.ProvidersReload)
		r.Post("/{provider}/token", app.ProviderSetToken)
	})

	r.Route("/v1/fragments", func(r chi.Router) {
		r.Get("/{category}", app.FragmentsList)
		r.Get("/{category}/{subcategory}", app.FragmentActive)
	})

	if opts.StaticDir != "" {
		fileServer := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(opts.StaticDir)))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	return r
}
