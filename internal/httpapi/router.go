package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the routes. Everything that is not a fixed endpoint is a
// conversion: GET /!<args>/<from> or GET /<from>.
func NewRouter(opt Options) chi.Router {
	opt = opt.withDefaults()
	h := convertHandler{opt: opt}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if opt.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(withObservability)
	r.Use(middleware.GetHead)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD"},
		ExposedHeaders: []string{"X-Count", "Subscription-Userinfo", "Profile-Update-Interval", "Profile-Web-Page-Url", "Content-Disposition"},
		MaxAge:         300,
	}).Handler)

	r.Get("/version", handleVersion(opt.Version))
	r.Get("/healthz", handleHealthz)
	r.Get("/metrics", handleMetrics)

	r.Group(func(r chi.Router) {
		if opt.RateLimit > 0 {
			r.Use(newIPLimiter(opt.RateLimit, opt.Burst).middleware)
		}
		r.Get("/", h.handleConvert)
		r.Get("/*", h.handleConvert)
	})
	return r
}
