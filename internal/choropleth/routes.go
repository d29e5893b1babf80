package choropleth

import (
	"net/http"

	"github.com/EmpoweredVote/EV-Choropleth/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func (s *Service) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Stateless routes
	r.Get("/map.svg", s.MapSVGHandler)
	r.Get("/api/regions", s.RegionsHandler)
	r.Get("/healthz", s.HealthHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(s.sessions))
		r.Get("/", s.PageHandler)
		r.Get("/api/state", s.StateHandler)
		r.Post("/api/year", s.YearHandler)
		r.Get("/api/tooltip", s.TooltipAtHandler)
		r.Get("/api/tooltip/{id}", s.TooltipHandler)
		r.Delete("/api/tooltip", s.LeaveHandler)
	})

	return r
}
