package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timebank-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	Attendance AttendanceHandler
	HoursBank  HoursBankHandler
	Bulk       BulkHandler
	Events     EventsHandler
}

func NewRouter(logger *slog.Logger, allowedOrigin string, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
		// the progress stream stays open for minutes
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/api/v1/events/stream"
		},
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// EventSource cannot send headers; the stream authenticates by query token
		r.Get("/events/stream", h.Events.Stream)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.AdminOnly)

			r.Post("/events/token", h.Events.StreamToken)

			r.Get("/attendance/grid", h.Attendance.Grid)

			r.Route("/hours-bank", func(r chi.Router) {
				r.Get("/", h.HoursBank.Compute)
				r.Get("/snapshots", h.HoursBank.Snapshots)
			})

			r.Route("/bulk", func(r chi.Router) {
				r.Post("/punches", h.Bulk.CreatePunches)
				r.Post("/punches/delete", h.Bulk.DeletePunches)
				r.Post("/records/delete", h.Bulk.DeleteRecords)
				r.Post("/absences", h.Bulk.InsertAbsences)
				r.Post("/overtimes", h.Bulk.InsertOvertimes)
			})
		})
	})
	return r
}
