package main

import (
	"net/http"
	"time"

	"github.com/citivoice/complaint-server/internal/auth"
	"github.com/citivoice/complaint-server/internal/handlers"
	"github.com/citivoice/complaint-server/internal/middleware"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// api holds everything the router needs
type api struct {
	logger  *zap.Logger
	jwt     *auth.JWTManager
	limiter *middleware.RateLimiter
	origins []string

	health     *handlers.HealthHandler
	auth       *handlers.AuthHandler
	complaints *handlers.ComplaintHandler
	history    *handlers.HistoryHandler
	agencies   *handlers.AgencyHandler
	categories *handlers.CategoryHandler
	users      *handlers.UserHandler
	dashboard  *handlers.DashboardHandler
	files      *handlers.FileHandler
	integrity  *handlers.IntegrityHandler
}

var (
	superAdmin = []models.Role{models.RoleSuperAdmin}
	admins     = []models.Role{models.RoleSuperAdmin, models.RoleAgencyAdmin}
	everyone   = []models.Role{models.RoleSuperAdmin, models.RoleAgencyAdmin, models.RoleStaff}
)

func (a *api) routes() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(a.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Merkle-Root"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(a.limiter.Handler)

	requireAuth := middleware.RequireAuth(a.jwt)

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", a.health.Check)
		r.Get("/health/ready", a.health.Ready)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.auth.Register)
			r.Post("/login", a.auth.Login)
			r.Get("/verify/{token}/{userId}", a.auth.Verify)
			r.Post("/request-password-reset", a.auth.RequestPasswordReset)
			r.Post("/reset-password", a.auth.ResetPassword)
			r.Get("/reset-password/{token}/{userId}", a.auth.ValidateResetToken)
			r.Post("/reset-password/{token}/{userId}", a.auth.ResetPasswordWithToken)
		})

		// Citizens file and track complaints without an account
		r.Route("/complaints", func(r chi.Router) {
			r.Post("/", a.complaints.Create)
			r.Get("/tracking/{code}", a.complaints.Track)
			r.Get("/{id}", a.complaints.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", a.complaints.List)
				r.Get("/agency/{agencyId}", a.complaints.ListByAgency)
				r.Get("/staff/{staffId}", a.complaints.ListByStaff)
				r.Get("/{id}/assignment", a.complaints.Assignment)
				r.Get("/{id}/history", a.complaints.History)
				r.Patch("/{id}", a.complaints.Update)
				r.Patch("/{id}/status", a.complaints.UpdateStatus)
				r.Post("/{id}/transfer", a.complaints.Transfer)

				r.With(middleware.RequireRoles(admins...)).Post("/agency/assign", a.complaints.Assign)
				r.With(middleware.RequireRoles(admins...)).Delete("/{id}", a.complaints.Delete)
			})
		})

		r.Route("/complaint-history", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", a.history.List)
			r.Get("/agency/{agencyId}", a.history.ByAgency)
			r.Get("/staff/{staffId}", a.history.ByStaff)
			r.Get("/{complaintId}", a.history.ByComplaint)
		})

		r.Route("/agencies", func(r chi.Router) {
			r.Get("/", a.agencies.List)
			r.Get("/{id}", a.agencies.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, middleware.RequireRoles(superAdmin...))
				r.Post("/", a.agencies.Create)
				r.Patch("/{id}", a.agencies.Update)
				r.Delete("/{id}", a.agencies.Delete)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", a.categories.List)
			r.Get("/{id}", a.categories.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, middleware.RequireRoles(superAdmin...))
				r.Post("/", a.categories.Create)
				r.Put("/{id}", a.categories.Update)
				r.Delete("/{id}", a.categories.Delete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			// Open signup goes through /auth/register and its secret key
			r.Use(requireAuth)
			r.With(middleware.RequireRoles(superAdmin...)).Post("/", a.users.Create)
			r.With(middleware.RequireRoles(admins...)).Get("/", a.users.List)
			r.With(middleware.RequireRoles(everyone...)).Get("/{id}", a.users.Get)
			r.With(middleware.RequireRoles(superAdmin...)).Post("/bulk", a.users.BulkCreate)
			r.With(middleware.RequireRoles(superAdmin...)).Patch("/{id}", a.users.Update)
			r.With(middleware.RequireRoles(superAdmin...)).Delete("/{id}", a.users.Delete)
		})

		r.Route("/dashboard-charts", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(middleware.RequireRoles(superAdmin...)).Get("/super-admin", a.dashboard.SuperAdmin)
			r.With(middleware.RequireRoles(admins...)).Get("/agency-admin/{agencyId}", a.dashboard.AgencyAdmin)
			r.With(middleware.RequireRoles(everyone...)).Get("/staff/{staffId}", a.dashboard.Staff)
		})

		r.Route("/files", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/upload", a.files.Upload)
		})

		// Integrity endpoints (Merkle tree over the complaint ledger)
		r.Route("/integrity", func(r chi.Router) {
			r.Get("/root", a.integrity.GetRoot)
			r.Get("/proof/{index}", a.integrity.GetProof)
			r.Post("/verify", a.integrity.Verify)
		})
	})

	return r
}
