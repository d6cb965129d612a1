package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/sajal/assesshub/internal/api/handlers"
	"github.com/sajal/assesshub/internal/api/middleware"
	"github.com/sajal/assesshub/internal/auth"
	"github.com/sajal/assesshub/internal/membership"
	"github.com/sajal/assesshub/internal/moderation"
	"github.com/sajal/assesshub/internal/survey"
	"github.com/sajal/assesshub/internal/tasks"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	Membership     *membership.Service
	Moderation     *moderation.Service
	SurveyService  *survey.Service
	SurveyCodec    *survey.Codec
	Notifier       *tasks.Notifier
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	orgHandler := handlers.NewOrganizationHandler(cfg.DB, cfg.Membership, cfg.Moderation, cfg.Notifier)
	requestHandler := handlers.NewMemberRequestHandler(cfg.DB, cfg.Membership, cfg.Moderation, cfg.Notifier)
	projectHandler := handlers.NewProjectHandler(cfg.DB, cfg.Membership, cfg.Moderation, cfg.SurveyService, cfg.Notifier)
	surveyHandler := handlers.NewSurveyHandler(cfg.DB, cfg.SurveyCodec)
	questionHandler := handlers.NewQuestionHandler(cfg.DB)
	statementHandler := handlers.NewStatementHandler(cfg.DB)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/surveys/shared/{identifier}", surveyHandler.GetShared)

		// Question catalog (public read)
		r.Get("/question-groups", questionHandler.ListGroups)
		r.Get("/questions", questionHandler.List)
		r.Get("/questions/{id}", questionHandler.Get)
		r.Get("/options", questionHandler.ListOptions)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", authHandler.Me)

			r.Route("/organizations", func(r chi.Router) {
				r.Get("/", orgHandler.List)
				r.Post("/", orgHandler.Create)
				r.Get("/{id}", orgHandler.Get)
				r.Put("/{id}", orgHandler.Update)
				r.Delete("/{id}", orgHandler.Delete)
				r.With(middleware.RequireModerator).Post("/{id}/accept", orgHandler.Accept)
				r.With(middleware.RequireModerator).Post("/{id}/reject", orgHandler.Reject)
				r.Post("/{id}/member-request", orgHandler.MemberRequest)
				r.Get("/{id}/users", orgHandler.Users)
				r.Post("/{id}/add-users", orgHandler.AddUsers)
				r.Post("/{id}/remove-users", orgHandler.RemoveUsers)
				r.Post("/{id}/projects", orgHandler.CreateProject)
			})

			r.Route("/member-requests", func(r chi.Router) {
				r.Get("/", requestHandler.List)
				r.Get("/{id}", requestHandler.Get)
				r.Delete("/{id}", requestHandler.Delete)
				r.Post("/{id}/accept", requestHandler.Accept)
				r.Post("/{id}/reject", requestHandler.Reject)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Get("/{id}", projectHandler.Get)
				r.Put("/{id}", projectHandler.Update)
				r.Delete("/{id}", projectHandler.Delete)
				r.Get("/{id}/users", projectHandler.Users)
				r.Post("/{id}/users", projectHandler.UpsertUsers)
				r.Post("/{id}/users/remove", projectHandler.RemoveUsers)
				r.Get("/{id}/access-level", projectHandler.AccessLevel)
				r.Post("/{id}/accept", projectHandler.Accept)
				r.Post("/{id}/reject", projectHandler.Reject)
				r.Post("/{id}/surveys", projectHandler.CreateSurvey)
			})

			r.Route("/surveys", func(r chi.Router) {
				r.Get("/", surveyHandler.List)
				r.Get("/{id}", surveyHandler.Get)
				r.Delete("/{id}", surveyHandler.Delete)
				r.Post("/{id}/share", surveyHandler.Share)
				r.Post("/{id}/unshare", surveyHandler.Unshare)
				r.Post("/{id}/update-link", surveyHandler.UpdateLink)
			})

			// Statement catalog
			r.Get("/statement-topics", statementHandler.ListTopics)
			r.Get("/statements", statementHandler.List)
			r.Get("/statements/{id}", statementHandler.Get)
			r.Get("/mitigations", statementHandler.ListMitigations)
			r.Get("/opportunities", statementHandler.ListOpportunities)
			r.With(middleware.RequireModerator).Post("/statements/weightages", statementHandler.UploadWeightages)
			r.With(middleware.RequireModerator).Post("/statements/activate-version", statementHandler.ActivateVersion)
			r.With(middleware.RequireModerator).Post("/statements/activate-draft", statementHandler.ActivateDraft)
		})
	})

	return &Router{r}
}
