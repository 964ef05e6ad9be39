package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/taskmaster-dev/task-master/backend/internal/config"
	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"github.com/taskmaster-dev/task-master/backend/internal/service"
	"github.com/taskmaster-dev/task-master/backend/internal/session"
)

// MailPublisher queues a mail message for the mail worker.
type MailPublisher interface {
	Publish(m domain.MailMessage) error
}

// TokenDenylist records tokens revoked by logout.
type TokenDenylist interface {
	Revoke(jti string, until time.Time) error
	IsRevoked(jti string) (bool, error)
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	tasks      *service.TaskService
	users      *service.UserService
	issuer     *session.Issuer
	denylist   TokenDenylist
	mail       MailPublisher
	translator ut.Translator

	Mux *chi.Mux
}

// NewHandler registers English messages on validate, which must be the
// validator the services were built with.
func NewHandler(
	cfg *config.Config,
	validate *validator.Validate,
	tasks *service.TaskService,
	users *service.UserService,
	issuer *session.Issuer,
	denylist TokenDenylist,
	mail MailPublisher,
) (*Handler, error) {
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		tasks:      tasks,
		users:      users,
		issuer:     issuer,
		denylist:   denylist,
		mail:       mail,
		translator: trans,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.Mux.NotFound(h.notFound)
	h.Mux.MethodNotAllowed(h.methodNotAllowed)

	h.Mux.Get("/healthz", h.Healthz)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// everything below needs a valid session
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", h.GetMe)
			r.With(h.RequiredRole(domain.RoleAdmin)).Get("/all", h.GetAllUsers)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.RequiredRole(domain.RoleAdmin))
				r.Get("/all", h.GetAllTasks)
				r.Post("/create", h.CreateTask)
				r.Post("/assign", h.AssignTask)
				r.Post("/unassign", h.UnassignTask)
				r.Delete("/{id}", h.DeleteTask)
			})

			r.Get("/{id}", h.GetTask)
			r.Get("/filter/user/{userId}", h.GetUserTasks)
			r.Put("/update/{id}", h.UpdateTask)
			r.Put("/updateStatus/{id}", h.UpdateTaskStatus)
			r.Delete("/delete/{id}", h.DeleteTask)
		})
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, http.StatusOK, "ok", nil)
}
