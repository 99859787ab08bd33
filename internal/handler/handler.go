package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/config"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/lock"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/repository"
)

// MailPublisher 由 *amqp.Channel 实现
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	translator    ut.Translator
	mailPublisher MailPublisher
	locker        *lock.Locker
	metrics       *metrics.SalonMetrics
	registry      *prometheus.Registry

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, publisher MailPublisher, locker *lock.Locker, registry *prometheus.Registry) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		mailPublisher: publisher,
		locker:        locker,
		metrics:       metrics.NewSalonMetrics(registry),
		registry:      registry,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)
	h.Mux.Method("GET", "/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))

	adminOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin})

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	h.Mux.Route("/services", func(r chi.Router) {
		r.Get("/", h.GetActiveServices)
		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Get("/all", h.GetAllServices)
			r.With(adminOnly).Post("/", h.CreateService)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(adminOnly)
				r.Use(h.serviceLoader)
				r.Patch("/", h.UpdateService)
				r.Delete("/", h.DeleteService)
			})
		})
	})

	h.Mux.Route("/employees", func(r chi.Router) {
		// 查询空闲时间不需要登录，方便顾客自助预约
		r.Get("/availability", h.GetEmployeesAvailability)
		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Get("/", h.GetAllEmployees)
			r.With(adminOnly).Post("/", h.CreateEmployee)
		})
		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.employeeLoader)
			r.Get("/availability", h.GetEmployeeAvailability)
			r.Group(func(r chi.Router) {
				r.Use(h.auth)
				r.Get("/", h.GetEmployee)
				r.With(adminOnly).Patch("/", h.UpdateEmployee)
				r.With(adminOnly).Delete("/", h.DeleteEmployee)
			})
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", h.GetAllUsers)
			r.Post("/", h.CreateUser)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Use(h.preventOperateInitialAdmin)
				r.Delete("/", h.DeleteUser)
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.GetAllCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/search", h.SearchCustomer)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.customerLoader)
				r.Get("/", h.GetCustomer)
				r.Put("/", h.UpdateCustomer)
				r.Delete("/", h.DeleteCustomer)
			})
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", h.GetAppointments)
			r.Post("/", h.CreateAppointment)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.appointmentLoader)
				r.Get("/", h.GetAppointment)
				r.Put("/", h.ReplaceAppointment)
				r.Patch("/", h.UpdateAppointment)
				r.Delete("/", h.DeleteAppointment)
			})
		})

		r.Get("/statistics", h.GetStatistics)
	})
}
