package server

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shopapp/internal/auth"
	"shopapp/internal/cache"
	"shopapp/internal/config"
	"shopapp/internal/email"
	"shopapp/internal/store"
)

type Server struct {
	Users      auth.Repository
	Hasher     auth.PasswordHasher
	OTP        *auth.OTPService
	Mailer     email.Notifier
	Products   store.ProductRepository
	Categories store.CategoryRepository
	Cache      *cache.Catalog
	Config     config.Config
}

func NewServer(cfg config.Config, users auth.Repository, hasher auth.PasswordHasher, otp *auth.OTPService, mailer email.Notifier, products store.ProductRepository, categories store.CategoryRepository, catalogCache *cache.Catalog) *Server {
	return &Server{
		Users:      users,
		Hasher:     hasher,
		OTP:        otp,
		Mailer:     mailer,
		Products:   products,
		Categories: categories,
		Cache:      catalogCache,
		Config:     cfg,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	formatter := &middleware.DefaultLogFormatter{
		Logger:  log.New(log.Writer(), "", log.Flags()),
		NoColor: true,
	}
	r.Use(middleware.RequestLogger(formatter))
	r.Use(middleware.Recoverer)

	r.Route(s.Config.APIBase, func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", s.handleRegister)
			ar.Post("/register/verify", s.handleVerifyRegistration)
			ar.Post("/register/resend-otp", s.handleResendOTP)
			ar.Post("/login", s.handleLogin)
			ar.Post("/logout", s.handleLogout)
			ar.With(s.requireSession).Get("/get-me", s.handleGetMe)
		})

		api.Route("/categories", func(cr chi.Router) {
			cr.Use(s.requireSession)
			cr.Get("/", s.handleListCategories)
			cr.Post("/create", s.handleCreateCategory)
			cr.Put("/update/{id}", s.handleUpdateCategory)
			cr.Delete("/delete/{id}", s.handleDeleteCategory)
		})

		api.Route("/products", func(pr chi.Router) {
			pr.Use(s.requireSession)
			pr.Get("/", s.handleListProducts)
			pr.Get("/{id}", s.handleGetProduct)
			pr.With(s.requireAdmin).Post("/create", s.handleCreateProduct)
			pr.With(s.requireAdmin).Put("/update/{id}", s.handleUpdateProduct)
			pr.With(s.requireAdmin).Delete("/delete/{id}", s.handleDeleteProduct)
		})
	})

	return r
}
