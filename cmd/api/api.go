package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polaris/docs" //this is required to generate swagger docs
	"polaris/internal/auth"
	"polaris/internal/authority"
	"polaris/internal/mailer"
	"polaris/internal/ratelimiter"
	"polaris/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	authority     *authority.Resolver
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr               string
	db                 dbConfig
	env                string
	apiURL             string
	frontendURL        string
	mail               mailConfig
	auth               authConfig
	rateLimiter        ratelimiter.Config
	permissionCacheTTL time.Duration
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret          string
	refreshSecret   string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(app.RateLimiterMiddleware)

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listUsersHandler)
			r.Post("/profile-picture", app.uploadProfilePictureHandler)

			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", app.getUserProfileHandler)
				r.Patch("/", app.updateUserProfileHandler)
				r.Delete("/", app.deleteUserProfileHandler)
				r.Patch("/role", app.assignUserRoleHandler)
			})
		})

		r.With(app.AuthTokenMiddleware).Get("/roles", app.listRolesHandler)

		r.Route("/projects", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.createProjectHandler)
			r.Get("/", app.listProjectsHandler)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", app.getProjectHandler)
				r.Patch("/", app.updateProjectHandler)
				r.Delete("/", app.deleteProjectHandler)

				r.Post("/reviews", app.createReviewHandler)
				r.Get("/reviews", app.getReviewsByProjectHandler)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.createEventHandler)
			r.Get("/", app.listEventsHandler)

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", app.getEventHandler)
				r.Patch("/", app.updateEventHandler)
				r.Delete("/", app.deleteEventHandler)

				r.Put("/managers/{userID}", app.assignManagerHandler)
				r.Delete("/managers/{userID}", app.removeManagerHandler)
				r.Put("/experts/{userID}", app.assignExpertHandler)
				r.Delete("/experts/{userID}", app.removeExpertHandler)
				r.Put("/spectators/{userID}", app.registerSpectatorHandler)
				r.Delete("/spectators/{userID}", app.removeSpectatorHandler)
				r.Put("/projects/{projectID}", app.attachProjectHandler)
				r.Delete("/projects/{projectID}", app.detachProjectHandler)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listReviewsHandler)

			r.Route("/{reviewID}", func(r chi.Router) {
				r.Get("/", app.getReviewHandler)
				r.Patch("/", app.updateReviewHandler)
				r.Delete("/", app.deleteReviewHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
