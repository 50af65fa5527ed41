// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	adminfeature "github.com/dalemusser/codeswitch/internal/app/features/admin"
	blogfeature "github.com/dalemusser/codeswitch/internal/app/features/blog"
	communityfeature "github.com/dalemusser/codeswitch/internal/app/features/community"
	errorsfeature "github.com/dalemusser/codeswitch/internal/app/features/errors"
	healthfeature "github.com/dalemusser/codeswitch/internal/app/features/health"
	loginfeature "github.com/dalemusser/codeswitch/internal/app/features/login"
	messagesfeature "github.com/dalemusser/codeswitch/internal/app/features/messages"
	profilefeature "github.com/dalemusser/codeswitch/internal/app/features/profile"
	progressfeature "github.com/dalemusser/codeswitch/internal/app/features/progress"
	projectsfeature "github.com/dalemusser/codeswitch/internal/app/features/projects"
	userstore "github.com/dalemusser/codeswitch/internal/app/store/users"
	"github.com/dalemusser/codeswitch/internal/app/system/auth"
	"github.com/dalemusser/codeswitch/internal/app/system/presence"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// APIPrefix is where every feature router is mounted.
const APIPrefix = "/api/v1"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The router resolves bearer tokens on
// every request and mounts each feature under /api/v1; /health stays at
// the root for load balancers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokens(appCfg.JWTSecret, appCfg.AccessTokenTTL, appCfg.GuestTokenTTL)
	if err != nil {
		logger.Error("token service init failed", zap.Error(err))
		return nil, err
	}

	// Re-read the user on each request so admin and active flags take
	// effect immediately.
	gate := auth.NewGate(tokens, logger)
	gate.SetUserFetcher(userstore.NewFetcher(deps.CodeSwitchMongoDatabase))

	errLog := errorsfeature.NewErrorLogger(logger)
	db := deps.CodeSwitchMongoDatabase

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global auth middleware: loads SessionUser into context when a valid
	// bearer token is present.
	r.Use(gate.LoadSessionUser)

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	healthHandler := healthfeature.NewHandler(deps.CodeSwitchMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	var kicker communityfeature.Kicker
	if deps.Trending != nil {
		kicker = deps.Trending
	}

	r.Route(APIPrefix, func(api chi.Router) {
		api.NotFound(errorsfeature.NotFound)
		api.MethodNotAllowed(errorsfeature.MethodNotAllowed)

		loginHandler := loginfeature.NewHandler(db, tokens, appCfg.BcryptCost, errLog, deps.Audit, logger)
		api.Mount("/auth", loginfeature.Routes(loginHandler))

		profileHandler := profilefeature.NewHandler(db, errLog, logger)
		api.Mount("/users", profilefeature.Routes(profileHandler, gate))

		projectsHandler := projectsfeature.NewHandler(db, errLog, logger)
		api.Mount("/projects", projectsfeature.Routes(projectsHandler, gate))

		progressHandler := progressfeature.NewHandler(db, errLog, logger)
		api.Mount("/progress", progressfeature.Routes(progressHandler, gate))

		blogHandler := blogfeature.NewHandler(db, errLog, logger)
		api.Mount("/blog", blogfeature.Routes(blogHandler, gate))

		communityHandler := communityfeature.NewHandler(db, presence.None{}, kicker, errLog, logger)
		api.Mount("/community", communityfeature.Routes(communityHandler, gate))

		messagesHandler := messagesfeature.NewHandler(db, errLog, logger)
		api.Mount("/messages", messagesfeature.Routes(messagesHandler, gate))

		adminHandler := adminfeature.NewHandler(db, errLog, deps.Audit, logger)
		api.Mount("/admin", adminfeature.Routes(adminHandler, gate))
	})

	return r, nil
}

// requestLogger writes one structured line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
