package http

import (
	"context"
	"time"

	"github.com/geocoder89/socialfeed/internal/auth"
	"github.com/geocoder89/socialfeed/internal/config"
	"github.com/geocoder89/socialfeed/internal/http/handlers"
	"github.com/geocoder89/socialfeed/internal/http/middlewares"
	"github.com/geocoder89/socialfeed/internal/observability"
	"github.com/geocoder89/socialfeed/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "socialfeed-api"

// RouterDeps is everything the HTTP layer is built from. Cache, Prom and Ping
// are optional.
type RouterDeps struct {
	Cfg   config.Config
	Users services.UserStore
	Posts services.PostStore
	Cache services.FeedCache
	JWT   *auth.Manager
	Ping  func(ctx context.Context) error

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.Env != "dev" && deps.Cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(deps.Cfg.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(deps.Cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(deps.Cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// wire up services

	feedOpts := []services.FeedOption{}
	profileOpts := []services.ProfileOption{}

	if deps.Cache != nil {
		feedOpts = append(feedOpts, services.WithFeedCache(deps.Cache))
		profileOpts = append(profileOpts, services.WithProfileFeedCache(deps.Cache))
	}
	if deps.Prom != nil {
		feedOpts = append(feedOpts, services.WithFeedMetrics(deps.Prom))
	}

	feed := services.NewFeedService(deps.Posts, deps.Users, feedOpts...)
	profiles := services.NewProfileService(deps.Users, profileOpts...)
	accounts := services.NewAccountService(deps.Users, deps.JWT)

	// wire up handlers

	health := handlers.NewHealthHandler(deps.Ping)
	authHandler := handlers.NewAuthHandler(accounts)
	postsHandler := handlers.NewPostsHandler(feed)
	usersHandler := handlers.NewUsersHandler(profiles, feed)

	authMW := middlewares.NewAuthMiddleware(deps.JWT)

	perMinute := deps.Cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	authLimiter := middlewares.NewRateLimiter(perMinute, time.Minute)
	writeLimiter := middlewares.NewRateLimiter(perMinute, time.Minute)

	// ops

	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// api

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	authGroup.POST("/login", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)

	posts := api.Group("/posts")
	posts.GET("", postsHandler.List)
	posts.POST("", authMW.RequireAuth(), writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), postsHandler.Create)

	users := api.Group("/users")
	users.PUT("/profile", authMW.RequireAuth(), writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), usersHandler.UpdateProfile)
	users.GET("/:id", usersHandler.GetByID)
	users.GET("/:id/posts", usersHandler.ListPosts)

	return r
}
