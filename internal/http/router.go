package http

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alexroche/boutique/internal/auth"
	"github.com/alexroche/boutique/internal/cache"
	"github.com/alexroche/boutique/internal/config"
	"github.com/alexroche/boutique/internal/http/handlers"
	"github.com/alexroche/boutique/internal/http/middlewares"
	"github.com/alexroche/boutique/internal/observability"
	"github.com/alexroche/boutique/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Deps carries everything the router wires together. Registry, Prom and
// Queue may be nil (tests rarely need them).
type Deps struct {
	Pool     *pgxpool.Pool
	Cfg      config.Config
	Prom     *observability.Prom
	Registry *prometheus.Registry
	Queue    handlers.JobEnqueuer
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	if os.Getenv("APP_ENV") != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(otelgin.Middleware("boutique-api"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	ping := func() error {
		if deps.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// repositories
	usersRepo := postgres.NewUsersRepo(deps.Pool, deps.Prom)
	productsRepo := postgres.NewProductsRepo(deps.Pool, deps.Prom)
	categoriesRepo := postgres.NewCategoriesRepo(deps.Pool, deps.Prom)
	contactsRepo := postgres.NewContactsRepo(deps.Pool, deps.Prom)

	// auth plumbing
	codec := auth.NewCodec(deps.Cfg.JWTSecret, deps.Cfg.SessionTTL)
	authMw := middlewares.NewAuthMiddleware(codec, usersRepo, deps.Cfg.CookieName)

	// handlers
	catalogCache := cache.New(5 * time.Second)
	usersHandler := handlers.NewUsersHandler(usersRepo, codec, deps.Cfg, log)
	productsHandler := handlers.NewProductsHandler(productsRepo, catalogCache, log)
	categoriesHandler := handlers.NewCategoriesHandler(categoriesRepo, productsRepo, log)
	contactsHandler := handlers.NewContactsHandler(contactsRepo, deps.Queue, log)

	users := r.Group("/users")
	{
		users.GET("/", usersHandler.Ping)
		users.POST("/register", usersHandler.Register)
		users.POST("/login", usersHandler.Login)
		users.POST("/loginApp", usersHandler.LoginApp)

		session := users.Group("")
		session.Use(authMw.RequireSession())
		{
			session.GET("/me", usersHandler.Me)
			session.POST("/edit", usersHandler.Edit)
			session.POST("/changePassword", usersHandler.ChangePassword)
			session.GET("/logout", usersHandler.Logout)
		}

		admin := users.Group("")
		admin.Use(authMw.RequireSession(), authMw.RequireAdmin())
		{
			admin.GET("/getAll", usersHandler.GetAll)
			admin.DELETE("/:id", usersHandler.Delete)
		}
	}

	products := r.Group("/product")
	{
		products.GET("/", productsHandler.Ping)
		products.GET("/getAll", productsHandler.GetAll)

		adminOnly := products.Group("")
		adminOnly.Use(authMw.RequireSession(), authMw.RequireAdmin())
		{
			adminOnly.POST("/create", productsHandler.Create)
			adminOnly.POST("/delete", productsHandler.Delete)
		}
	}

	categories := r.Group("/category")
	{
		categories.GET("/", categoriesHandler.Ping)
		categories.GET("/getAll", categoriesHandler.GetAll)
		categories.GET("/get/:id", categoriesHandler.Get)

		adminOnly := categories.Group("")
		adminOnly.Use(authMw.RequireSession(), authMw.RequireAdmin())
		{
			adminOnly.POST("/create", categoriesHandler.Create)
			adminOnly.POST("/delete", categoriesHandler.Delete)
			adminOnly.PUT("/update/:id", categoriesHandler.Update)
		}
	}

	contacts := r.Group("/contact")
	{
		contacts.GET("/", contactsHandler.Ping)
		contacts.POST("/create", contactsHandler.Create)

		adminOnly := contacts.Group("")
		adminOnly.Use(authMw.RequireSession(), authMw.RequireAdmin())
		{
			adminOnly.GET("/getAll", contactsHandler.GetAll)
			adminOnly.DELETE("/:id", contactsHandler.Delete)
		}
	}

	return r
}
