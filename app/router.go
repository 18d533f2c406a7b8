package app

import (
	"context"
	"hungrypanda/hub-api/app/auth"
	"hungrypanda/hub-api/app/resource"
	"hungrypanda/hub-api/app/root"
	"hungrypanda/hub-api/app/startup"
	"hungrypanda/hub-api/app/user"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/pkg/middleware"
	"hungrypanda/hub-api/pkg/validators"
	"slices"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Multipart overhead allowed on top of the image itself
const logoFormOverhead = 64 << 10

// NewRouter wires every route of the API. Background work started here
// (rate limiter cleanup) stops when ctx is cancelled.
func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	cfg := d.Config
	store := persist.NewMemoryStore(time.Minute)

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CORS,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = validators.MaxImageSize + logoFormOverhead

	jwt := middleware.NewAuthMiddleware(d.Tokens)
	limit := middleware.BodySizeLimiter(cfg.Host.MaxBodySize)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             cfg.Security.RateBurst,
	})
	go limiter.Cleanup(ctx)
	rateLimit := limiter.Middleware()

	guard := []gin.HandlerFunc{rateLimit}
	if cfg.Security.TurnstileEnabled {
		guard = append(guard, middleware.NewTurnstileMiddleware(cfg.Security.TurnstileSecretToken, middleware.TurnstileVerifyURL))
	}

	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clone(guard), h)
	}

	// GET /					-> Service name, version and status
	router.GET("/", func(c *gin.Context) { root.Index(c, d) })

	a := router.Group("/auth", limit)
	{
		// POST /auth/request-magic-link	-> Issues a magic link for an email and username
		a.POST("/request-magic-link", guarded(func(c *gin.Context) { auth.RequestMagicLink(c, d) })...)

		// GET /auth/verify			-> Redeems a magic link token for an access token
		a.GET("/verify", rateLimit, func(c *gin.Context) { auth.Verify(c, d) })

		// POST /auth/signup			-> Registers a user with a password
		a.POST("/signup", guarded(func(c *gin.Context) { auth.Signup(c, d) })...)

		// POST /auth/login			-> Exchanges email and password for an access token
		a.POST("/login", rateLimit, func(c *gin.Context) { auth.Login(c, d) })

		// POST /auth/logout			-> Tokens are stateless, nothing to revoke
		a.POST("/logout", auth.Logout)

		// GET /auth/me				-> Returns the user behind the access token
		a.GET("/me", jwt, func(c *gin.Context) { auth.Me(c, d) })
	}

	m := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/health		-> Reports the state of the database and redis
		m.GET("/health", func(c *gin.Context) { root.Health(c, d) })

		// GET /api/validate		-> Validates an access token
		m.GET("/validate", jwt, root.Validate)
	}

	u := m.Group("/users")
	{
		// GET /api/users		-> Lists all users
		u.GET("", func(c *gin.Context) { user.UserList(c, d) })

		// GET /api/users/:id		-> Returns a single user
		u.GET("/:id", func(c *gin.Context) { user.UserFetch(c, d) })

		// PUT /api/users/:id		-> Updates the profile of the calling user
		u.PUT("/:id", limit, jwt, func(c *gin.Context) { user.UserUpdate(c, d) })

		// DELETE /api/users/:id 	-> Deletes the account of the calling user
		u.DELETE("/:id", jwt, func(c *gin.Context) { user.UserDelete(c, d) })
	}

	s := m.Group("/startups")
	{
		// GET /api/startups		-> Lists startups, filtered by industry and stage
		s.GET("", func(c *gin.Context) { startup.StartupList(c, d) })

		// GET /api/startups/:id	-> Returns a single startup
		s.GET("/:id", func(c *gin.Context) { startup.StartupFetch(c, d) })

		// POST /api/startups		-> Creates a startup owned by the caller
		s.POST("", limit, jwt, func(c *gin.Context) { startup.StartupCreate(c, d) })

		// PUT /api/startups/:id	-> Partially updates a startup of the caller
		s.PUT("/:id", limit, jwt, func(c *gin.Context) { startup.StartupUpdate(c, d) })

		// PUT /api/startups/:id/logo	-> Uploads a new logo for a startup of the caller
		s.PUT("/:id/logo", middleware.BodySizeLimiter(validators.MaxImageSize+logoFormOverhead), jwt, func(c *gin.Context) { startup.StartupLogo(c, d) })

		// DELETE /api/startups/:id	-> Deletes a startup of the caller
		s.DELETE("/:id", jwt, func(c *gin.Context) { startup.StartupDelete(c, d) })
	}

	r := m.Group("/resources")
	{
		// GET /api/resources		-> Lists resources, filtered by category
		r.GET("", func(c *gin.Context) { resource.ResourceList(c, d) })

		// GET /api/resources/categories	-> Lists the distinct resource categories
		r.GET("/categories", cache.CacheByRequestURI(store, 15*time.Second), func(c *gin.Context) { resource.ResourceCategories(c, d) })

		// GET /api/resources/:id	-> Returns a resource and counts the view
		r.GET("/:id", func(c *gin.Context) { resource.ResourceFetch(c, d) })

		// POST /api/resources		-> Creates a resource
		r.POST("", limit, jwt, func(c *gin.Context) { resource.ResourceCreate(c, d) })

		// DELETE /api/resources/:id	-> Deletes a resource
		r.DELETE("/:id", jwt, func(c *gin.Context) { resource.ResourceDelete(c, d) })
	}

	return router
}
