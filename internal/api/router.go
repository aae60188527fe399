package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/court-booking-scheduler/internal/auth"
	"github.com/nekogravitycat/court-booking-scheduler/internal/booking"
	bookingHttp "github.com/nekogravitycat/court-booking-scheduler/internal/booking/http"
	"github.com/nekogravitycat/court-booking-scheduler/internal/recurring"
	recurringHttp "github.com/nekogravitycat/court-booking-scheduler/internal/recurring/http"
	"github.com/nekogravitycat/court-booking-scheduler/internal/resource"
	resHttp "github.com/nekogravitycat/court-booking-scheduler/internal/resource/http"
)

// Config holds the services and settings the router is assembled from.
type Config struct {
	IsProduction     bool
	ProdOrigins      string
	Logger           *zap.Logger
	JWTManager       *auth.JWTManager
	ResService       resource.Service
	BookingService   booking.Service
	RecurringService recurring.Service
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (request ID, logging, CORS, auth) and registering routes for each module.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - RequestID: tags every request so log lines can be correlated.
	// - Logger: one structured log line per request.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestID(), Logger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		config.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	config.ExposeHeaders = []string{requestIDHeader}
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	resHandler := resHttp.NewHandler(cfg.ResService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	recurringHandler := recurringHttp.NewHandler(cfg.RecurringService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		resHttp.RegisterRoutes(v1, resHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		recurringHttp.RegisterRoutes(v1, recurringHandler, authMiddleware)
	}

	return r
}
