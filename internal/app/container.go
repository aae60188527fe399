package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/court-booking-scheduler/internal/api"
	"github.com/nekogravitycat/court-booking-scheduler/internal/auth"
	"github.com/nekogravitycat/court-booking-scheduler/internal/booking"
	"github.com/nekogravitycat/court-booking-scheduler/internal/config"
	"github.com/nekogravitycat/court-booking-scheduler/internal/recurring"
	"github.com/nekogravitycat/court-booking-scheduler/internal/resource"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *zap.Logger
	JWTSecret    string
	JWTTTL       time.Duration
	ClubLocation *time.Location
	Recurrence   config.RecurrenceConfig
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	// Registry must be started and stopped by the caller.
	Registry *recurring.Registry
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Resource Module
	resRepo := resource.NewPgxRepository(cfg.DBPool)
	resService := resource.NewService(resRepo)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, resService, cfg.ClubLocation)

	// Recurring Module
	rc := cfg.Recurrence
	recLogger := cfg.Logger.Named("recurring")
	registry := recurring.NewRegistry(rc.SessionIdleTTL, recLogger)
	expander := recurring.NewExpander(rc.MaxOccurrences)
	detector := recurring.NewDetector(
		recurring.NewBookingOracle(bookingService, cfg.ClubLocation),
		rc.OracleConcurrency,
		rc.OracleTimeout,
		recLogger,
	)
	submitter := recurring.NewBookingSubmitter(bookingService, cfg.ClubLocation)
	recurringService := recurring.NewService(
		registry, expander, detector, submitter, resService,
		recurring.Config{Debounce: rc.Debounce},
		recLogger,
	)

	// API Router Config
	routerParams := api.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		Logger:           cfg.Logger,
		JWTManager:       jwtManager,
		ResService:       resService,
		BookingService:   bookingService,
		RecurringService: recurringService,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Registry:   registry,
	}
}
