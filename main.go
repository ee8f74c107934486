package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"scout-admin-system/handlers"
	"scout-admin-system/middleware"
	"scout-admin-system/models"
	"scout-admin-system/services"
	"scout-admin-system/store"
	"scout-admin-system/utils"
	"scout-admin-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	loadErr := godotenv.Load()
	utils.InitLogger()
	defer utils.SyncLogger()
	if loadErr != nil {
		utils.Warn("no .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	// Only Gateway requests allowed — no exceptions.
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		utils.Warn("ALLOWED_ORIGINS not set, using default", "default", "http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		utils.Fatal("DATABASE_URL environment variable not set", nil)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		utils.Fatal("failed to connect to database", err)
	}

	if err := db.AutoMigrate(
		&models.BadgeDefinition{},
		&models.BadgeModule{},
		&models.BadgeRequirement{},
		&models.MemberRequirementProgress{},
		&models.MemberBadgeProgress{},
		&models.MemberBadgeAward{},
		&models.Member{},
		&models.NightsAwayLog{},
		&models.Programme{},
		&models.Event{},
		&models.Attendance{},
		&models.BadgeLink{},
	); err != nil {
		utils.Fatal("failed to migrate database", err)
	}

	recordStore := store.NewGormStore(db)

	ledgerService := services.NewLedgerService(recordStore)
	badgeAggregator := services.NewBadgeAggregator(recordStore)
	awardReconciler := services.NewAwardReconciler(recordStore)
	attendanceService := services.NewAttendanceService(recordStore, ledgerService, badgeAggregator, awardReconciler)
	manualService := services.NewManualProgressService(ledgerService, badgeAggregator, awardReconciler)
	goldService := services.NewGoldAwardService(recordStore)
	tenureService := services.NewTenureService(recordStore)
	catalogService := services.NewBadgeCatalogService(recordStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := catalogService.SeedTimeBadges(ctx); err != nil {
		utils.Fatal("failed to seed time badges", err)
	}

	counterWorker := workers.NewCounterSyncWorker(recordStore)
	go counterWorker.PollCounters(ctx, 15*time.Minute)

	sched, err := services.StartSweepScheduler(goldService, tenureService)
	if err != nil {
		utils.Fatal("failed to start sweep scheduler", err)
	}
	defer func() { _ = sched.Shutdown() }()

	handlers.SetupBadgeRoutes(app, catalogService)
	handlers.SetupProgressRoutes(app, handlers.ProgressRouteServices{
		Ledger:     ledgerService,
		Manual:     manualService,
		Attendance: attendanceService,
		Aggregator: badgeAggregator,
		Reconciler: awardReconciler,
		Gold:       goldService,
		Tenure:     tenureService,
	})

	go func() {
		if err := app.Listen(":5300"); err != nil {
			utils.Error("server error", "error", err)
		}
	}()

	utils.Info("server running", "addr", "http://localhost:5300")
	utils.Info("counter sync worker running", "interval", "15m")
	utils.Info("sweep scheduler running")
	utils.Info("gateway auth enforced globally")
	utils.Info("CORS configured", "origins", allowedOriginsString)

	<-ctx.Done()
	utils.Info("shutting down server")
	_ = app.Shutdown()
}
