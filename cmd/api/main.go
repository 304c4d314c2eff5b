package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/config"
	"printshop-api/internal/handler"
	"printshop-api/internal/metrics"
	"printshop-api/internal/middleware"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/sequence"
	"printshop-api/internal/service"
	"printshop-api/internal/tracing"
	"printshop-api/internal/ws"
	"printshop-api/pkg/database"
	"printshop-api/pkg/jwt"
	"printshop-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ticketSequence is a generator that can be raised past numbers already in use.
type ticketSequence interface {
	sequence.Generator
	EnsureAtLeast(ctx context.Context, floor int64) (int64, error)
}

func main() {
	if err := run(); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Config and logging
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet, fall back to the default
		logger.Init(logger.Options{})
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: cfg.AppName})

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, cfg.AppName, cfg.Env)
	if err != nil {
		return err
	}

	// 2. Database, schema and role table
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}

	policy := authz.DefaultPolicy()
	roleRepo := repository.NewRoleRepo(db)
	if err := roleRepo.SyncFromPolicy(ctx, policy); err != nil {
		return err
	}

	userRepo := repository.NewUserRepo(db)
	if err := seedSuperAdmin(ctx, log, cfg, userRepo, roleRepo); err != nil {
		return err
	}

	// 3. Ticket numbering
	rdb, err := database.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var numbers ticketSequence
	if rdb != nil {
		defer rdb.Close()
		numbers = sequence.NewRedis(rdb, sequence.TicketKey)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("ticket numbers from redis")
	} else {
		numbers = sequence.NewPostgres(db, sequence.TicketKey)
		log.Info().Msg("ticket numbers from postgres counters")
	}

	ticketRepo := repository.NewTicketRepo(db)
	highest, err := ticketRepo.MaxSequence(ctx)
	if err != nil {
		return err
	}
	if _, err := numbers.EnsureAtLeast(ctx, highest); err != nil {
		return err
	}

	// 4. WebSocket hub
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	// 5. Dependency injection
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry, cfg.JWT.ImpersonationExpiry)
	tenantRepo := repository.NewTenantRepo(db)
	productRepo := repository.NewProductRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	deliveryRepo := repository.NewDeliveryRepo(db)
	materialRepo := repository.NewMaterialRepo(db)
	equipmentRepo := repository.NewEquipmentRepo(db)
	dashboardRepo := repository.NewDashboardRepo(db)
	activityRepo := repository.NewActivityRepo(db)

	activityService := service.NewActivityService(activityRepo)
	authService := service.NewAuthService(userRepo, roleRepo, tenantRepo, tokens, policy, activityService)
	userService := service.NewUserService(userRepo, roleRepo, tenantRepo, policy, activityService)
	tenantService := service.NewTenantService(tenantRepo, activityService)
	productService := service.NewProductService(productRepo, activityService)
	orderService := service.NewOrderService(orderRepo, productRepo, activityService, hub)
	deliveryService := service.NewDeliveryService(deliveryRepo, orderRepo, activityService, hub)
	ticketService := service.NewTicketService(ticketRepo, orderRepo, userRepo, numbers, activityService, hub)
	inventoryService := service.NewInventoryService(materialRepo, activityService, hub)
	equipmentService := service.NewEquipmentService(equipmentRepo, activityService)
	dashboardService := service.NewDashboardService(dashboardRepo)

	checks := map[string]handler.Check{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Users:     handler.NewUserHandler(userService),
		Roles:     handler.NewRoleHandler(userService),
		Tenants:   handler.NewTenantHandler(tenantService),
		Products:  handler.NewProductHandler(productService),
		Orders:    handler.NewOrderHandler(orderService),
		Delivery:  handler.NewDeliveryHandler(deliveryService),
		Tickets:   handler.NewTicketHandler(ticketService),
		Inventory: handler.NewInventoryHandler(inventoryService),
		Equipment: handler.NewEquipmentHandler(equipmentService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Activity:  handler.NewActivityHandler(activityService),
		Health:    handler.NewHealthHandler(checks),
		WS:        handler.NewWSHandler(hub, authService),
	}

	// 6. Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handler.ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigin}))
	app.Use(metrics.Middleware())
	app.Use(middleware.RequestMeta())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// 7. Routes
	handler.Register(app, authService, handlers)

	// 8. Graceful shutdown
	listenErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}

// seedSuperAdmin creates the platform operator account on an empty install.
// Nothing is seeded unless SEED_ADMIN_PASSWORD is set.
func seedSuperAdmin(ctx context.Context, log zerolog.Logger, cfg *config.Config, users repository.UserRepository, roles repository.RoleRepository) error {
	if cfg.SeedAdminPassword == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	role, err := roles.FindByName(ctx, authz.RoleSuperAdmin)
	if err != nil {
		return err
	}
	admin := &model.User{
		Email:    email,
		Name:     "Platform Administrator",
		RoleID:   role.ID,
		IsActive: true,
	}
	if err := admin.SetPassword(cfg.SeedAdminPassword); err != nil {
		return err
	}
	admin.RotateTokenVersion()
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Info().Str("email", admin.Email).Msg("super admin seeded")
	return nil
}
