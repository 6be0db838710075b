package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/erp-ledger/internal/application/auth"
	"github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/application/catalog"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/application/order"
	"github.com/jhoicas/erp-ledger/internal/application/payment"
	"github.com/jhoicas/erp-ledger/internal/application/purchase"
	"github.com/jhoicas/erp-ledger/internal/cron"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	infrapdf "github.com/jhoicas/erp-ledger/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/erp-ledger/internal/interfaces/http"
	"github.com/jhoicas/erp-ledger/pkg/config"
	"github.com/jhoicas/erp-ledger/pkg/logger"
	"github.com/jhoicas/erp-ledger/pkg/metrics"
	pkgredis "github.com/jhoicas/erp-ledger/pkg/redis"
)

// devJWTSecret solo se usa fuera de production cuando JWT_SECRET no está definido.
const devJWTSecret = "dev-secret-no-usar-en-produccion"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío, usando secreto de desarrollo")
		cfg.JWT.Secret = devJWTSecret
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedgerMetrics(reg)
	cronMetrics := metrics.NewCronJobMetrics(reg)

	repos := store.repos
	ledger := inventory.NewLedger(ledgerMetrics)
	reservations := inventory.NewReservations(ledger, cfg.Ledger.ReservationTTL())

	orderUC := order.NewUseCase(store.tx, repos.Orders, ledger, reservations, ledgerMetrics, log)
	purchaseUC := purchase.NewUseCase(store.tx, repos.Purchases, ledger, ledgerMetrics, log)
	paymentUC := payment.NewUseCase(store.tx, repos.Payments, repos.Installments, repos.Customers, repos.Sales,
		payment.Config{DefaultCashBoxID: cfg.Payments.DefaultCashBoxID}, ledgerMetrics, log)
	pdfUC := billing.NewPDFUseCase(repos.Sales, repos.Customers, repos.Products, repos.Warehouses, repos.Payments,
		infrapdf.NewMarotoPDFGenerator(cfg.App.Name))
	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ERP Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.App.Storage})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		OrderUC:     orderUC,
		PurchaseUC:  purchaseUC,
		PaymentUC:   paymentUC,
		CatalogUC:   catalog.NewUseCase(repos.Customers, repos.Products, repos.Warehouses, repos.Suppliers),
		PDFUC:       pdfUC,
		StockQuery:  inventory.NewQueryUseCase(repos.Stock, repos.Movements, repos.Products),
		StockAdjust: inventory.NewAdjustUseCase(store.tx, ledger, log),
		JWTSecret:   cfg.JWT.Secret,
	})

	if cfg.Cron.Enabled {
		svc, closeLock, err := newCronService(ctx, cfg, log, cronMetrics, repos, orderUC)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar cron")
		}
		defer closeLock()
		go func() {
			if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("cron finalizado")
			}
		}()
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// newCronService arma el barrido de reservas. Con Redis el lock es compartido entre
// réplicas; sin Redis basta un lock local.
func newCronService(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	m *metrics.CronJobMetrics,
	repos repository.TxRepos,
	orderUC *order.UseCase,
) (*cron.Service, func(), error) {
	closeFn := func() {}
	var lock cron.Lock = cron.NewLocalLock()
	if cfg.Redis.Enabled() {
		client, err := pkgredis.New(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, closeFn, err
		}
		closeFn = func() { _ = client.Close() }
		redisLock, err := cron.NewRedisLock(client, cfg.Cron.LockKey, 2*cfg.Cron.Interval())
		if err != nil {
			closeFn()
			return nil, func() {}, err
		}
		lock = redisLock
	}

	job, err := cron.NewReservationExpiryJob(cron.ReservationExpiryJobParams{
		Logger:       log,
		Reservations: repos.Reservations,
		Orders:       orderUC,
		Metrics:      m,
	})
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	svc, err := cron.NewService(cron.ServiceParams{
		Logger:   log,
		Jobs:     []cron.Job{job},
		Lock:     lock,
		Metrics:  m,
		Interval: cfg.Cron.Interval(),
	})
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return svc, closeFn, nil
}
