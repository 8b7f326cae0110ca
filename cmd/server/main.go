package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"pricing_backend/internal/app/di"
	"pricing_backend/internal/app/router"
	authadapters "pricing_backend/internal/feature/auth/adapters"
	authhandler "pricing_backend/internal/feature/auth/transport/handler"
	authusecase "pricing_backend/internal/feature/auth/usecase"
	pricinghandler "pricing_backend/internal/feature/pricing/transport/handler"
	pricingusecase "pricing_backend/internal/feature/pricing/usecase"
	producthandler "pricing_backend/internal/feature/product/transport/handler"
	productusecase "pricing_backend/internal/feature/product/usecase"
	"pricing_backend/internal/platform/config"
	"pricing_backend/internal/platform/db"
	platformhandler "pricing_backend/internal/platform/http/handler"
	jwtmw "pricing_backend/internal/platform/jwt"
	"pricing_backend/internal/platform/mail"
	"pricing_backend/internal/platform/metrics"
	infraredis "pricing_backend/internal/platform/redis"
	"pricing_backend/internal/shared/ratelimiter"
)

const (
	// janitorInterval は期限切れセッションを掃除する間隔です。
	janitorInterval = time.Hour
	// shutdownTimeout は処理中リクエストの完了を待つ上限です。
	shutdownTimeout = 10 * time.Second
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.App, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// JWT_SECRETチェック
	jwtCfg := jwtmw.LoadConfig()
	if jwtCfg.Secret == "" {
		return errors.New(jwtmw.EnvKeyJWTSecret + " is not set")
	}

	// db
	gdb, err := db.Open(db.LoadConfig())
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	// Redis（未設定・接続不可ならキャッシュなしで動作）
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
	} else if tmp != nil {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	ready := map[string]platformhandler.Pinger{"db": sqlDB}
	if rdb != nil {
		ready["redis"] = infraredis.Pinger{Client: rdb}
	}

	// Repository
	userRepo := authadapters.NewUserRepository(gdb)
	sessionRepo := di.NewSessionRepository(rdb, gdb)
	productStore := di.NewProductStore(gdb, rdb, cfg.ProductCacheTTL)

	// Usecase
	tokens := jwtmw.NewGenerator(jwtCfg)
	authUC := authusecase.NewAuthUsecase(userRepo, sessionRepo, tokens, mail.New(mail.LoadConfig()), authusecase.Config{
		PublicBaseURL: cfg.PublicBaseURL,
		RefreshExpiry: cfg.RefreshExpiry,
	})
	productUC := productusecase.NewProductUsecase(productStore)
	pricingUC := pricingusecase.NewPricingUsecase(productStore)

	// Handler
	m := metrics.New()
	engine := router.NewRouter(router.Handlers{
		Auth:     authhandler.NewAuthHandler(authUC, m, cfg.LoginPageURL),
		Products: producthandler.NewProductHandler(productUC),
		Pricing:  pricinghandler.NewPricingHandler(pricingUC),
	}, router.Options{
		Tokens:         tokens,
		Metrics:        m,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthLimiter:    ratelimiter.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow),
		Ready:          ready,
	})

	go runSessionJanitor(ctx, authUC)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sessionPurger は期限切れセッションを削除できるユースケースです。
type sessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// runSessionJanitor は ctx が終わるまで定期的に期限切れセッションを削除します。
func runSessionJanitor(ctx context.Context, p sessionPurger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpiredSessions(ctx)
			if err != nil {
				slog.Error("failed to purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired sessions", "count", n)
			}
		}
	}
}
