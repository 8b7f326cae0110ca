// Package router はHTTPルーティングとミドルウェアの組み立てを行います。
package router

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "pricing_backend/internal/feature/auth/transport/handler"
	pricinghandler "pricing_backend/internal/feature/pricing/transport/handler"
	producthandler "pricing_backend/internal/feature/product/transport/handler"
	platformhandler "pricing_backend/internal/platform/http/handler"
	"pricing_backend/internal/platform/http/middleware"
	"pricing_backend/internal/platform/http/response"
	jwtmw "pricing_backend/internal/platform/jwt"
	"pricing_backend/internal/platform/metrics"
	"pricing_backend/internal/platform/templates"
	"pricing_backend/internal/shared/authz"
	"pricing_backend/internal/shared/ratelimiter"
)

// Handlers はフィーチャーごとのハンドラーです。
type Handlers struct {
	Auth     *authhandler.AuthHandler
	Products *producthandler.ProductHandler
	Pricing  *pricinghandler.PricingHandler
}

// Options はルーター全体に適用する設定と共有コンポーネントです。
type Options struct {
	Tokens         jwtmw.AccessTokenParser
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	AllowedOrigins []string
	// AuthLimiter は登録・ログインに適用します。nil の場合は制限しません。
	AuthLimiter *ratelimiter.RateLimiter
	// Ready は /readyz で確認する依存先です。
	Ready map[string]platformhandler.Pinger
}

// NewRouter はミドルウェアとルートを登録したGinエンジンを返します。
func NewRouter(h Handlers, opt Options) *gin.Engine {
	response.RegisterJSONTagNames()

	r := gin.New()
	r.SetHTMLTemplate(templates.Parse())
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(opt.Logger))
	if opt.Metrics != nil {
		r.Use(opt.Metrics.Middleware())
	}
	r.Use(cors.New(corsConfig(opt.AllowedOrigins)))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	r.GET("/readyz", platformhandler.Ready(opt.Ready))
	if opt.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opt.Metrics.Handler()))
	}

	limited := func(hf gin.HandlerFunc) []gin.HandlerFunc {
		if opt.AuthLimiter == nil {
			return []gin.HandlerFunc{hf}
		}
		return []gin.HandlerFunc{ratelimiter.Middleware(opt.AuthLimiter), hf}
	}

	accounts := r.Group("/accounts")
	{
		accounts.POST("/register", limited(h.Auth.Register)...)
		accounts.GET("/verify-email/:uid/:token", h.Auth.VerifyEmail)
		accounts.POST("/login", limited(h.Auth.Login)...)
		accounts.POST("/token/refresh", h.Auth.Refresh)
		accounts.POST("/logout", jwtmw.AuthRequired(opt.Tokens), h.Auth.Logout)
	}

	// 認証必須のルート
	// → リクエストヘッダーに JWT が必要になり、その後ロールで認可する
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(opt.Tokens))
	{
		read := authz.Require(authz.ActionProductRead)
		write := authz.Require(authz.ActionProductWrite)
		auth.GET("/products", read, h.Products.List)
		auth.GET("/products/:id", read, h.Products.Get)
		auth.POST("/products", write, h.Products.Create)
		auth.PUT("/products/:id", write, h.Products.Update)
		auth.DELETE("/products/:id", write, h.Products.Delete)

		auth.POST("/pricing/demand-forecast", authz.Require(authz.ActionPricingForecast), h.Pricing.DemandForecast)
		auth.GET("/pricing/pricing-optimization", authz.Require(authz.ActionPricingView), h.Pricing.PricingOptimization)
		auth.GET("/pricing/products/:id/estimate", authz.Require(authz.ActionPricingEstimate), h.Pricing.Estimate)
	}

	return r
}

// corsConfig はオリジン一覧からCORS設定を作ります。
// 空または "*" の場合は全オリジンを許可し、資格情報の送信は許可しません。
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
