// Package router menyusun fiber app: middleware global, service, handler dan
// tabel route /api.
package router

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/hoshichaam/crm_loyalty_go/internal/config"
	"github.com/hoshichaam/crm_loyalty_go/internal/handlers"
	"github.com/hoshichaam/crm_loyalty_go/internal/middleware"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
	"github.com/hoshichaam/crm_loyalty_go/internal/services"
	response "github.com/hoshichaam/crm_loyalty_go/pkg/response"
)

const Version = "1.0.0"

// Repos adalah satu set storage; postgres atau memrepo.
type Repos struct {
	Users    repositories.UserRepo
	Members  repositories.MemberRepo
	Points   repositories.PointRepo
	Vouchers repositories.VoucherRepo
	Redeems  repositories.RedeemRepo
	Tx       repositories.Transactor
}

type Options struct {
	// AccessLog menyalakan middleware logger; test mematikannya.
	AccessLog bool
}

func New(cfg config.Config, repos Repos, opts Options) *fiber.App {
	authSvc := services.NewAuthService(repos.Users, services.AuthConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		BcryptCost:    cfg.BcryptCost,
	})
	memberSvc := services.NewMemberService(repos.Members, repos.Tx)
	pointSvc := services.NewPointService(repos.Points, repos.Members, repos.Tx)
	voucherSvc := services.NewVoucherService(repos.Vouchers, repos.Tx)
	redeemSvc := services.NewRedeemService(repos.Redeems, repos.Members, repos.Vouchers, repos.Tx)

	authHandler := handlers.NewAuthHandler(authSvc)
	memberHandler := handlers.NewMemberHandler(memberSvc)
	pointHandler := handlers.NewPointHandler(pointSvc)
	voucherHandler := handlers.NewVoucherHandler(voucherSvc)
	redeemHandler := handlers.NewRedeemHandler(redeemSvc)

	// timeout & proxy aware (IP akurat di balik reverse proxy, dipakai rate limiter)
	app := fiber.New(fiber.Config{
		AppName:      "CRM Loyalty API",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,

		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies: []string{
			"127.0.0.1", "::1",
			"10.0.0.0/8",
			"172.16.0.0/12",
			"192.168.0.0/16",
		},
		EnableIPValidation: true,
		ErrorHandler:       errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	// Set env: CORS_ORIGINS="http://localhost:5173,https://app.example.com"
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/", welcome)
	app.Get("/health", health)

	api := app.Group("/api")
	jwt := middleware.JWTRequired(cfg.JWTSecret)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	stopCleanup := authLimiter.StartCleanup(time.Minute, 10*time.Minute)
	app.Hooks().OnShutdown(func() error {
		stopCleanup()
		return nil
	})
	limiter := authLimiter.Handler()

	// auth
	auth := api.Group("/auth")
	auth.Post("/register", limiter, authHandler.Register)
	auth.Post("/login", limiter, authHandler.Login)
	auth.Post("/refresh", limiter, authHandler.Refresh)
	auth.Get("/me", jwt, authHandler.Me)
	auth.Put("/me", jwt, authHandler.UpdateProfile)
	auth.Post("/change-password", jwt, authHandler.ChangePassword)

	// statistics didaftarkan sebelum /:id supaya tidak tertangkap sebagai id
	members := api.Group("/members", jwt)
	members.Get("/statistics", memberHandler.Statistics)
	members.Get("/", memberHandler.List)
	members.Post("/", memberHandler.Create)
	members.Get("/:id", memberHandler.Get)
	members.Put("/:id", memberHandler.Update)
	members.Delete("/:id", memberHandler.Delete)

	points := api.Group("/points", jwt)
	points.Get("/statistics", pointHandler.Statistics)
	points.Get("/member/:memberId", pointHandler.ByMember)
	points.Get("/", pointHandler.List)
	points.Post("/", pointHandler.Create)
	points.Get("/:id", pointHandler.Get)

	vouchers := api.Group("/vouchers", jwt)
	vouchers.Get("/statistics", voucherHandler.Statistics)
	vouchers.Get("/", voucherHandler.List)
	vouchers.Post("/", voucherHandler.Create)
	vouchers.Get("/:id", voucherHandler.Get)
	vouchers.Put("/:id", voucherHandler.Update)
	vouchers.Delete("/:id", voucherHandler.Delete)

	redeem := api.Group("/redeem", jwt)
	redeem.Get("/statistics", redeemHandler.Statistics)
	redeem.Get("/", redeemHandler.List)
	redeem.Post("/", redeemHandler.Create)
	redeem.Get("/:id", redeemHandler.Get)
	redeem.Put("/:id", redeemHandler.Update)
	redeem.Post("/:id/mark-used", redeemHandler.MarkUsed)
	redeem.Post("/:id/cancel", redeemHandler.Cancel)

	return app
}

// errorHandler: error routing fiber (404/405) dan panic ikut format envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, msg = fe.Code, fe.Message
	}
	return response.Error(c, code, msg)
}

func health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": "CRM Loyalty API is running",
		"version": Version,
		"status":  "healthy",
	})
}

func welcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Welcome to CRM Loyalty API",
		"version": Version,
		"endpoints": fiber.Map{
			"auth":     "/api/auth",
			"members":  "/api/members",
			"points":   "/api/points",
			"vouchers": "/api/vouchers",
			"redeem":   "/api/redeem",
			"health":   "/health",
		},
	})
}
