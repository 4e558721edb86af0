package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipeshare/config"
	"recipeshare/internal/database"
	"recipeshare/internal/handlers"
	"recipeshare/internal/jobs"
	"recipeshare/internal/logging"
	"recipeshare/internal/middleware"
	"recipeshare/internal/services"
	"recipeshare/internal/telemetry"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.IsDevelopment())

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTelServiceName, cfg.OTelEndpoint)
	if err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logging.Logger().Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	if err := middleware.InitMetrics(); err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to initialize metrics")
	}

	if err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment()); err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to run database migrations")
	}

	jobClient, err := jobs.NewClient(cfg.RedisAddr())
	if err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to create job client")
	}
	defer jobClient.Close()

	authService := services.NewAuthService(cfg.JWTSecret, cfg.JWTExpiresIn)
	userService := services.NewUserService()
	recipeService := services.NewRecipeService()
	tagService := services.NewTagService()
	ingredientService := services.NewIngredientService()
	shoppingListService := services.NewShoppingListService()

	healthHandler := handlers.NewHealthHandler(cfg.RedisAddr())
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, shoppingListService, jobClient)
	tagHandler := handlers.NewTagHandler(tagService)
	ingredientHandler := handlers.NewIngredientHandler(ingredientService)

	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(otelecho.Middleware(cfg.OTelServiceName, otelecho.WithSkipper(func(c echo.Context) bool {
		return c.Path() == "/api/health"
	})))
	e.Use(middleware.Metrics())
	e.HTTPErrorHandler = middleware.ErrorHandler

	if cfg.IsDevelopment() {
		e.Use(echomiddleware.Logger())
	}

	api := e.Group("/api")

	api.GET("/health", healthHandler.Check)

	api.POST("/users", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	auth := api.Group("")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.POST("/auth/logout", authHandler.Logout)
	auth.GET("/users/me", authHandler.Me)
	auth.POST("/users/set_password", authHandler.SetPassword)
	auth.GET("/users/subscriptions", userHandler.Subscriptions)
	auth.POST("/users/:id/subscribe", userHandler.Subscribe)
	auth.DELETE("/users/:id/subscribe", userHandler.Unsubscribe)

	api.GET("/users", userHandler.List, middleware.OptionalJWTAuth(cfg.JWTSecret))
	api.GET("/users/:id", userHandler.Get, middleware.OptionalJWTAuth(cfg.JWTSecret))

	api.GET("/tags", tagHandler.List)
	api.GET("/tags/:id", tagHandler.Get)
	api.GET("/ingredients", ingredientHandler.List)
	api.GET("/ingredients/:id", ingredientHandler.Get)

	api.GET("/recipes", recipeHandler.List, middleware.OptionalJWTAuth(cfg.JWTSecret))
	api.GET("/recipes/:id", recipeHandler.Get, middleware.OptionalJWTAuth(cfg.JWTSecret))

	authRecipes := api.Group("/recipes")
	authRecipes.Use(middleware.JWTAuth(cfg.JWTSecret))
	authRecipes.POST("", recipeHandler.Create)
	authRecipes.PATCH("/:id", recipeHandler.Update)
	authRecipes.DELETE("/:id", recipeHandler.Delete)
	authRecipes.POST("/:id/favorite", recipeHandler.Favorite)
	authRecipes.DELETE("/:id/favorite", recipeHandler.Unfavorite)
	authRecipes.POST("/:id/shopping_cart", recipeHandler.AddToShoppingCart)
	authRecipes.DELETE("/:id/shopping_cart", recipeHandler.RemoveFromShoppingCart)
	authRecipes.GET("/download_shopping_cart", recipeHandler.DownloadShoppingCart)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logging.Logger().Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logging.Logger().Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Logger().Error().Err(err).Msg("failed to shutdown server")
	}
}
