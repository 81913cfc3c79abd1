package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"nutridiary/internal/config"
	"nutridiary/internal/db"
	"nutridiary/internal/handlers"
	mw "nutridiary/internal/middleware"
	"nutridiary/internal/session"
)

// selectionTTL bounds how long a staged delete-selection survives
// before it is silently dropped.
const selectionTTL = 15 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	var dbConn *sqlx.DB
	if cfg.DatabaseURL != "" {
		dbConn, err = sqlx.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to open db", zap.Error(err))
		}
		dbConn.SetMaxOpenConns(10)
		dbConn.SetConnMaxLifetime(2 * time.Hour)
		if err = dbConn.Ping(); err != nil {
			logger.Fatal("failed to ping db", zap.Error(err))
		}
		if err := db.RunMigrations(dbConn); err != nil {
			logger.Fatal("failed migrations", zap.Error(err))
		}
	} else {
		logger.Warn("DATABASE_URL not set; API will run but DB is unavailable")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtSecret := []byte(cfg.JWTSecret)
	selections := session.NewStore(selectionTTL)

	authHandler := handlers.NewAuthHandler(dbConn, jwtSecret)
	profileHandler := handlers.NewProfileHandler(dbConn)
	foodHandler := handlers.NewFoodHandler(dbConn)
	brandHandler := handlers.NewBrandHandler(dbConn)
	diaryHandler := handlers.NewDiaryHandler(dbConn, selections)
	mealHandler := handlers.NewMealHandler(dbConn)
	progressHandler := handlers.NewProgressHandler(dbConn)
	authMW := mw.NewAuthMiddleware(jwtSecret)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", authHandler.Signup)
		api.Post("/auth/login", authHandler.Login)

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)

			pr.Get("/profile", profileHandler.GetMe)
			pr.Put("/profile", profileHandler.UpdateMe)
			pr.Get("/profile/derived", profileHandler.GetDerived)
			pr.Post("/profile/target/recommended", profileHandler.SetRecommendedTarget)
			pr.Post("/profile/target/percent", profileHandler.SetPercentTarget)
			pr.Post("/profile/target/grams", profileHandler.SetGramsTarget)
			pr.Post("/profile/target/custom", profileHandler.SetCustomTarget)

			pr.Get("/food", foodHandler.List)
			pr.Post("/food", foodHandler.Create)
			pr.Get("/food/{id}", foodHandler.Get)
			pr.Put("/food/{id}", foodHandler.Update)
			pr.Delete("/food/{id}", foodHandler.Delete)

			pr.Get("/brands", brandHandler.ListBrands)
			pr.Post("/brands", brandHandler.CreateBrand)
			pr.Get("/brands/{id}", brandHandler.GetBrand)
			pr.Put("/brands/{id}", brandHandler.UpdateBrand)
			pr.Get("/categories", brandHandler.ListCategories)
			pr.Post("/categories", brandHandler.CreateCategory)
			pr.Get("/categories/{id}", brandHandler.GetCategory)
			pr.Put("/categories/{id}", brandHandler.UpdateCategory)

			pr.Get("/diary/{date}", diaryHandler.Day)
			pr.Post("/diary/{date}/copy-previous", diaryHandler.CopyPreviousDay)
			pr.Get("/diary/{date}/meal/{slot}", diaryHandler.Slot)
			pr.Post("/diary/{date}/meal/{slot}", diaryHandler.AddEntries)
			pr.Post("/diary/{date}/meal/{slot}/copy-previous", diaryHandler.CopyPreviousSlot)
			pr.Post("/diary/{date}/meal/{slot}/add-meal/{mealID}", diaryHandler.AddMeal)
			pr.Put("/diary/entry/{id}", diaryHandler.UpdateEntry)
			pr.Delete("/diary/entry/{id}", diaryHandler.DeleteEntry)
			pr.Post("/diary/selection", diaryHandler.StageSelection)
			pr.Get("/diary/selection", diaryHandler.ReviewSelection)
			pr.Post("/diary/selection/delete", diaryHandler.DeleteSelection)

			pr.Get("/meals", mealHandler.List)
			pr.Post("/meals", mealHandler.Create)
			pr.Get("/meals/{id}", mealHandler.Get)
			pr.Put("/meals/{id}", mealHandler.Update)
			pr.Delete("/meals/{id}", mealHandler.Delete)
			pr.Post("/meals/{id}/items", mealHandler.AddItem)
			pr.Delete("/meals/{id}/items/{itemID}", mealHandler.DeleteItem)

			pr.Get("/progress", progressHandler.List)
			pr.Put("/progress/{date}", progressHandler.Upsert)
		})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info("server stopped")
}
