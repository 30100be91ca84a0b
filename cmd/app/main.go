package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/authgate"
	"app/internal/config"
	"app/internal/docstore"
	"app/internal/loading"
	"app/internal/logger"
	"app/internal/model"
	"app/internal/router"
	"app/internal/secrets"
	"app/internal/service"
	"app/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx := context.Background()
	if err := secrets.Overlay(ctx, cfg); err != nil {
		logger.Fatal().Msgf("Error loading secrets: %v", err)
	}

	// 2. Connect the remote document store
	docs, db, err := docstore.Open(cfg.Environment, cfg.DBConnectionString, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to open document store: %v", err)
	}
	defer db.Close()
	if err := docs.EnsureSchema(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ensure schema: %v", err)
	}

	// 3. Authentication gate
	gate, err := authgate.NewIdentityToolkit(ctx, cfg.AuthAPIKey, cfg.AuthContinueURL, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to create auth gate: %v", err)
	}

	// 4. State containers, injected everywhere instead of global singletons
	courseStore := store.NewCourseStore()
	chapterStore := store.NewChapterStore()
	userStore := store.NewUserStore()
	bar := loading.NewBar()

	// 5. Services
	validate := validator.New(validator.WithRequiredStructEnabled())
	storageSvc, err := service.NewStorageService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to create storage service: %v", err)
	}
	userSvc := service.NewUserService(gate, userStore, storageSvc, validate, logger)
	chapterSvc := service.NewChapterService(docs, gate, chapterStore, bar, validate, logger)
	courseSvc := service.NewCourseService(docs, gate, courseStore, chapterSvc, bar, validate, logger)

	// 6. Router with the auth guard
	r := router.New(router.DefaultRoutes(), logger)
	r.BeforeEach(router.AuthGuard(gate, router.RouteSignUp))

	// 7. Re-render course changes for whoever is watching the log
	changes, cancel := courseStore.Subscribe()
	defer cancel()
	go func() {
		for range changes {
			logger.Info().Int("courses", len(courseStore.Courses())).Msg("course cache changed")
		}
	}()

	// 8. Headless sessions can sign in with credentials from the environment
	if email, password := os.Getenv("APP_EMAIL"), os.Getenv("APP_PASSWORD"); email != "" {
		if err := userSvc.SignIn(ctx, model.SignInInfo{Email: email, Password: password}); err != nil {
			logger.Fatal().Msgf("Sign-in failed: %v", err)
		}
		logger.Info().Str("email", email).Msg("signed in")
	}

	// 9. Initial navigation; unauthenticated sessions land on the sign-up page
	navCtx, navCancel := context.WithTimeout(ctx, 10*time.Second)
	landed, err := r.Push(navCtx, router.RouteHome)
	navCancel()
	if err != nil {
		logger.Fatal().Msgf("Initial navigation failed: %v", err)
	}
	logger.Info().Str("route", landed.Name).Msg("navigation resolved")

	if landed.Name == router.RouteHome {
		if _, err := courseSvc.FetchCourses(ctx, service.Options{ShowLoading: true}); err != nil {
			logger.Error().Err(err).Msg("Failed to fetch courses")
		}
	}

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")
}
