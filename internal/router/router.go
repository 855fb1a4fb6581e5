package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/tickersocial/backend/internal/analysis"
	"github.com/tickersocial/backend/internal/handlers"
	"github.com/tickersocial/backend/internal/llm"
	"github.com/tickersocial/backend/internal/market"
	"github.com/tickersocial/backend/internal/middleware"
	"github.com/tickersocial/backend/internal/models"
	"github.com/tickersocial/backend/internal/ranking"
	"github.com/tickersocial/backend/internal/repositories"
	"github.com/tickersocial/backend/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.PostTag{},
		&models.Reaction{},
		&models.FeedRanking{},
		&models.SelfInvestment{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewPostgresPostRepository(pgdb)
	tagRepo := repositories.NewPostgresTagRepository(pgdb)
	reactionRepo := repositories.NewPostgresReactionRepository(pgdb)
	feedRankingRepo := repositories.NewPostgresFeedRankingRepository(pgdb)
	selfInvestmentRepo := repositories.NewPostgresSelfInvestmentRepository(pgdb)
	marketRepo := repositories.NewMongoMarketRepository(mgClient.Database("tickersocial"))

	// --- Pipeline engines ---
	llmClient := llm.NewOpenAIClient(cfg)
	if llmClient.Configured() {
		log.Println("Language model configured; model-assisted analysis and ranking enabled.")
	} else {
		log.Println("Language model not configured; using deterministic fallbacks.")
	}
	analysisEngine := analysis.NewEngine(llmClient)
	rankingEngine := ranking.NewEngine(postRepo, userRepo, reactionRepo, tagRepo, llmClient, cfg.Ranking)
	marketProvider := market.NewProvider(cfg, marketRepo)

	// --- Protected routes (require a verified Firebase identity) ---
	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(firebaseAuthClient))
	log.Println("Firebase authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterUserRoutes(api)
	log.Println("User routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, tagRepo, userRepo, reactionRepo, analysisEngine)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(rankingEngine, postRepo, userRepo, reactionRepo, feedRankingRepo)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Reaction routes
	reactionHandler := handlers.NewReactionHandler(reactionRepo, postRepo, userRepo)
	reactionHandler.RegisterReactionRoutes(api)
	log.Println("Reaction routes configured.")

	// Self-investment routes
	selfInvestmentHandler := handlers.NewSelfInvestmentHandler(selfInvestmentRepo, userRepo)
	selfInvestmentHandler.RegisterSelfInvestmentRoutes(api)
	log.Println("Self-investment routes configured.")

	// Market data routes
	marketHandler := handlers.NewMarketHandler(marketProvider)
	marketHandler.RegisterMarketRoutes(api)
	log.Println("Market routes configured.")

	log.Println("All routes configured.")
}
