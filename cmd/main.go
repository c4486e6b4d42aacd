package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devdecks-backend/internal/assets"
	"devdecks-backend/internal/config"
	"devdecks-backend/internal/handler"
	"devdecks-backend/internal/model"
	"devdecks-backend/internal/provider"
	"devdecks-backend/internal/service"
	"devdecks-backend/internal/storage"
	"devdecks-backend/internal/utils"
	"devdecks-backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	store := openStorage(cfg.Storage)
	generators := buildGenerators(context.Background(), cfg)

	workspace := service.NewWorkspaceService(store, generators, cfg.Session, cfg.Generation.PlaceholderLimit)

	router := setupRouter(cfg,
		handler.NewProjectHandler(workspace),
		handler.NewChatHandler(workspace, cfg.Server),
		handler.NewEditorHandler(workspace),
		handler.NewWatchHandler(workspace),
	)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}

	workspace.Close()
	if cfg.Storage.BackupOnExit {
		if err := store.Backup(); err != nil {
			logger.Errorf("Backup failed: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Errorf("Failed to close storage: %v", err)
	}
	logger.Info("Server stopped")
}

// openStorage builds the configured repository. Disk and postgres sit behind
// an LRU cache; any failure falls back to memory so the server still boots.
func openStorage(cfg config.StorageConfig) storage.Storage {
	var store storage.Storage
	switch cfg.Type {
	case "disk":
		store = storage.NewDiskStorage(cfg.DataDir)
	case "postgres":
		store = storage.NewPostgresStorage(cfg.DSN)
	default:
		store = storage.NewMemoryStorage()
	}

	if _, isMemory := store.(*storage.MemoryStorage); !isMemory {
		cached, err := storage.NewCachedStorage(store, cfg.CacheSize)
		if err != nil {
			logger.Errorf("Failed to create project cache, serving uncached: %v", err)
		} else {
			store = cached
		}
	}

	if err := store.Init(); err != nil {
		logger.Errorf("Failed to initialize %s storage, falling back to memory: %v", cfg.Type, err)
		store = storage.NewMemoryStorage()
		_ = store.Init()
	}
	logger.Infof("Project storage ready: %T", store)
	return store
}

// buildGenerators wires the AI boundaries. Gemini serves media, text
// improvement and every deck model without its own route. OpenAI, Doubao and
// Qwen decks are routed only when their keys are set.
func buildGenerators(ctx context.Context, cfg *config.Config) service.Generators {
	limiter := provider.NewLimiter(cfg.Generation.RequestsPerSecond, cfg.Generation.Burst)

	var gens service.Generators
	var fallback provider.DeckGenerator
	if cfg.Gemini.APIKey != "" {
		gemini, err := provider.NewGemini(ctx, cfg.Gemini, cfg.Generation.VideoPollInterval,
			utils.NewHTTPClient(cfg.Gemini.Timeout), assets.New(cfg.Assets))
		if err != nil {
			logger.Errorf("Gemini disabled: %v", err)
		} else {
			fallback = gemini.Deck()
			gens.Images = limiter.Media(gemini.Images())
			gens.Videos = limiter.Media(gemini.Videos())
			gens.Improver = limiter.Improver(gemini)
		}
	} else {
		logger.Warn("GEMINI_API_KEY is not set; Gemini decks, media and text improvement are disabled")
	}

	router := provider.NewDeckRouter(fallback)
	if cfg.OpenAI.APIKey != "" {
		router.Route(model.ModelGPT4o, provider.NewChatDeck("openai", provider.NewOpenAIChatModel(cfg.OpenAI)))
	}
	if cfg.Doubao.APIKey != "" {
		if chat, err := provider.NewDoubaoChatModel(ctx, cfg.Doubao); err != nil {
			logger.Errorf("Doubao disabled: %v", err)
		} else {
			router.Route(model.ModelDoubao, provider.NewChatDeck("doubao", chat))
		}
	}
	if cfg.Qwen.APIKey != "" {
		if chat, err := provider.NewQwenChatModel(ctx, cfg.Qwen); err != nil {
			logger.Errorf("Qwen disabled: %v", err)
		} else {
			router.Route(model.ModelQwen, provider.NewChatDeck("qwen", chat))
		}
	}
	gens.Decks = limiter.Deck(router)
	return gens
}

func setupRouter(cfg *config.Config, projects *handler.ProjectHandler, chat *handler.ChatHandler, editor *handler.EditorHandler, watch *handler.WatchHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := router.Group("/api")
	projects.Register(api)
	{
		group := api.Group("/projects")
		watch.Register(group)
		chat.Register(group)
		editor.Register(group)
	}

	return router
}
