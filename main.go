package main

import (
	"context"
	"log"
	"os"

	"harugo/internal/api"
	"harugo/internal/config"
	"harugo/internal/imagegen"
	"harugo/internal/llm"
	"harugo/internal/redis"
	"harugo/internal/service/agent"
	"harugo/internal/service/companion"
	"harugo/internal/service/diary"
	"harugo/internal/storage"
	"harugo/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("HARUGO_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("HARUGO_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// Redis only caches history snapshots, so the server runs without it.
	rdb, err := redis.NewClient(cfg)
	if err != nil {
		log.Printf("redis unavailable, history snapshots disabled: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	ctx := context.Background()
	registry := llm.NewRegistry(cfg)
	backend, err := registry.Backend(ctx, cfg.BasicConfig.DefaultBackend)
	if err != nil {
		log.Fatalf("init model backend: %v", err)
	}

	dbName := cfg.Databases[dbType].DBName
	companionSvc := companion.NewService(
		agent.NewMemoryAgent(backend),
		agent.NewDBAgent(db, dbType, dbName, backend),
		agent.NewResponseAgent(backend),
	)

	fileBase := cfg.BasicConfig.FileBaseDir
	if fileBase == "" {
		fileBase = "./data/uploads"
	}
	var images diary.ImageGenerator
	if cfg.BasicConfig.ImageAPIKey != "" {
		imageModel := cfg.BasicConfig.ImageModel
		if imageModel == "" {
			imageModel = "imagen-3.0-generate-002"
		}
		gen, err := imagegen.New(ctx, cfg.BasicConfig.ImageAPIKey, imageModel, fileBase, "/uploads")
		if err != nil {
			log.Printf("image generation disabled: %v", err)
		} else {
			images = gen
		}
	}
	diarySvc := diary.NewService(backend, images)

	workers := worker.NewManager(companionSvc, rdb)
	defer workers.StopAll()

	handlers := api.NewHandler(workers, diarySvc, storage.NewStore(db))

	router := gin.Default()
	router.Static("/uploads", fileBase)
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
