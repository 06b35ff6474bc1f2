// evalctl serves the Evaluation Orchestrator over HTTP: RAG-triad and
// JSON-to-JSON grading, a tenant-scoped progress stream, and an
// append-only run/feedback history.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/nextgen10/evalctl/pkg/api"
	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/database"
	"github.com/nextgen10/evalctl/pkg/evalcache"
	"github.com/nextgen10/evalctl/pkg/eventbus"
	"github.com/nextgen10/evalctl/pkg/llmgateway"
	"github.com/nextgen10/evalctl/pkg/orchestrator"
	"github.com/nextgen10/evalctl/pkg/promptregistry"
	"github.com/nextgen10/evalctl/pkg/store"
	"github.com/nextgen10/evalctl/pkg/tenant"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	ginMode := getEnv("GIN_MODE", "debug")
	gin.SetMode(ginMode)

	log.Printf("Starting evalctl")
	log.Printf("HTTP Port: %s", httpPort)
	log.Printf("Config Directory: %s", *configDir)

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("Connected to PostgreSQL database")

	prompts, err := promptregistry.Load(cfg.PromptsDir)
	if err != nil {
		log.Fatalf("Failed to load prompt registry: %v", err)
	}

	provider, ok := cfg.LLMProviders[cfg.DefaultModel]
	if !ok {
		log.Fatalf("default_model %q has no matching entry in llm-providers.yaml", cfg.DefaultModel)
	}
	apiKey := os.Getenv(provider.APIKeyEnv)
	if apiKey == "" {
		log.Printf("Warning: %s is unset; upstream chat completions will fail", provider.APIKeyEnv)
	}
	chatClient := llmgateway.NewOpenAIClient(apiKey, provider.APIBase)
	gateway := llmgateway.New(chatClient, prompts, provider)

	cache := evalcache.New(cfg.Cache.Enabled, cfg.Cache.FilePath)

	bus := eventbus.New(cfg.Concurrency.EventQueueCapacity, cfg.Concurrency.EventHeartbeat())

	st := store.New(dbClient)
	gate := tenant.New(st)
	orch := orchestrator.New(gateway, prompts, st, bus)

	log.Println("Services initialized")

	server := api.NewServer(cfg, dbClient, st, gate, bus, cache, gateway, prompts, orch)
	router := gin.Default()
	server.Routes(router)

	log.Printf("HTTP server listening on :%s", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
