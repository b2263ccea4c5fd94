package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"

	"github.com/securetrust-dev/fraudguard/internal/api"
	"github.com/securetrust-dev/fraudguard/internal/engine"
	"github.com/securetrust-dev/fraudguard/internal/server"
	"github.com/securetrust-dev/fraudguard/internal/vault"
	"github.com/securetrust-dev/fraudguard/internal/verify"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// openBackend builds the persistence backend named by FRAUDGUARD_BACKEND and
// wraps it with answer-at-rest encryption when a vault key is configured.
func openBackend(dataDir string) (engine.Backend, error) {
	var backend engine.Backend
	var err error

	switch name := envOr("FRAUDGUARD_BACKEND", "file"); name {
	case "file":
		backend, err = engine.NewFilePersistence(filepath.Join(dataDir, "fraud_cases.json"))
	case "bolt":
		backend, err = engine.NewBoltBackend(envOr("FRAUDGUARD_BOLT_PATH", filepath.Join(dataDir, "fraud_cases.db")))
	case "postgres":
		dsn := os.Getenv("FRAUDGUARD_DB_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("FRAUDGUARD_DB_DSN is required for the postgres backend")
		}
		backend, err = engine.NewDatabaseBackend(postgres.Open(dsn))
	default:
		return nil, fmt.Errorf("unknown backend %q (want file, bolt or postgres)", name)
	}
	if err != nil {
		return nil, err
	}

	if hexKey := os.Getenv("FRAUDGUARD_VAULT_KEY"); hexKey != "" {
		key, err := vault.ParseKey(hexKey)
		if err != nil {
			return nil, err
		}
		backend = engine.NewEncryptedBackend(backend, key)
		fmt.Println("Security answers are encrypted at rest.")
	}
	return backend, nil
}

func main() {
	fmt.Println("Starting FraudGuard Daemon...")

	// Credentials and deployment settings live in .env.local for local runs.
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	dataDir := envOr("FRAUDGUARD_DATA_DIR", "./data")
	port := envOr("FRAUDGUARD_PORT", "7101")
	httpPort := envOr("FRAUDGUARD_HTTP_PORT", "7102")
	useTLS := os.Getenv("FRAUDGUARD_DISABLE_TLS") != "true"
	apiSecret := []byte(os.Getenv("FRAUDGUARD_API_SECRET"))
	if len(apiSecret) == 0 {
		log.Fatal("FRAUDGUARD_API_SECRET must be set")
	}

	backend, err := openBackend(dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}

	store := engine.NewCaseStore(backend)

	// Seed/migrate from a JSON case file when asked to.
	if importPath := os.Getenv("FRAUDGUARD_IMPORT_FILE"); importPath != "" {
		src, err := engine.NewFilePersistence(importPath)
		if err != nil {
			log.Fatalf("Failed to open import file: %v", err)
		}
		n, err := engine.Migrate(src, store)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("Imported %d cases from %s.\n", n, importPath)
	}

	// Fail fast on a corrupt backend; an empty one is fine.
	cases, err := store.LoadAll()
	if err != nil {
		log.Fatalf("Failed to load fraud cases: %v", err)
	}
	fmt.Printf("Case store ready. Loaded %d fraud cases.\n", len(cases))

	eng := verify.NewEngine(store)
	sessions := verify.NewManager()

	// TCP console
	router := server.NewRouter(eng, store)
	if useTLS {
		fmt.Println("Generating self-signed certificate for internal TLS...")
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			log.Fatalf("Failed to generate TLS certificate: %v", err)
		}
		router.SetCertificate(cert)
		fmt.Println("TLS encryption enabled.")
	} else {
		fmt.Println("TLS encryption disabled (FRAUDGUARD_DISABLE_TLS=true).")
	}

	// HTTP tool & admin API
	h := &api.Handler{Store: store, Engine: eng, Sessions: sessions}
	r := gin.Default()

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h.Register(r, apiSecret)

	go func() {
		fmt.Printf("HTTP tool API listening on :%s\n", httpPort)
		if err := r.Run(":" + httpPort); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutdown signal received.")
		router.Stop()
		os.Exit(0)
	}()

	fmt.Printf("FraudGuard console listening on :%s (TCP)\n", port)
	if err := router.Listen(port); err != nil {
		log.Fatalf("Console server failed: %v", err)
	}
}
