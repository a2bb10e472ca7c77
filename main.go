package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	fb "firebase.google.com/go/v4"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/docstore"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/firebase"
	"storefront/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// --- Firebase (only when auth or storage needs it) ---
	var fbApp *fb.App
	if cfg.NeedsFirebase() {
		fbApp, err = firebase.NewApp(ctx, firebase.Credentials{
			ProjectID: cfg.FirebaseProjectID,
			JSON:      cfg.FirebaseCredentialsJSON,
			Base64:    cfg.FirebaseCredentialsBase64,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	// --- Document store ---
	store, err := openStore(ctx, cfg, fbApp)
	if err != nil {
		log.Fatalf("Failed to open %s document store: %v", cfg.DocstoreDriver, err)
	}
	defer store.Close()

	// --- Token verification ---
	verifier, err := buildVerifier(ctx, cfg, fbApp)
	if err != nil {
		log.Fatalf("Failed to set up %s auth: %v", cfg.AuthProvider, err)
	}

	// --- Order events (optional) ---
	var publisher services.Publisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		go func() {
			log.Println("Starting RabbitMQ consumer for order events...")
			if consumerErr := mqClient.ConsumeOrderEvents(rabbitmq.HandleOrderMessage); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set, order events disabled")
	}

	app := server.New(server.Deps{
		Config:    cfg,
		Store:     store,
		Verifier:  verifier,
		Publisher: publisher,
		Clock:     time.Now,
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s (api prefix %q, store %s, auth %s)",
		cfg.AppPort, cfg.APIPrefix, cfg.DocstoreDriver, cfg.AuthProvider)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	// Store and RabbitMQ are closed by the deferred calls.
	log.Println("Server gracefully stopped")
}

// openStore opens the document store selected by DOCSTORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config, fbApp *fb.App) (docstore.Store, error) {
	switch cfg.DocstoreDriver {
	case config.DriverMemory:
		log.Println("Using in-memory document store; data is lost on restart")
		return docstore.NewMemory(), nil
	case config.DriverSQLite, config.DriverPostgres:
		return docstore.OpenGORM(cfg.DocstoreDriver, cfg.DatabaseDSN)
	case config.DriverFirestore:
		if fbApp == nil {
			return nil, fmt.Errorf("firestore driver needs a Firebase app")
		}
		client, err := fbApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
		return docstore.NewFirestore(client), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.DocstoreDriver)
	}
}

// buildVerifier returns the provider verifier, chained with the development token when one is configured.
func buildVerifier(ctx context.Context, cfg config.Config, fbApp *fb.App) (auth.Verifier, error) {
	var chain auth.Chain

	switch cfg.AuthProvider {
	case config.ProviderJWT:
		chain = append(chain, auth.NewJWTVerifier(cfg.JWTSecret))
	case config.ProviderFirebase:
		if fbApp == nil {
			return nil, fmt.Errorf("firebase auth needs a Firebase app")
		}
		client, err := fbApp.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firebase Auth client: %w", err)
		}
		chain = append(chain, auth.NewFirebaseVerifier(client, cfg.FirebaseProjectID))
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.AuthProvider)
	}

	if cfg.DevTokenHash != "" {
		log.Println("WARNING: development admin token enabled")
		chain = append(chain, auth.NewStaticVerifier(cfg.DevTokenHash))
	}
	return chain, nil
}
