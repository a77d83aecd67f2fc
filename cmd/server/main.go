package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/Tyrowin/roomchat/internal/auth"
	"github.com/Tyrowin/roomchat/internal/hub"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/store"
)

func main() {
	log.Println("Starting chat room server...")

	config := server.NewConfigFromEnv()

	db, err := store.Open(config.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	repo := store.NewRepository(db)

	var resolver auth.Resolver
	if config.JWTSecret != "" {
		resolver = auth.NewJWTResolver(auth.JWTConfig{
			SecretKey:  config.JWTSecret,
			CookieName: config.AuthCookieName,
		}, repo)
	} else {
		log.Println("JWT_SECRET not set; every connection is anonymous")
	}

	srv := server.New(*config, server.Dependencies{
		Registry: hub.NewRegistry(),
		Store:    repo,
		Resolver: resolver,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		config.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// The database must outlive every session.
			"chat-server": func(ctx context.Context) error {
				if err := srv.Shutdown(ctx); err != nil {
					log.Printf("Server shutdown error: %v", err)
				}
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}
