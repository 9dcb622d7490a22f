package main

import (
	"context"
	"log"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/bootstrap"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/config"
	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
