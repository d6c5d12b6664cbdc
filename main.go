package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"section-presets/api"
	"section-presets/auth"
	"section-presets/config"
	"section-presets/preset"
	"section-presets/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, closeStore, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("failed to open %s preset store: %v", cfg.Backend, err)
	}
	defer closeStore()

	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("failed to create token issuer: %v", err)
	}

	manager := session.NewManager(store)
	router := api.RegisterRoutes(manager, store, issuer)

	log.Printf("section-presets listening on %s (%s backend)", cfg.Addr(), cfg.Backend)
	if err := http.ListenAndServe(cfg.Addr(), router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config) (preset.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		pg, err := preset.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil

	case config.BackendNATS:
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("section-presets"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect nats: %w", err)
		}
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("jetstream: %w", err)
		}
		kv, err := preset.OpenKV(ctx, js, cfg.NATSBucket)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		return kv, func() { nc.Drain() }, nil

	default:
		pm, err := preset.NewManager(cfg.PresetFile)
		if err != nil {
			return nil, nil, err
		}
		return pm, func() {}, nil
	}
}
