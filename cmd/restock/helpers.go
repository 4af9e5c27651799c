package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pantryops/restock/internal/budget"
	"github.com/pantryops/restock/internal/cache"
	"github.com/pantryops/restock/internal/cascade"
	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/config"
	"github.com/pantryops/restock/internal/kv"
	"github.com/pantryops/restock/internal/llm"
	"github.com/pantryops/restock/internal/service"
	"github.com/pantryops/restock/internal/storage"
)

// loadConfig builds the application config from viper with paths defaulted
// and expanded.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, err
	}

	if cfg.DBPath == "" {
		cfg.DBPath = "~/.local/share/restock/restock.db"
	}
	if cfg.KVPath == "" {
		cfg.KVPath = "~/.local/share/restock/kv"
	}
	cfg.DBPath = config.ExpandPath(cfg.DBPath)
	cfg.KVPath = config.ExpandPath(cfg.KVPath)

	return cfg, nil
}

// initStorage opens the relational store and brings the schema current.
func initStorage(ctx context.Context, cfg config.Config) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initKV opens the durable key/value store shared by the cache and the
// budget governor.
func initKV(cfg config.Config) (*kv.Store, error) {
	return kv.Open(kv.Config{
		Path:   cfg.KVPath,
		Logger: slog.Default(),
	})
}

// pipeline bundles the parsing cascade with the stores behind it.
type pipeline struct {
	resolver  *cascade.Resolver
	cache     *cache.NormalizationCache
	governor  *budget.Governor
	extractor *llm.Extractor
	kvStore   *kv.Store
}

// initPipeline wires the full cascade: cache, governor, and model client.
// A missing provider key disables the model tier rather than refusing the
// whole ingest; rules and the cache still resolve what they can.
func initPipeline(cfg config.Config) (*pipeline, error) {
	kvStore, err := initKV(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open kv store: %w", err)
	}

	var modelTier cascade.Extractor

	extractor, err := llm.NewExtractor(cfg.LLM, slog.Default())
	switch {
	case err == nil:
		modelTier = extractor
	case errors.Is(err, common.ErrMissingConfig):
		slog.Warn("no model provider configured, parsing with rules and cache only", "error", err)
	default:
		_ = kvStore.Close()
		return nil, err
	}

	normCache := cache.New(kvStore, cfg.Cache, slog.Default())
	governor := budget.New(kvStore, cfg.Budget, slog.Default())

	return &pipeline{
		resolver:  cascade.NewResolver(normCache, governor, modelTier, cfg.Budget, slog.Default()),
		cache:     normCache,
		governor:  governor,
		extractor: extractor,
		kvStore:   kvStore,
	}, nil
}

// Close releases the pipeline's resources in dependency order.
func (p *pipeline) Close() {
	p.cache.Close()
	if p.extractor != nil {
		_ = p.extractor.Close()
	}
	_ = p.kvStore.Close()
}

// readLines loads a purchase export, one raw line per element.
func readLines(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return lines, nil
}
