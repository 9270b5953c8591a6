/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/untillpro/goutils/logger"
	"gopkg.in/yaml.v2"

	"github.com/voedger/fieldflow/pkg/engine"
	"github.com/voedger/fieldflow/pkg/in10n"
	"github.com/voedger/fieldflow/pkg/in10nmem"
	"github.com/voedger/fieldflow/pkg/istorage"
	"github.com/voedger/fieldflow/pkg/istorage/bbolt"
	"github.com/voedger/fieldflow/pkg/istorage/mem"
	"github.com/voedger/fieldflow/pkg/istoragecache"
	"github.com/voedger/fieldflow/pkg/istructsmem"
)

// Reads config file, flags override file values
func readConfig(params *fieldflowParams) (cfg config, err error) {
	if params.ConfigFile != "" {
		content, err := os.ReadFile(params.ConfigFile)
		if err != nil {
			return cfg, err
		}
		if err := yaml.UnmarshalStrict(content, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", params.ConfigFile, err)
		}
	}
	if params.DataDir != "" {
		cfg.DataDir = params.DataDir
	}
	if cfg.StorageCacheBytes <= 0 {
		cfg.StorageCacheBytes = defaultStorageCacheBytes
	}
	return cfg, nil
}

// Opens storage and engine. Returned cleanup closes both
func openEngine(ctx context.Context, cfg config) (e engine.IEngine, broker in10n.IN10nBroker, cleanup func(), err error) {
	var factory istorage.IStorageFactory
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, nil, err
		}
		factory = bbolt.Provide(bbolt.ParamsType{DBDir: cfg.DataDir})
		logger.Info("durable storage at", cfg.DataDir)
	} else {
		factory = mem.Provide()
	}
	factory = istoragecache.Provide(cfg.StorageCacheBytes, factory)

	storage, err := istructsmem.Open(factory, istorage.MustSafeName(storageName), cfg.FieldMetaCacheSize)
	if err != nil {
		return nil, nil, nil, errors.Join(err, factory.Close())
	}
	broker = in10nmem.Provide(in10n.DefaultQuotas)
	if e, err = engine.Provide(ctx, cfg.engine(), storage, broker); err != nil {
		return nil, nil, nil, errors.Join(err, factory.Close())
	}
	cleanup = func() {
		e.Close()
		if err := factory.Close(); err != nil {
			logger.Error("storage close failed:", err)
		}
	}
	return e, broker, cleanup, nil
}
