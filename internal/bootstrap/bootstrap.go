// Package bootstrap assembles the coordinator and its in-process workers
// from a Config. Both binaries start through it.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/nemanja-m/divvy/internal/chem"
	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/coordinator/storage"
	"github.com/nemanja-m/divvy/internal/datastore"
	"github.com/nemanja-m/divvy/internal/operator"
	"github.com/nemanja-m/divvy/internal/runner"
	"github.com/nemanja-m/divvy/internal/shared/config"
	"github.com/nemanja-m/divvy/internal/shared/logging"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

// Stores are the persistence of one coordinator. Close releases the
// backend connection.
type Stores struct {
	Jobs    core.JobStore
	Workers core.WorkerStore
	Close   func() error
}

func NewStores(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return &Stores{
			Jobs:    storage.NewInMemoryJobStore(),
			Workers: storage.NewInMemoryWorkerStore(),
			Close:   func() error { return nil },
		}, nil
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:                  cfg.Redis.Addr,
			Password:              cfg.Redis.Password,
			DB:                    cfg.Redis.DB,
			ContextTimeoutEnabled: true,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		return &Stores{
			Jobs:    storage.NewRedisJobStore(rdb, cfg.Redis.Prefix, cfg.Redis.OpTimeout),
			Workers: storage.NewRedisWorkerStore(rdb, cfg.Redis.Prefix, cfg.Redis.OpTimeout),
			Close:   rdb.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
}

// NewDatastore loads every preloaded dataset into memory.
func NewDatastore(cfg config.DatasetsConfig, logger logging.Logger) (*datastore.MemoryStore, error) {
	store := datastore.NewMemoryStore()
	for _, name := range cfg.Preload {
		ds, err := kinds.ParseDataset(name)
		if err != nil {
			return nil, err
		}
		doc, err := datastore.Load(cfg.DataDir, ds, cfg.PubChemLimit)
		if err != nil {
			return nil, fmt.Errorf("load dataset %s: %w", ds, err)
		}
		store.Put(ds, doc)
		logger.Info("Dataset loaded", "dataset", ds.String(), "entries", doc.Len())
	}
	return store, nil
}

// NewRunners returns the runners of the gmx and recgen programs.
func NewRunners(cfg config.SimulationConfig) (gmx, recgen runner.Runner, err error) {
	switch cfg.Runner {
	case config.RunnerExec:
		return runner.NewExec(cfg.GmxBinary), runner.NewExec(cfg.ReCGenBinary), nil
	case config.RunnerDocker:
		d, err := runner.NewDocker(cfg.DockerImage, cfg.GmxBinary)
		if err != nil {
			return nil, nil, err
		}
		// recgen is not shipped in the simulation image.
		return d, runner.NewExec(cfg.ReCGenBinary), nil
	}
	return nil, nil, fmt.Errorf("unknown simulation runner: %q", cfg.Runner)
}

// NewOperatorDeps builds everything the operators run on.
func NewOperatorDeps(cfg *config.Config, logger logging.Logger) (operator.Deps, error) {
	store, err := NewDatastore(cfg.Datasets, logger)
	if err != nil {
		return operator.Deps{}, err
	}
	gmx, recgen, err := NewRunners(cfg.Simulation)
	if err != nil {
		return operator.Deps{}, err
	}

	var engine chem.Engine = chem.Unavailable{}
	if cfg.Chem.EngineBinary != "" {
		engine = chem.NewProcessEngine(runner.NewExec(cfg.Chem.EngineBinary))
	} else {
		logger.Warn("No chem engine configured, similarity and substructure jobs will fail")
	}

	workDir, err := filepath.Abs(cfg.Simulation.WorkDir)
	if err != nil {
		return operator.Deps{}, err
	}
	return operator.Deps{
		Engine:  engine,
		Store:   datastore.NewLocked(store),
		WorkDir: workDir,
		Gmx:     gmx,
		ReCGen:  recgen,
	}, nil
}
