package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemanja-m/divvy/internal/chem"
	"github.com/nemanja-m/divvy/internal/chem/chemtest"
	"github.com/nemanja-m/divvy/internal/coordinator/core"
	"github.com/nemanja-m/divvy/internal/coordinator/service"
	"github.com/nemanja-m/divvy/internal/datastore"
	"github.com/nemanja-m/divvy/internal/operator"
	"github.com/nemanja-m/divvy/internal/runner"
	"github.com/nemanja-m/divvy/internal/shared/config"
	"github.com/nemanja-m/divvy/pkg/codec"
	"github.com/nemanja-m/divvy/pkg/kinds"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Fatal(string, ...any) {}

func TestNewStores(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		stores, err := NewStores(ctx, config.StorageConfig{Backend: config.StorageMemory})
		require.NoError(t, err)
		assert.NoError(t, stores.Close())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		stores, err := NewStores(ctx, config.StorageConfig{
			Backend: config.StorageRedis,
			Redis:   config.RedisConfig{Addr: mr.Addr(), Prefix: "test:"},
		})
		require.NoError(t, err)
		defer stores.Close()

		require.NoError(t, stores.Workers.AddWorker(&core.Worker{ID: uuid.New(), Name: "w"}))
		assert.NotEmpty(t, mr.Keys())
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewStores(ctx, config.StorageConfig{Backend: config.StorageRedis, Redis: config.RedisConfig{Addr: addr}})
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewStores(ctx, config.StorageConfig{Backend: "postgres"})
		assert.Error(t, err)
	})
}

func TestNewDatastore(t *testing.T) {
	store, err := NewDatastore(config.DatasetsConfig{Preload: []string{"dummy", "empty"}}, nopLogger{})
	require.NoError(t, err)

	doc, ok := store.Doc(kinds.DatasetDummy)
	require.True(t, ok)
	assert.Equal(t, 4, doc.Len())

	_, err = NewDatastore(config.DatasetsConfig{Preload: []string{"zinc"}}, nopLogger{})
	assert.ErrorIs(t, err, kinds.ErrUnknownDataset)

	_, err = NewDatastore(config.DatasetsConfig{DataDir: t.TempDir(), Preload: []string{"test_chembl"}}, nopLogger{})
	assert.ErrorIs(t, err, datastore.ErrDatasetNotFound)
}

func TestNewRunners(t *testing.T) {
	gmx, recgen, err := NewRunners(config.SimulationConfig{Runner: config.RunnerExec, GmxBinary: "gmx", ReCGenBinary: "recgen"})
	require.NoError(t, err)
	assert.Equal(t, "gmx", gmx.(*runner.Exec).Binary)
	assert.Equal(t, "recgen", recgen.(*runner.Exec).Binary)

	_, _, err = NewRunners(config.SimulationConfig{Runner: "podman"})
	assert.Error(t, err)
}

func TestNewOperatorDeps_WithoutEngine(t *testing.T) {
	cfg := &config.Config{
		Datasets:   config.DatasetsConfig{Preload: []string{"dummy"}},
		Simulation: config.SimulationConfig{Runner: config.RunnerExec, WorkDir: "sims"},
	}

	deps, err := NewOperatorDeps(cfg, nopLogger{})
	require.NoError(t, err)
	assert.IsType(t, chem.Unavailable{}, deps.Engine)
	assert.True(t, filepath.IsAbs(deps.WorkDir))
	assert.NotNil(t, deps.Gmx)
}

// TestStartWorkers runs a substructure job end to end: submission, split,
// in-process workers, completion and the saved report.
func TestStartWorkers(t *testing.T) {
	reportsDir := t.TempDir()
	stores, err := NewStores(context.Background(), config.StorageConfig{Backend: config.StorageMemory})
	require.NoError(t, err)

	jobs := service.NewJobService(stores.Jobs, service.JobServiceConfig{BlockSize: 2, MaxDividends: 8, ReportsDir: reportsDir}, nopLogger{})
	workers := service.NewWorkerService(stores.Workers, nopLogger{})

	store := datastore.NewMemoryStore()
	store.Put(kinds.DatasetDummy, datastore.Dummy())
	label3, _ := datastore.Dummy().Get("label_3")
	deps := operator.Deps{
		Engine: &chemtest.Engine{Matches: map[string]map[string]chem.MatchResult{
			"N": {label3: {{1}}},
		}},
		Store: datastore.NewLocked(store),
	}

	ctx, cancel := context.WithCancel(context.Background())
	p, err := StartWorkers(ctx, config.WorkersConfig{Count: 2, CreditsPerSecond: 1, HeartbeatInterval: time.Second}, jobs, workers, deps, nopLogger{})
	require.NoError(t, err)

	job, err := jobs.SubmitJob(core.NewRequirement(`{"smarts":"N"}`, kinds.Substructure{}, kinds.DatasetDummy), core.PriorityMedium)
	require.NoError(t, err)
	require.Equal(t, 2, job.Divisor())

	require.Eventually(t, func() bool {
		got, err := jobs.GetJob(job.ID)
		return err == nil && got.Status == core.JobStatusCompletedSuccess
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	p.Close()

	registered, err := workers.GetWorkers()
	require.NoError(t, err)
	assert.Empty(t, registered, "workers deregister on shutdown")

	content, err := os.ReadFile(filepath.Join(reportsDir, job.ID.String()+".json"))
	require.NoError(t, err)
	report, err := operator.DecodeReport(kinds.Substructure{}, string(content))
	require.NoError(t, err)
	sub := report.(*operator.SubstructureReport)
	require.Len(t, sub.Output.Results, 1)
	assert.Equal(t, "label_3", sub.Output.Results[0].ID)
	assert.Equal(t, `{"smarts":"N"}`, codec.MustEncode(sub.Input))
}
