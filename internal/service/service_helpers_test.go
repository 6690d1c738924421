package service

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/config"
	"github.com/xkilldash9x/errsynth/internal/observability"
)

func TestMain(m *testing.M) {
	cfg := config.NewDefaultConfig()
	observability.InitializeLogger(cfg.Logger())

	exitCode := m.Run()

	observability.Sync()
	os.Exit(exitCode)
}

// fakeUsageStore records every saved batch.
type fakeUsageStore struct {
	mu      sync.Mutex
	batches [][]schemas.PrepositionUsage
	err     error
}

func (f *fakeUsageStore) SaveUsages(_ context.Context, usages []schemas.PrepositionUsage) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	batch := make([]schemas.PrepositionUsage, len(usages))
	copy(batch, usages)
	f.batches = append(f.batches, batch)
	return int64(len(usages)), nil
}

func (f *fakeUsageStore) PrepositionFrequencies(context.Context) ([]schemas.PrepositionFrequency, error) {
	return nil, nil
}

func (f *fakeUsageStore) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func testUsage(main string) schemas.PrepositionUsage {
	prep := "в"
	return schemas.PrepositionUsage{MainWord: main, MainLemma: main, Preposition: &prep, MainPartOfSpeech: "VERB"}
}

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.DatabaseCfg.Driver = config.DriverSQLite
	cfg.DatabaseCfg.SQLitePath = t.TempDir() + "/phrases.db"
	cfg.ParonymCfg.TablePath = t.TempDir() + "/paronyms.json"
	return cfg
}
