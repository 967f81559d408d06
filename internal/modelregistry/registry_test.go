package modelregistry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestRegistryRecordAndLatest(t *testing.T) {
	ctx := context.Background()
	reg, err := Open(ctx, filepath.Join(t.TempDir(), "models", "registry.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reg.Close()

	if _, err := reg.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty registry, got %v", err)
	}

	acc := 0.85
	first, err := reg.Record(ctx, Run{
		Documents:      4,
		Domains:        map[string]int{"informatique": 2, "enseignement": 2},
		DomainAccuracy: &acc,
		ModelDir:       "/models",
		TrainedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ID == 0 || first.Version != "20260102T030405Z" {
		t.Fatalf("unexpected run %+v", first)
	}
	if _, err := reg.Record(ctx, Run{Version: "v2", Documents: 10, ModelDir: "/models"}); err != nil {
		t.Fatalf("record second: %v", err)
	}

	latest, err := reg.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Version != "v2" || latest.DomainAccuracy != nil || len(latest.Domains) != 0 {
		t.Fatalf("unexpected latest run %+v", latest)
	}

	runs, err := reg.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	old := runs[1]
	if old.DomainAccuracy == nil || *old.DomainAccuracy != 0.85 || old.QualityAccuracy != nil {
		t.Fatalf("unexpected accuracies %+v", old)
	}
	if old.Domains["informatique"] != 2 || !old.TrainedAt.Equal(first.TrainedAt) {
		t.Fatalf("unexpected stored run %+v", old)
	}
}
