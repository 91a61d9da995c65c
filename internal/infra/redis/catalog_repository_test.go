package redis

import (
	"context"
	"testing"
	"time"

	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/domain"
	"city-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCatalogRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		CatalogLoader: memory.NewStaticCatalogLoader(sampleCatalog(t)),
	}
	repo := NewCatalogRepository(client, loader, time.Minute)

	first, err := repo.GetCatalog(context.Background(), "test")
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("catalog:test:order") || !mr.Exists("catalog:test:cities") {
		t.Fatalf("expected catalog keys in redis")
	}

	// Second call should hit cache, loader not incremented.
	second, err := repo.GetCatalog(context.Background(), "test")
	if err != nil {
		t.Fatalf("get catalog 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}

	// Order and records survive the round trip.
	if second.Len() != first.Len() {
		t.Fatalf("expected %d cities, got %d", first.Len(), second.Len())
	}
	for i := 0; i < first.Len(); i++ {
		if *first.At(i) != *second.At(i) {
			t.Fatalf("position %d: %+v != %+v", i, *first.At(i), *second.At(i))
		}
	}
}

func TestCatalogRepositoryReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		CatalogLoader: memory.NewStaticCatalogLoader(sampleCatalog(t)),
	}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute)

	_, _ = repo.GetCatalog(context.Background(), "test")
	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetCatalog(context.Background(), "test")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context, catalogID string) (*catalog.Catalog, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx, catalogID)
}

func sampleCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New("test", []domain.City{
		{Name: "Zaječar", Description: "Istok", MapRef: "zajecar"},
		{Name: "Beograd", Description: "Glavni grad", MapRef: "beograd"},
		{Name: "Niš", Description: "Jug", MapRef: "nis"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
