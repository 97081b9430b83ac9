package fixture

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/models"
)

func TestStaticStoreLookup(t *testing.T) {
	t.Parallel()

	store := NewStaticStore(Builtin(time.Now()), DefaultVehicleID)

	if got := store.IDs(); len(got) != 3 || got[0] != "truck-001" || got[2] != "truck-003" {
		t.Fatalf("IDs = %v", got)
	}

	if fx := store.Get("truck-003"); fx.Identity.ID != "truck-003" || fx.Pressure.Value != 120 {
		t.Fatalf("Get(truck-003) = %+v", fx.Identity)
	}
	if fx := store.Get("truck-999"); fx.Identity.ID != DefaultVehicleID {
		t.Fatalf("unknown vehicle fell back to %s, want %s", fx.Identity.ID, DefaultVehicleID)
	}
	if _, ok := store.Lookup("truck-999"); ok {
		t.Fatal("Lookup(truck-999) ok = true")
	}
}

func TestStaticStoreDefaultFallsBackToFirstRecord(t *testing.T) {
	t.Parallel()

	store := NewStaticStore(Builtin(time.Now())[1:], "missing")
	if store.DefaultID() != "truck-002" {
		t.Fatalf("DefaultID = %s, want truck-002", store.DefaultID())
	}
	if got := store.Get("anything").Identity.ID; got != "truck-002" {
		t.Fatalf("Get fallback = %s", got)
	}
}

func TestStaticStoreIDsIsCopy(t *testing.T) {
	t.Parallel()

	store := NewStaticStore(Builtin(time.Now()), DefaultVehicleID)
	ids := store.IDs()
	ids[0] = "changed"
	if store.IDs()[0] != "truck-001" {
		t.Fatal("IDs exposes internal slice")
	}
}

func TestEmptyStoreNeverFails(t *testing.T) {
	t.Parallel()

	store := NewStaticStore(nil, DefaultVehicleID)
	fx := store.Get("truck-001")
	if fx.Identity.ID != "" {
		t.Fatalf("Get on empty store = %+v", fx.Identity)
	}
}

type fakeRepo struct {
	records  []models.Fixture
	upserted []string
	listErr  error
}

func (r *fakeRepo) List(context.Context) ([]models.Fixture, error) {
	return r.records, r.listErr
}

func (r *fakeRepo) Upsert(_ context.Context, fx models.Fixture) error {
	r.upserted = append(r.upserted, fx.Identity.ID)
	return nil
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("seeds empty repository", func(t *testing.T) {
		repo := &fakeRepo{}
		store, err := Load(ctx, repo, DefaultVehicleID, logger)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(repo.upserted) != 3 {
			t.Fatalf("upserted = %v, want 3 built-in trucks", repo.upserted)
		}
		if len(store.IDs()) != 3 {
			t.Fatalf("IDs = %v", store.IDs())
		}
	})

	t.Run("uses stored records", func(t *testing.T) {
		repo := &fakeRepo{records: []models.Fixture{
			{Identity: models.Identity{ID: "h2-100", Name: "H2 100", Status: models.StatusOK}},
		}}
		store, err := Load(ctx, repo, DefaultVehicleID, logger)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(repo.upserted) != 0 {
			t.Fatalf("seeded a non-empty repository: %v", repo.upserted)
		}
		if store.DefaultID() != "h2-100" {
			t.Fatalf("DefaultID = %s", store.DefaultID())
		}
	})

	t.Run("list error", func(t *testing.T) {
		repo := &fakeRepo{listErr: errors.New("connection refused")}
		if _, err := Load(ctx, repo, DefaultVehicleID, logger); err == nil {
			t.Fatal("Load succeeded with failing repository")
		}
	})
}
