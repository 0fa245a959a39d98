package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/copropiedad/ledger/pkg/domain/entities"
)

func TestOwnerRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewOwnerRepository(4)

	for _, id := range []entities.OwnerID{"O1", "O2", "O3"} {
		owner, err := entities.NewOwner(id, "Name", "Surname", string(id)+"@example.com")
		if err != nil {
			t.Fatalf("NewOwner failed: %v", err)
		}
		if err := repo.Save(ctx, owner); err != nil {
			t.Fatalf("Failed to save owner %s: %v", id, err)
		}
	}

	dup, _ := entities.NewOwner("O1", "Other", "Person", "other@example.com")
	if err := repo.Save(ctx, dup); err == nil {
		t.Errorf("Expected duplicate owner id to be rejected")
	}

	if err := repo.Delete(ctx, "O2"); err != nil {
		t.Fatalf("Failed to delete O2: %v", err)
	}

	// Index must be rebuilt after removal from the middle
	o3, err := repo.FindByID(ctx, "O3")
	if err != nil {
		t.Fatalf("Failed to find O3 after delete: %v", err)
	}
	if o3.ID != "O3" {
		t.Errorf("Expected O3, got %s", o3.ID)
	}

	if _, err := repo.FindByID(ctx, "O2"); !errors.Is(err, entities.ErrOwnerNotFound) {
		t.Errorf("Expected ErrOwnerNotFound, got %v", err)
	}

	all, _ := repo.FindAll(ctx)
	if len(all) != 2 {
		t.Errorf("Expected 2 owners, got %d", len(all))
	}
}

func TestAgentRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewAgentRepository(2)

	agent, _ := entities.NewAgent("A1", "Luis", "luis@example.com")
	if err := repo.Save(ctx, agent); err != nil {
		t.Fatalf("Failed to save agent: %v", err)
	}
	if err := repo.Save(ctx, agent); err == nil {
		t.Errorf("Expected duplicate agent to be rejected")
	}

	found, err := repo.FindByID(ctx, "A1")
	if err != nil {
		t.Fatalf("Failed to find agent: %v", err)
	}
	if found.Name != "Luis" {
		t.Errorf("Expected name Luis, got %s", found.Name)
	}

	if err := repo.Delete(ctx, "A1"); err != nil {
		t.Fatalf("Failed to delete agent: %v", err)
	}
	if _, err := repo.FindByID(ctx, "A1"); !errors.Is(err, entities.ErrAgentNotFound) {
		t.Errorf("Expected ErrAgentNotFound, got %v", err)
	}
}
