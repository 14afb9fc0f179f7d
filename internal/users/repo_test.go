package users

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestRepositoryCreateNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	user, err := repo.Create(ctx, CreateUserDTO{Name: " Siti ", Email: "  Siti@Example.COM ", IsConfirmed: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Email != "siti@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != enums.UserRoleUser || !user.IsActive || !user.IsConfirmed {
		t.Fatalf("unexpected defaults: %+v", user)
	}

	found, err := repo.FindByEmail(ctx, "SITI@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, found.ID)
	}
}

func TestRepositoryDuplicateEmailIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	if _, err := repo.Create(ctx, CreateUserDTO{Name: "A", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := repo.Create(ctx, CreateUserDTO{Name: "B", Email: "dup@example.com"})
	if !db.IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestServiceGet(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	user, err := repo.Create(ctx, CreateUserDTO{Name: "Budi", Email: "budi@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	dto, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.Name != "Budi" || dto.Email != "budi@example.com" {
		t.Fatalf("unexpected dto %+v", dto)
	}

	if _, err := svc.Get(ctx, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := repo.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestRepositoryEmailTaken(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	taken, err := repo.EmailTaken(ctx, "rina@example.com")
	if err != nil || taken {
		t.Fatalf("expected free email, got taken=%v err=%v", taken, err)
	}
	if _, err := repo.Create(ctx, CreateUserDTO{Name: "Rina", Email: "rina@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	taken, err = repo.EmailTaken(ctx, " RINA@Example.com ")
	if err != nil || !taken {
		t.Fatalf("expected taken email, got taken=%v err=%v", taken, err)
	}
}
