package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users  map[uint]*User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return ErrUserExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo).WithHashCost(bcrypt.MinCost)
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	created, err := svc.Register(context.Background(), "  nurse  ", "s3cret")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Username != "nurse" {
		t.Fatalf("expected trimmed username, got %q", created.Username)
	}
	stored := repo.users[created.ID]
	if stored.Password == "s3cret" || !strings.HasPrefix(stored.Password, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", stored.Password)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), "nurse", "a"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	_, err := svc.Register(context.Background(), "nurse", "b")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(repo.users))
	}
}

func TestRegisterRequiresFields(t *testing.T) {
	svc := newTestService(newFakeUserRepo())
	if _, err := svc.Register(context.Background(), " ", "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty username, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "nurse", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	created, err := svc.Register(context.Background(), "nurse", "s3cret")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, err := svc.Authenticate(context.Background(), "nurse", "s3cret")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, got.ID)
	}

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "nurse", "wrong"},
		{"unknown user", "ghost", "s3cret"},
		{"empty password", "nurse", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tc.username, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	created, _ := svc.Register(context.Background(), "nurse", "s3cret")

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
