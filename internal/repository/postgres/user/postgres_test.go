package user_test

import (
	"context"
	"testing"

	"clinic-app-go/internal/db/dbtest"
	userdomain "clinic-app-go/internal/domain/user"
	userrepo "clinic-app-go/internal/repository/postgres/user"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	repo := userrepo.NewPostgres(dbtest.OpenSQLite(t))
	ctx := context.Background()

	nurse := userdomain.User{Username: "nurse", Password: "hash"}
	require.NoError(t, repo.Create(ctx, &nurse))
	require.NotZero(t, nurse.ID)

	require.ErrorIs(t, repo.Create(ctx, &userdomain.User{Username: "nurse", Password: "x"}), userdomain.ErrUserExists)

	got, err := repo.GetByUsername(ctx, "nurse")
	require.NoError(t, err)
	require.Equal(t, nurse.ID, got.ID)

	_, err = repo.GetByUsername(ctx, "ghost")
	require.ErrorIs(t, err, userdomain.ErrUserNotFound)

	require.NoError(t, repo.Delete(ctx, nurse.ID))
	_, err = repo.GetByID(ctx, nurse.ID)
	require.ErrorIs(t, err, userdomain.ErrUserNotFound)
	require.ErrorIs(t, repo.Delete(ctx, nurse.ID), userdomain.ErrUserNotFound)
}
