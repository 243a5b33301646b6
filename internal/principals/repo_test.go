package principals

import (
	"context"
	"testing"

	"github.com/angelmondragon/bazaar-backend/internal/dbtest"
	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func TestRepositoryCreateNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	created, err := repo.Create(ctx, CreatePrincipalDTO{
		Role:         enums.RoleUser,
		Email:        "  Foo@Bar.com ",
		FullName:     "Foo",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, "foo@bar.com", created.Email)
	assert.Equal(t, enums.AccountStatusUnverified, created.AccountStatus)

	for _, input := range []string{"foo@bar.com", "FOO@BAR.COM", "Foo@Bar.com"} {
		found, err := repo.FindByEmail(ctx, enums.RoleUser, input)
		require.NoError(t, err, input)
		assert.Equal(t, created.ID, found.ID)
	}

	_, err = repo.FindByEmail(ctx, enums.RoleSaller, "foo@bar.com")
	assert.True(t, db.IsNotFound(err), "roles do not share accounts")
}

func TestRepositoryDuplicateEmailWithinRole(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	dto := CreatePrincipalDTO{Role: enums.RoleSaller, Email: "s@example.com", PasswordHash: "h"}
	_, err := repo.Create(ctx, dto)
	require.NoError(t, err)

	dto.Email = "S@EXAMPLE.COM"
	_, err = repo.Create(ctx, dto)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	dto.Role = enums.RoleUser
	_, err = repo.Create(ctx, dto)
	assert.NoError(t, err, "same email is allowed under another role")
}

func TestRepositoryMarkVerifiedOnce(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	principal := dbtest.MustCreatePrincipal(t, conn, enums.RoleUser, enums.AccountStatusUnverified)

	changed, err := repo.MarkVerified(ctx, enums.RoleUser, principal.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkVerified(ctx, enums.RoleUser, principal.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	reloaded, err := repo.FindByID(ctx, enums.RoleUser, principal.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsVerified())
}

func TestRepositoryExistsByPhone(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	owner, err := repo.Create(ctx, CreatePrincipalDTO{Role: enums.RoleUser, Email: "a@x.com", Phone: strPtr("555-0100"), PasswordHash: "h"})
	require.NoError(t, err)

	taken, err := repo.ExistsByPhone(ctx, enums.RoleUser, "555-0100", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ExistsByPhone(ctx, enums.RoleUser, "555-0100", owner.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestRepositoryListPaginates(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	for i := 0; i < 5; i++ {
		dbtest.MustCreatePrincipal(t, conn, enums.RoleSaller, enums.AccountStatusVerified)
	}
	dbtest.MustCreatePrincipal(t, conn, enums.RoleUser, enums.AccountStatusVerified)

	rows, total, err := repo.List(ctx, enums.RoleSaller, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, enums.RoleSaller, row.Role)
	}
}

func TestRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))
	dto := CreatePrincipalDTO{
		Role:          enums.RoleAdmin,
		Email:         "admin@gmail.com",
		PasswordHash:  "first",
		AccountStatus: enums.AccountStatusVerified,
	}

	first, created, err := repo.Upsert(ctx, dto)
	require.NoError(t, err)
	assert.True(t, created)

	dto.PasswordHash = "second"
	second, created, err := repo.Upsert(ctx, dto)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	reloaded, err := repo.FindByID(ctx, enums.RoleAdmin, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", reloaded.PasswordHash)
}

func TestRepositoryDeleteMissing(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	err := repo.Delete(context.Background(), enums.RoleUser, 999)
	assert.True(t, db.IsNotFound(err))
}
