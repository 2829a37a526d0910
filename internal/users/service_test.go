package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/security"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	client := dbtest.Open(t)
	hasher, err := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), hasher)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, " Shopper@Example.com ", "Shopper", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", user.Email)

	got, err := svc.Authenticate(ctx, "SHOPPER@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	require.NotNil(t, got.LastLoginAt)
	assert.Equal(t, 2025, got.LastLoginAt.Year())

	info := got.SessionInfo()
	assert.True(t, info.Authenticated)
	assert.Equal(t, user.ID, info.UserID)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dup@example.com", "", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "DUP@example.com", "", "pw")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "shopper@example.com", "Shopper", "right")
	require.NoError(t, err)

	for _, tc := range []struct{ email, password string }{
		{"shopper@example.com", "wrong"},
		{"nobody@example.com", "right"},
	} {
		_, err := svc.Authenticate(ctx, tc.email, tc.password)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
		assert.Equal(t, invalidCredentials, typed.Message())
	}
}

func TestGetUnknownUserIsUnauthorized(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), 999)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}
