package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/store"
)

type userMap map[string]*store.User

func (m userMap) FindUserByID(_ context.Context, id string) (*store.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

type failingLookup struct{}

func (failingLookup) FindUserByID(context.Context, string) (*store.User, error) {
	return nil, errors.New("database unavailable")
}

func newTestResolver(users UserLookup) *JWTResolver {
	return NewJWTResolver(JWTConfig{SecretKey: "test-secret-key", Issuer: "test-issuer"}, users)
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

func TestJWTResolver_IssueAndValidate(t *testing.T) {
	r := newTestResolver(nil)

	token, err := r.IssueToken("user-123", "Ada", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := r.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, "test-issuer", claims.Issuer)
}

func TestJWTResolver_ValidateErrors(t *testing.T) {
	r := newTestResolver(nil)

	expired, err := r.IssueToken("user-123", "Ada", -time.Minute)
	require.NoError(t, err)
	_, err = r.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = r.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTResolver(JWTConfig{SecretKey: "other-secret"}, nil)
	foreign, err := other.IssueToken("user-123", "Ada", time.Minute)
	require.NoError(t, err)
	_, err = r.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTResolver_ResolveFromHeader(t *testing.T) {
	r := newTestResolver(userMap{"u1": {ID: "u1", Name: "Ada Lovelace"}})
	token, err := r.IssueToken("u1", "ada", time.Minute)
	require.NoError(t, err)

	id := r.Resolve(context.Background(), bearer(token), nil)
	assert.Equal(t, Identity{UserID: "u1", UserName: "Ada Lovelace"}, id)
	assert.False(t, id.IsAnonymous())
	require.NotNil(t, id.UserRef())
	assert.Equal(t, "u1", *id.UserRef())
}

func TestJWTResolver_ResolveFromJWTScheme(t *testing.T) {
	r := newTestResolver(nil)
	token, err := r.IssueToken("u1", "Ada", time.Minute)
	require.NoError(t, err)

	h := http.Header{}
	h.Set("Authorization", "JWT "+token)
	assert.Equal(t, Identity{UserID: "u1", UserName: "Ada"}, r.Resolve(context.Background(), h, nil))
}

func TestJWTResolver_ResolveFromCookie(t *testing.T) {
	r := newTestResolver(userMap{"u1": {ID: "u1", Name: "Ada"}})
	token, err := r.IssueToken("u1", "", time.Minute)
	require.NoError(t, err)

	cookies := []*http.Cookie{
		{Name: "theme", Value: "dark"},
		{Name: DefaultCookieName, Value: token},
	}
	assert.Equal(t, Identity{UserID: "u1", UserName: "Ada"}, r.Resolve(context.Background(), http.Header{}, cookies))
}

func TestJWTResolver_FailuresResolveToAnonymous(t *testing.T) {
	r := newTestResolver(userMap{})
	valid, err := r.IssueToken("ghost", "Ghost", time.Minute)
	require.NoError(t, err)
	expired, err := r.IssueToken("u1", "Ada", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name     string
		resolver *JWTResolver
		header   http.Header
	}{
		{"no credentials", r, http.Header{}},
		{"empty bearer", r, bearer("")},
		{"garbage token", r, bearer("garbage")},
		{"expired token", r, bearer(expired)},
		{"unknown user", r, bearer(valid)},
		{"lookup failure", newTestResolver(failingLookup{}), bearer(valid)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.resolver.Resolve(context.Background(), tt.header, nil)
			assert.True(t, id.IsAnonymous())
			assert.Nil(t, id.UserRef())
		})
	}
}

func TestStaticResolver(t *testing.T) {
	want := Identity{UserID: "u9", UserName: "Static"}
	assert.Equal(t, want, Static(want).Resolve(context.Background(), nil, nil))
}
