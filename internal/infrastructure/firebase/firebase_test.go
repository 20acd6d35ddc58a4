package firebase

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupchat/pkg/config"
)

func TestClaimsFromToken(t *testing.T) {
	token := &auth.Token{
		UID: "u1",
		Claims: map[string]interface{}{
			"name":  "Ada Lovelace",
			"email": "ada@example.com",
		},
	}
	token.Firebase.SignInProvider = "google.com"

	claims := ClaimsFromToken(token)
	assert.Equal(t, "u1", claims.UID)
	assert.Equal(t, "Ada Lovelace", claims.Name)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.False(t, claims.IsAnonymous())

	anon := &auth.Token{UID: "a1", Claims: map[string]interface{}{}}
	anon.Firebase.SignInProvider = "anonymous"
	assert.True(t, ClaimsFromToken(anon).IsAnonymous())
}

func TestDevTokenVerifier(t *testing.T) {
	v := NewDevTokenVerifier()
	ctx := context.Background()

	claims, err := v.VerifyIDToken(ctx, v.MintGuest("g1"))
	require.NoError(t, err)
	assert.Equal(t, "g1", claims.UID)
	assert.True(t, claims.IsAnonymous())

	claims, err = v.VerifyIDToken(ctx, v.MintUser("u1", "Ada"))
	require.NoError(t, err)
	assert.Equal(t, "Ada", claims.Name)
	assert.False(t, claims.IsAnonymous())

	for _, bad := range []string{"", "eyJhbGciOi", "dev-guest:", "dev-user::Ada"} {
		_, err := v.VerifyIDToken(ctx, bad)
		assert.Error(t, err, bad)
	}
}

func TestCredentialOption(t *testing.T) {
	opt, err := CredentialOption(&config.Config{ServiceAccountJSON: `{"type":"service_account"}`})
	require.NoError(t, err)
	assert.NotNil(t, opt)

	_, err = CredentialOption(&config.Config{ServiceAccountPath: "/nonexistent/key.json"})
	assert.Error(t, err)

	opt, err = CredentialOption(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, opt)
}
