package sessiontoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenService = New(
	"test-signing-key",
	"https://gateway.test",
	"https://app.test",
)

var alice = Identity{
	Subject: "idp-subject-1",
	Email:   "alice@example.com",
	Name:    "Alice",
}

func Test_MintAndVerify(t *testing.T) {
	token, err := tokenService.Mint(alice, 5*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := tokenService.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, alice.Subject, got.Subject)
	assert.Equal(t, alice.Email, got.Email)
	assert.Equal(t, alice.Name, got.Name)
}

func Test_Mint_NameDefaultsToEmail(t *testing.T) {
	token, err := tokenService.Mint(Identity{
		Subject: "idp-subject-2",
		Email:   "bob@example.com",
	}, 5*time.Minute)
	require.NoError(t, err)

	got, err := tokenService.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Name)
}

func Test_Verify_Garbage(t *testing.T) {
	_, err := tokenService.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalid)
}

func Test_Verify_Expired(t *testing.T) {
	// Mint two minutes in the past so a 1s TTL lands outside the leeway.
	past := New("test-signing-key", "https://gateway.test", "https://app.test",
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Minute) }),
	)
	token, err := past.Mint(alice, time.Second)
	require.NoError(t, err)

	_, err = tokenService.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func Test_Verify_WithinLeeway(t *testing.T) {
	// Expired 30s ago, inside the 60s leeway: still accepted.
	past := New("test-signing-key", "https://gateway.test", "https://app.test",
		WithClock(func() time.Time { return time.Now().Add(-30 * time.Second) }),
	)
	token, err := past.Mint(alice, time.Nanosecond)
	require.NoError(t, err)

	_, err = tokenService.Verify(token)
	require.NoError(t, err)
}

func Test_Verify_WrongAudience(t *testing.T) {
	other := New("test-signing-key", "https://gateway.test", "https://other-app.test")
	token, err := other.Mint(alice, 5*time.Minute)
	require.NoError(t, err)

	_, err = tokenService.Verify(token)
	require.ErrorIs(t, err, ErrWrongAudience)
}

func Test_Verify_WrongIssuer(t *testing.T) {
	other := New("test-signing-key", "https://rogue-gateway.test", "https://app.test")
	token, err := other.Mint(alice, 5*time.Minute)
	require.NoError(t, err)

	_, err = tokenService.Verify(token)
	require.ErrorIs(t, err, ErrWrongIssuer)
}

func Test_Verify_WrongKey(t *testing.T) {
	other := New("different-signing-key", "https://gateway.test", "https://app.test")
	token, err := other.Mint(alice, 5*time.Minute)
	require.NoError(t, err)

	_, err = tokenService.Verify(token)
	require.ErrorIs(t, err, ErrInvalid)
}

func Test_Verify_MissingSubject(t *testing.T) {
	token, err := tokenService.Mint(Identity{Email: "ghost@example.com"}, 5*time.Minute)
	require.NoError(t, err)

	_, err = tokenService.Verify(token)
	require.ErrorIs(t, err, ErrInvalid)
}
