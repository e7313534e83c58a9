package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	token, err := codec.Issue("a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", claims.Email)
}

func TestTokenExpiry(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	codec := NewCodec("test-secret", time.Hour).WithClock(func() time.Time { return now })

	token, err := codec.Issue("a@x.com")
	require.NoError(t, err)

	now = issued.Add(59 * time.Minute)
	_, err = codec.Verify(token)
	require.NoError(t, err, "token should still verify just before expiry")

	now = issued.Add(61 * time.Minute)
	_, err = codec.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken, "token must fail once TTL has elapsed")
}

func TestTokenTampered(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	token, err := codec.Issue("a@x.com")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = codec.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewCodec("secret-one", time.Hour).Issue("a@x.com")
	require.NoError(t, err)

	_, err = NewCodec("secret-two", time.Hour).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenMalformed(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.Verify(input)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestIssueRequiresEmail(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	_, err := codec.Issue("")
	require.Error(t, err)
}
