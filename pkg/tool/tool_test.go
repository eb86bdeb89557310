package tool

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUIDV7(t *testing.T) {
	id, err := uuid.Parse(GenerateUUIDV7())
	require.NoError(t, err)
	require.Equal(t, uuid.Version(7), id.Version())
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := issuer.Issue()
		require.NoError(t, err)
		require.Len(t, tok, 43)
		require.True(t, ValidTokenFormat(tok))
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestValidTokenFormat(t *testing.T) {
	require.False(t, ValidTokenFormat(""))
	require.False(t, ValidTokenFormat("short"))
	require.False(t, ValidTokenFormat("!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!"))
	require.True(t, ValidTokenFormat("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"))
}
