package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateYParse(t *testing.T) {
	tok, err := Generate("secreto", "u-1", "b-1", "cashier", "pos-ledger", 5)
	require.NoError(t, err)

	claims, err := Parse("secreto", tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "b-1", claims.BranchID)
	assert.Equal(t, "cashier", claims.Role)
	assert.Equal(t, "pos-ledger", claims.Issuer)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := Generate("secreto", "u-1", "b-1", "cashier", "pos-ledger", 5)
	require.NoError(t, err)

	_, err = Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := Generate("secreto", "u-1", "b-1", "cashier", "pos-ledger", -1)
	require.NoError(t, err)

	_, err = Parse("secreto", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", "u", "b", "admin", "x", 1)
	assert.Error(t, err)
}
