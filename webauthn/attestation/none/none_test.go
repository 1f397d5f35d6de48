package none

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-webauthn/core/webauthn/attestation/attkind"
	"github.com/go-webauthn/core/webauthn/werrors"
)

func TestVerifyAcceptsNilStatement(t *testing.T) {
	attType, err := Verify(nil)
	require.NoError(t, err)
	assert.Equal(t, attkind.None, attType)
}

func TestVerifyAcceptsEmptyStatement(t *testing.T) {
	attType, err := Verify(&Statement{})
	require.NoError(t, err)
	assert.Equal(t, attkind.None, attType)
}

func TestVerifyRejectsNonEmptyStatement(t *testing.T) {
	_, err := Verify(&Statement{NonEmpty: true})
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.CodeBadAttestationStatement))
}
