package crypto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEncryptorRoundTrip(t *testing.T) {
	enc := NewMockEncryptor()
	ctx := context.Background()

	ciphertext, err := enc.Encrypt(ctx, []byte(`{"type":"service_account"}`))
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "service_account")

	plaintext, err := enc.Decrypt(ctx, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(plaintext))
}

func TestMockEncryptorRejectsForeignCiphertext(t *testing.T) {
	enc := NewMockEncryptor()
	_, err := enc.Decrypt(context.Background(), "AQICAHj...")
	assert.Error(t, err)
}
