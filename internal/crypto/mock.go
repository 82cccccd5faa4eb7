package crypto

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// MockEncryptor implements Encryptor for local development, no KMS required.
type MockEncryptor struct{}

func NewMockEncryptor() *MockEncryptor {
	return &MockEncryptor{}
}

func (m *MockEncryptor) Encrypt(ctx context.Context, plaintext []byte) (string, error) {
	return "mock:" + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (m *MockEncryptor) Decrypt(ctx context.Context, ciphertext string) ([]byte, error) {
	raw, ok := strings.CutPrefix(ciphertext, "mock:")
	if !ok {
		return nil, fmt.Errorf("not a mock ciphertext")
	}
	return base64.StdEncoding.DecodeString(raw)
}
