// Package crypto protects the calendar service-account credentials at rest.
package crypto

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// Encryptor encrypts and decrypts small secret blobs, such as the JSON key
// of the calendar service account.
type Encryptor interface {
	Encrypt(ctx context.Context, plaintext []byte) (string, error)
	Decrypt(ctx context.Context, ciphertext string) ([]byte, error)
}

// KMSService implements Encryptor using AWS KMS.
type KMSService struct {
	client *kms.Client
	keyID  string
}

// NewKMSService wraps a KMS client. keyID can be a key ID, key ARN, or alias
// name (e.g. "alias/meetsync-credentials-key").
func NewKMSService(client *kms.Client, keyID string) *KMSService {
	return &KMSService{client: client, keyID: keyID}
}

// Encrypt returns base64 encoded ciphertext of plaintext.
func (s *KMSService) Encrypt(ctx context.Context, plaintext []byte) (string, error) {
	result, err := s.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     aws.String(s.keyID),
		Plaintext: plaintext,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encrypt data: %w", err)
	}
	return base64.StdEncoding.EncodeToString(result.CiphertextBlob), nil
}

// Decrypt reverses Encrypt.
func (s *KMSService) Decrypt(ctx context.Context, ciphertext string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	result, err := s.client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: decoded,
		KeyId:          aws.String(s.keyID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}
	return result.Plaintext, nil
}
