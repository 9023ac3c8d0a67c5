package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SecretSize - размер ключа подписи HS256 в байтах (256 бит)
const SecretSize = 32

// GenerateSecret генерирует криптографически случайный ключ указанного размера
func GenerateSecret(size int) ([]byte, error) {
	if size < SecretSize {
		return nil, fmt.Errorf("secret must be at least %d bytes, got %d", SecretSize, size)
	}
	secret := make([]byte, size)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	return secret, nil
}

// GenerateSecretBase64 генерирует ключ подписи и возвращает его в Base64,
// пригодном для JWT_SECRET
func GenerateSecretBase64() (string, error) {
	secret, err := GenerateSecret(SecretSize * 2)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(secret), nil
}
