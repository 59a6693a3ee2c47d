package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrClientExists       = errors.New("client already exists")
	ErrClientNotFound     = errors.New("client not found")
)

// APIClient is a caller allowed to exchange its secret for a bearer token.
type APIClient struct {
	ID         uint64    `gorm:"primaryKey"`
	Name       string    `gorm:"uniqueIndex;not null"`
	SecretHash string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;default:now()"`
}

func HashSecret(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CompareSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// GenerateSecret returns a random client secret.
func GenerateSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

type Clients struct {
	DB *gorm.DB
}

// Create stores a new client and returns its plaintext secret.
func (c *Clients) Create(ctx context.Context, name string) (*APIClient, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", errors.New("client name required")
	}

	secret := GenerateSecret()
	hash, err := HashSecret(secret)
	if err != nil {
		return nil, "", err
	}

	client := APIClient{Name: name, SecretHash: hash}
	err = c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&APIClient{}).Where("name = ?", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrClientExists
		}
		return tx.Create(&client).Error
	})
	if err != nil {
		return nil, "", err
	}
	return &client, secret, nil
}

func (c *Clients) Get(ctx context.Context, name string) (*APIClient, error) {
	var client APIClient
	if err := c.DB.WithContext(ctx).Where("name = ?", name).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown name or a wrong secret.
func (c *Clients) Authenticate(ctx context.Context, name, secret string) (*APIClient, error) {
	client, err := c.Get(ctx, strings.TrimSpace(name))
	if errors.Is(err, ErrClientNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CompareSecret(client.SecretHash, secret) {
		return nil, ErrInvalidCredentials
	}
	return client, nil
}
