// Package secrets abstracts where configuration secrets come from. The
// process picks exactly one Provider at startup; everything downstream only
// ever sees Resolve.
package secrets

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	dErrors "authgate/pkg/domain-errors"
)

// Provider resolves a named secret to its value. Implementations must treat a
// missing key as an error, never as an empty value, so callers can fail
// closed.
type Provider interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// Source names the closed set of provider variants.
type Source string

const (
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

// Select returns the provider for the given source name. Unknown names are a
// configuration error, not a fallback.
func Select(source Source, filePath string) (Provider, error) {
	switch source {
	case SourceEnv, "":
		return EnvProvider{}, nil
	case SourceFile:
		return NewFileProvider(filePath)
	default:
		return nil, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unknown secret source %q", source))
	}
}

// EnvProvider reads secrets directly from environment variables.
type EnvProvider struct{}

func (EnvProvider) Resolve(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("secret %s is not set", key))
	}
	return strings.TrimSpace(value), nil
}

// FileProvider reads secrets from a flat JSON object on disk, loaded once.
type FileProvider struct {
	values map[string]string
}

func NewFileProvider(path string) (*FileProvider, error) {
	if path == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "secret file path is not set")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse secret file: %w", err)
	}
	return &FileProvider{values: values}, nil
}

func (p *FileProvider) Resolve(_ context.Context, key string) (string, error) {
	value, ok := p.values[key]
	if !ok || strings.TrimSpace(value) == "" {
		return "", dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("secret %s is not set", key))
	}
	return strings.TrimSpace(value), nil
}

// StaticProvider serves a fixed map. Test use only.
type StaticProvider map[string]string

func (p StaticProvider) Resolve(_ context.Context, key string) (string, error) {
	value, ok := p[key]
	if !ok || value == "" {
		return "", dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("secret %s is not set", key))
	}
	return value, nil
}

// Generate creates a cryptographically secure random value, URL-safe encoded.
// Used for state tokens and session identifiers.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
