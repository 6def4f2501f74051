package alias

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/iiFadel/dynamic-form-allocation/internal/domain"
	"github.com/iiFadel/dynamic-form-allocation/internal/token"
)

const (
	aliasLength   = 8
	aliasAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Registry issues short shareable aliases that indirect to full signed
// tokens. Integrity lives entirely in the codec; the registry is plain
// indirection for URL ergonomics.
type Registry struct {
	store domain.AliasStore
	codec *token.Codec
}

func NewRegistry(store domain.AliasStore, codec *token.Codec) *Registry {
	return &Registry{store: store, codec: codec}
}

// CreateAlias encodes the definition and binds a fresh random alias to the
// resulting token. Collisions against existing aliases are retried; the
// store's atomic PutIfAbsent makes this safe under concurrent creations.
func (r *Registry) CreateAlias(ctx context.Context, def *domain.FormDefinition) (string, error) {
	tok, err := r.codec.Encode(def)
	if err != nil {
		return "", fmt.Errorf("encode form token: %w", err)
	}

	for {
		candidate, err := generateAlias()
		if err != nil {
			return "", fmt.Errorf("generate alias: %w", err)
		}
		ok, err := r.store.PutIfAbsent(ctx, candidate, tok)
		if err != nil {
			return "", fmt.Errorf("store alias: %w", err)
		}
		if ok {
			return candidate, nil
		}
	}
}

// ResolveAlias returns the token bound to an alias. Unknown or empty input
// is a plain miss, never an error.
func (r *Registry) ResolveAlias(ctx context.Context, alias string) (string, bool, error) {
	if alias == "" {
		return "", false, nil
	}
	return r.store.Get(ctx, alias)
}

// generateAlias draws aliasLength characters from the 62-symbol alphabet
// using crypto/rand, with rejection sampling to keep the distribution
// uniform (bytes >= 248 are discarded since 248 = 62*4).
func generateAlias() (string, error) {
	out := make([]byte, 0, aliasLength)
	buf := make([]byte, aliasLength)
	for len(out) < aliasLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if len(out) == aliasLength {
				break
			}
			if b >= byte(len(aliasAlphabet)*4) {
				continue
			}
			out = append(out, aliasAlphabet[int(b)%len(aliasAlphabet)])
		}
	}
	return string(out), nil
}
