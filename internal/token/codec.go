package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/iiFadel/dynamic-form-allocation/internal/domain"
)

// DevFallbackSecret is used when no signing secret is configured. It is
// public by definition, so tokens minted with it carry no integrity
// guarantee. Deployments must set FORM_TOKEN_SECRET.
const DevFallbackSecret = "local-dev-secret"

// Codec turns form definitions into self-contained signed tokens of the
// form "payload.signature": base64url(JSON definition), a dot, and a
// base64url HMAC-SHA256 over the payload bytes. The payload is encoded,
// not encrypted — definitions must not carry secrets.
type Codec struct {
	secret   []byte
	insecure bool
}

func NewCodec(secret string) *Codec {
	if secret == "" {
		return &Codec{secret: []byte(DevFallbackSecret), insecure: true}
	}
	return &Codec{secret: []byte(secret)}
}

// InsecureDefault reports whether the codec is running on the development
// fallback secret.
func (c *Codec) InsecureDefault() bool {
	return c.insecure
}

// Encode serializes a definition and signs it.
func (c *Codec) Encode(def *domain.FormDefinition) (string, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + c.sign(payload), nil
}

// Decode verifies a token and returns the embedded definition, or nil for
// any malformed, truncated or tampered input. The signature check gates
// parsing: payload bytes are never interpreted before the signature over
// them has been verified.
func (c *Codec) Decode(tok string) *domain.FormDefinition {
	if tok == "" {
		return nil
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	payload, signature := parts[0], parts[1]

	expected := c.sign(payload)
	if len(signature) != len(expected) {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) != 1 {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	var def domain.FormDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil
	}
	return &def
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
