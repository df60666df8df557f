// Package disambig builds disambiguation follow-ups and the resume tokens
// that let a follow-up answer bypass re-scoring.
package disambig

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/zen-systems/queryflow/pkg/crypto"
)

// tokenPrefix versions the wire format. Bump it when the payload changes so
// stale tokens degrade to fresh-query routing instead of misparsing.
const tokenPrefix = "qfr1."

// Token kinds. Both resolve the same way: execute the named capability with
// the embedded query, no re-scoring.
const (
	KindDisambiguation = "disambig"
	KindCorrection     = "correction"
)

// Token is the decoded form of a resume token.
type Token struct {
	Kind       string `json:"k"`
	Capability string `json:"c"`
	Query      string `json:"q"`
}

// Codec encodes and decodes resume tokens. With a signer attached, tokens
// carry an HMAC and tampered or foreign tokens fail to decode; without one,
// tokens are unsigned but still versioned and parseable.
type Codec struct {
	signer *crypto.TokenSigner
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithSigner attaches a token signer to the codec.
func WithSigner(signer *crypto.TokenSigner) CodecOption {
	return func(c *Codec) {
		c.signer = signer
	}
}

// NewCodec creates a token codec.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode serializes a token into its opaque wire form.
func (c *Codec) Encode(t Token) string {
	payload, err := json.Marshal(t)
	if err != nil {
		// Token fields are plain strings; this cannot fail in practice.
		return ""
	}

	encoded := tokenPrefix + base64.RawURLEncoding.EncodeToString(payload)
	if c.signer != nil {
		encoded += "." + c.signer.Sign(payload)
	}
	return encoded
}

// Decode parses a wire token. ok is false for anything that is not a valid
// token of this codec: wrong prefix, bad encoding, bad signature. Callers
// must treat ok=false as "route as a fresh query", never as an error.
func (c *Codec) Decode(raw string) (Token, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, tokenPrefix) {
		return Token{}, false
	}

	body := raw[len(tokenPrefix):]
	var sig string
	if dot := strings.IndexByte(body, '.'); dot != -1 {
		sig = body[dot+1:]
		body = body[:dot]
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Token{}, false
	}

	if c.signer != nil && !c.signer.Verify(payload, sig) {
		return Token{}, false
	}

	var t Token
	if err := json.Unmarshal(payload, &t); err != nil {
		return Token{}, false
	}
	if t.Capability == "" {
		return Token{}, false
	}
	if t.Kind == "" {
		t.Kind = KindDisambiguation
	}
	return t, true
}

// IsToken reports whether raw looks like a resume token, without validating it.
func IsToken(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), tokenPrefix)
}
