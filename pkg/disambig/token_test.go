package disambig

import (
	"strings"
	"testing"

	"github.com/zen-systems/queryflow/pkg/crypto"
)

func TestTokenRoundTrip(t *testing.T) {
	codec := NewCodec()

	original := Token{
		Kind:       KindDisambiguation,
		Capability: "sales_report",
		Query:      "show me the report",
	}
	encoded := codec.Encode(original)
	if !strings.HasPrefix(encoded, "qfr1.") {
		t.Fatalf("wire prefix missing: %q", encoded)
	}

	decoded, ok := codec.Decode(encoded)
	if !ok {
		t.Fatalf("decode failed")
	}
	if decoded != original {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, original)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec := NewCodec()

	cases := []string{
		"",
		"show me sales",
		"qfr1.",
		"qfr1.!!!not-base64!!!",
		"wrongprefix.eyJrIjoiZCJ9",
	}
	for _, raw := range cases {
		if _, ok := codec.Decode(raw); ok {
			t.Fatalf("expected decode failure for %q", raw)
		}
	}
}

func TestDecodeRequiresCapability(t *testing.T) {
	codec := NewCodec()
	encoded := codec.Encode(Token{Kind: KindDisambiguation, Query: "q"})
	if _, ok := codec.Decode(encoded); ok {
		t.Fatalf("token without capability must not decode")
	}
}

func TestDecodeDefaultsKind(t *testing.T) {
	codec := NewCodec()
	encoded := codec.Encode(Token{Capability: "sales_report", Query: "q"})
	decoded, ok := codec.Decode(encoded)
	if !ok {
		t.Fatalf("decode failed")
	}
	if decoded.Kind != KindDisambiguation {
		t.Fatalf("missing kind should default: %q", decoded.Kind)
	}
}

func TestSignedCodecRejectsForeignTokens(t *testing.T) {
	signerA, err := crypto.NewTokenSigner([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	signerB, err := crypto.NewTokenSigner([]byte("fedcba9876543210fedcba9876543210"))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	codecA := NewCodec(WithSigner(signerA))
	codecB := NewCodec(WithSigner(signerB))

	token := codecA.Encode(Token{Capability: "sales_report", Query: "q"})

	if _, ok := codecA.Decode(token); !ok {
		t.Fatalf("own token must decode")
	}
	if _, ok := codecB.Decode(token); ok {
		t.Fatalf("foreign token must fail to decode")
	}

	// Unsigned token against a signing codec also fails.
	unsigned := NewCodec().Encode(Token{Capability: "sales_report", Query: "q"})
	if _, ok := codecA.Decode(unsigned); ok {
		t.Fatalf("unsigned token must fail against a signing codec")
	}
}

func TestIsToken(t *testing.T) {
	if !IsToken("qfr1.abc") {
		t.Fatalf("prefix should be recognized")
	}
	if IsToken("show me sales") {
		t.Fatalf("plain text is not a token")
	}
	if !IsToken("  qfr1.abc  ") {
		t.Fatalf("surrounding whitespace should be tolerated")
	}
}
