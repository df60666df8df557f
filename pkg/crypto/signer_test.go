package crypto

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSignAndVerify(t *testing.T) {
	signer, err := NewTokenSigner([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	payload := []byte(`{"c":"sales_report"}`)
	sig := signer.Sign(payload)
	if sig == "" {
		t.Fatalf("empty signature")
	}
	if !signer.Verify(payload, sig) {
		t.Fatalf("own signature must verify")
	}
	if signer.Verify([]byte("tampered"), sig) {
		t.Fatalf("tampered payload must not verify")
	}
	if signer.Verify(payload, "not-base64!!!") {
		t.Fatalf("malformed signature must not verify")
	}
}

func TestDifferentKeysDoNotVerify(t *testing.T) {
	a, _ := NewTokenSigner([]byte("0123456789abcdef0123456789abcdef"))
	b, _ := NewTokenSigner([]byte("fedcba9876543210fedcba9876543210"))

	payload := []byte("payload")
	if b.Verify(payload, a.Sign(payload)) {
		t.Fatalf("foreign key must not verify")
	}
}

func TestNewTokenSignerRequiresKey(t *testing.T) {
	if _, err := NewTokenSigner(nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestLoadSignerPersistsKey(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadSigner(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	keyPath := filepath.Join(dir, "resume.key")
	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("key not persisted: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("key file mode: %o", info.Mode().Perm())
	}

	second, err := LoadSigner(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	payload := []byte("payload")
	if !second.Verify(payload, first.Sign(payload)) {
		t.Fatalf("reloaded signer must share the persisted key")
	}
}
