package push

import (
	"encoding/base64"
	"testing"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	if pub == "" || priv == "" {
		t.Fatal("expected non-empty keys")
	}

	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	// Uncompressed P-256 point: 0x04 || X || Y
	if len(pubBytes) != 65 || pubBytes[0] != 0x04 {
		t.Errorf("public key = %d bytes starting 0x%02x, want 65 bytes starting 0x04", len(pubBytes), pubBytes[0])
	}

	if _, err := base64.RawURLEncoding.DecodeString(priv); err != nil {
		t.Fatalf("decode private key: %v", err)
	}

	pub2, _, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate second pair: %v", err)
	}
	if pub2 == pub {
		t.Error("two generated key pairs should differ")
	}
}

func TestVAPIDPublicKeyAccessor(t *testing.T) {
	svc := NewService("pub-key", "priv-key")
	if svc.VAPIDPublicKey() != "pub-key" {
		t.Errorf("VAPIDPublicKey = %q, want pub-key", svc.VAPIDPublicKey())
	}
}
