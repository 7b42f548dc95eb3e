package crypto

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func testKey(t *testing.T) string {
	t.Helper()
	// Fixed 32-byte key for deterministic tests.
	return hex.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestRoundtrip(t *testing.T) {
	s, err := NewSealer(testKey(t))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	original := "eyJhbGciOiJIUzI1NiJ9.payload.sig"
	sealed, err := s.Seal("gd_token", original)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if sealed == original {
		t.Fatal("sealed text should differ from plaintext")
	}
	if strings.ContainsAny(sealed, "+/=; ") {
		t.Errorf("sealed value is not cookie-safe: %q", sealed)
	}

	opened, err := s.Open("gd_token", sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if opened != original {
		t.Errorf("roundtrip failed: got %q, want %q", opened, original)
	}
}

func TestDifferentCiphertexts(t *testing.T) {
	s, err := NewSealer(testKey(t))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	enc1, _ := s.Seal("gd_flash", "same input")
	enc2, _ := s.Seal("gd_flash", "same input")

	if enc1 == enc2 {
		t.Error("two seals of the same plaintext should produce different output (random nonce)")
	}
}

func TestNameIsBound(t *testing.T) {
	s, err := NewSealer(testKey(t))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	sealed, err := s.Seal("gd_flash", "hello")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	_, err = s.Open("gd_token", sealed)
	if !errors.Is(err, ErrInvalidSeal) {
		t.Errorf("expected ErrInvalidSeal when opening under another name, got %v", err)
	}
}

func TestNilSealerPassthrough(t *testing.T) {
	var s *Sealer

	sealed, err := s.Seal("gd_token", "plain")
	if err != nil || sealed != "plain" {
		t.Errorf("nil Seal should return plaintext unchanged, got %q, %v", sealed, err)
	}

	opened, err := s.Open("gd_token", "plain")
	if err != nil || opened != "plain" {
		t.Errorf("nil Open should return input unchanged, got %q, %v", opened, err)
	}
}

func TestEmptyKeyReturnsNil(t *testing.T) {
	s, err := NewSealer("")
	if err != nil {
		t.Fatalf("NewSealer with empty key: %v", err)
	}
	if s != nil {
		t.Error("NewSealer with empty key should return nil")
	}
}

func TestInvalidKey(t *testing.T) {
	short := hex.EncodeToString([]byte("0123456789abcdef"))
	_, err := NewSealer(short)
	if err == nil {
		t.Fatal("expected error for 16-byte key")
	}
	if !strings.Contains(err.Error(), "32 bytes") {
		t.Errorf("error should mention 32 bytes, got: %v", err)
	}

	if _, err := NewSealer("not-hex"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	k2, _ := GenerateKey()
	if k1 == k2 {
		t.Error("generated keys should differ")
	}
	if _, err := NewSealer(k1); err != nil {
		t.Errorf("generated key should be usable: %v", err)
	}
}

func TestOpenInvalidData(t *testing.T) {
	s, err := NewSealer(testKey(t))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	if _, err := s.Open("gd_token", "!!!not-base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}

	if _, err := s.Open("gd_token", "YQ"); !errors.Is(err, ErrInvalidSeal) {
		t.Errorf("expected ErrInvalidSeal for short value, got %v", err)
	}

	sealed, _ := s.Seal("gd_token", "hello")
	tampered := []byte(sealed)
	if tampered[len(tampered)/2] == 'A' {
		tampered[len(tampered)/2] = 'B'
	} else {
		tampered[len(tampered)/2] = 'A'
	}
	if _, err := s.Open("gd_token", string(tampered)); err == nil {
		t.Error("expected error for tampered value")
	}
}
