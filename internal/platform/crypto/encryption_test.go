package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestFieldCipherRoundTrip(t *testing.T) {
	c, err := NewFieldCipher("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Configured() {
		t.Fatal("expected configured cipher")
	}

	sealed, err := c.SealString("123412341234")
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if bytes.Contains(sealed, []byte("123412341234")) {
		t.Fatal("expected plaintext to be hidden")
	}

	plain, err := c.OpenString(sealed)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if plain != "123412341234" {
		t.Fatalf("expected round-trip value, got %q", plain)
	}
}

func TestFieldCipherNoncesDiffer(t *testing.T) {
	c, err := NewFieldCipher("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := c.SealString("same")
	b, _ := c.SealString("same")
	if bytes.Equal(a, b) {
		t.Fatal("expected distinct ciphertexts for equal plaintexts")
	}
}

func TestFieldCipherUnconfiguredPassThrough(t *testing.T) {
	c, err := NewFieldCipher("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sealed, _ := c.SealString("999988887777")
	if string(sealed) != "999988887777" {
		t.Fatalf("expected pass-through, got %q", sealed)
	}
	plain, _ := c.OpenString(sealed)
	if plain != "999988887777" {
		t.Fatalf("expected pass-through, got %q", plain)
	}
}

func TestFieldCipherRejectsShortKey(t *testing.T) {
	if _, err := NewFieldCipher("short"); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestFieldCipherShortCiphertext(t *testing.T) {
	c, _ := NewFieldCipher("0123456789abcdef0123456789abcdef")
	if _, err := c.OpenString([]byte{1, 2}); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
}

func TestFieldCipherDigestDeterministic(t *testing.T) {
	c, _ := NewFieldCipher("0123456789abcdef0123456789abcdef")
	if !bytes.Equal(c.Digest("123412341234"), c.Digest("123412341234")) {
		t.Fatal("expected equal digests")
	}
	if bytes.Equal(c.Digest("123412341234"), c.Digest("123412341235")) {
		t.Fatal("expected distinct digests")
	}
	other, _ := NewFieldCipher("fedcba9876543210fedcba9876543210")
	if bytes.Equal(c.Digest("123412341234"), other.Digest("123412341234")) {
		t.Fatal("expected digest to depend on key")
	}
}
