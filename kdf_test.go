package pqseal

import (
	"bytes"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	secret := []byte("input key material")

	key1, err := DeriveKey(secret, nil, []byte("context-a"), 32)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if len(key1) != 32 {
		t.Fatalf("key length = %d, want 32", len(key1))
	}

	key2, err := DeriveKey(secret, nil, []byte("context-a"), 32)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(key1, key2) {
		t.Error("same inputs produced different keys")
	}

	key3, err := DeriveKey(secret, nil, []byte("context-b"), 32)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(key1, key3) {
		t.Error("different info produced the same key")
	}

	key4, err := DeriveKey(secret, []byte("a salt"), []byte("context-a"), 32)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(key1, key4) {
		t.Error("different salt produced the same key")
	}

	long, err := DeriveKey(secret, nil, []byte("context-a"), 64)
	if err != nil {
		t.Fatal(err)
	}
	// HKDF output is a stream: a longer read starts with the shorter one.
	if !bytes.Equal(long[:32], key1) {
		t.Error("64-byte derivation does not extend the 32-byte one")
	}
}

func TestArgon2Key(t *testing.T) {
	password := []byte("correct horse battery staple")
	salt := []byte("0123456789abcdef")

	key1 := Argon2Key(password, salt, 1, 64*1024, 4, 32)
	if len(key1) != 32 {
		t.Fatalf("key length = %d, want 32", len(key1))
	}
	key2 := Argon2Key(password, salt, 1, 64*1024, 4, 32)
	if !bytes.Equal(key1, key2) {
		t.Error("same inputs produced different keys")
	}
	key3 := Argon2Key([]byte("wrong password"), salt, 1, 64*1024, 4, 32)
	if bytes.Equal(key1, key3) {
		t.Error("different passwords produced the same key")
	}
	key4 := Argon2Key(password, []byte("fedcba9876543210"), 1, 64*1024, 4, 32)
	if bytes.Equal(key1, key4) {
		t.Error("different salts produced the same key")
	}
}
