package auth

import (
	"errors"
	"testing"
)

func TestNewKeyring_EmptySecret(t *testing.T) {
	if _, err := NewKeyring(nil); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestKeyring_StableIDs(t *testing.T) {
	a, _ := NewKeyring([]byte("same"))
	b, _ := NewKeyring([]byte("same"))
	c, _ := NewKeyring([]byte("other"))

	if a.Current().ID != b.Current().ID {
		t.Fatal("same secret must give the same key id")
	}
	if a.Current().ID == c.Current().ID {
		t.Fatal("different secrets must give different key ids")
	}
}

func TestKeyring_RotateSameSecretIsNoop(t *testing.T) {
	k, _ := NewKeyring([]byte("s1"))
	_, _ = k.Rotate([]byte("s2"))
	prevID := k.Current().ID

	rotated, err := k.Rotate([]byte("s2"))
	if err != nil || rotated {
		t.Fatalf("rotated=%v err=%v", rotated, err)
	}
	if k.Current().ID != prevID {
		t.Fatal("current key changed on no-op rotation")
	}

	first, _ := NewKeyring([]byte("s1"))
	if _, ok := k.Lookup(first.Current().ID); !ok {
		t.Fatal("previous key must survive a no-op rotation")
	}

	if _, err := k.Rotate(nil); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestKeyring_CopiesSecret(t *testing.T) {
	secret := []byte("mutable")
	k, _ := NewKeyring(secret)
	secret[0] = 'X'

	if string(k.Current().Secret) != "mutable" {
		t.Fatal("keyring must not alias caller's secret")
	}
}
