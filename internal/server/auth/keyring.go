package auth

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
)

var ErrEmptySecret = errors.New("jwt secret must not be empty")

// Key is one HMAC signing secret. ID goes into the token "kid" header.
type Key struct {
	ID     string
	Secret []byte
}

// Keyring holds the signing key in use and the one it replaced. Tokens
// signed with the previous key keep verifying until the next rotation.
type Keyring struct {
	mu       sync.RWMutex
	current  Key
	previous *Key
}

func NewKeyring(secret []byte) (*Keyring, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Keyring{current: newKey(secret)}, nil
}

// Rotate makes secret the current key. Rotating to the secret already in
// use is a no-op, so re-reading an unchanged config keeps both keys.
func (k *Keyring) Rotate(secret []byte) (rotated bool, err error) {
	if len(secret) == 0 {
		return false, ErrEmptySecret
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if bytes.Equal(k.current.Secret, secret) {
		return false, nil
	}
	prev := k.current
	k.previous = &prev
	k.current = newKey(secret)
	return true, nil
}

// Current returns the key new tokens are signed with.
func (k *Keyring) Current() Key {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.current
}

// Lookup returns the secret for kid if it is still accepted.
func (k *Keyring) Lookup(kid string) ([]byte, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if kid == k.current.ID {
		return k.current.Secret, true
	}
	if k.previous != nil && kid == k.previous.ID {
		return k.previous.Secret, true
	}
	return nil, false
}

// newKey derives a stable id from the secret so restarts with the same
// secret keep issued tokens valid.
func newKey(secret []byte) Key {
	sum := sha256.Sum256(secret)
	s := make([]byte, len(secret))
	copy(s, secret)
	return Key{ID: hex.EncodeToString(sum[:8]), Secret: s}
}
