package zotero

import (
	"errors"
	"math/rand/v2"
	"strings"
)

// Item keys are eight characters drawn from digits 2-9 and upper-case
// letters without I and O.
const (
	KeyAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	KeyLength   = 8
)

var ErrKeySpaceExhausted = errors.New("could not mint an unused item key")

// maxKeyAttempts bounds rejection sampling against the existing key set.
const maxKeyAttempts = 1000

// KeyMinter generates item keys that do not collide with a known set.
// Minted keys are added to the set.
type KeyMinter struct {
	alphabet string
	length   int
	existing map[string]struct{}
	intn     func(n int) int
}

// NewKeyMinter mints keys avoiding existing. A nil intn uses math/rand/v2.
func NewKeyMinter(existing map[string]struct{}, intn func(n int) int) *KeyMinter {
	if existing == nil {
		existing = make(map[string]struct{})
	}
	if intn == nil {
		intn = rand.IntN
	}
	return &KeyMinter{alphabet: KeyAlphabet, length: KeyLength, existing: existing, intn: intn}
}

func (m *KeyMinter) Mint() (string, error) {
	buf := make([]byte, m.length)
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		for i := range buf {
			buf[i] = m.alphabet[m.intn(len(m.alphabet))]
		}
		key := string(buf)
		if _, taken := m.existing[key]; !taken {
			m.existing[key] = struct{}{}
			return key, nil
		}
	}
	return "", ErrKeySpaceExhausted
}

// Release forgets a minted key, used when the row carrying it was rolled back.
func (m *KeyMinter) Release(key string) {
	delete(m.existing, key)
}

func (m *KeyMinter) Known(key string) bool {
	_, ok := m.existing[key]
	return ok
}

// ValidKey reports whether s has the shape of an item key.
func ValidKey(s string) bool {
	if len(s) != KeyLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(KeyAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
