// Package crypto implements the two BMD payload ciphers: the chained XOR of
// version 12 and LEA-256 in ECB mode for version 15.
package crypto

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// XORKey is the 16-byte key of the v12 chained XOR.
var XORKey = [16]byte{
	0xD1, 0x73, 0x52, 0xF6, 0xD2, 0x9A, 0xCB, 0x27,
	0x3E, 0xAF, 0x59, 0x31, 0x37, 0xB3, 0xE7, 0xA2,
}

const (
	xorChainSeed = 0x5E
	xorChainStep = 0x3D
)

// LEAKeyDelta holds the LEA key schedule constants.
var LEAKeyDelta = [8]uint32{
	0xc3efe9db, 0x44626b02, 0x79e27c8a, 0x78df30ec,
	0x715ea49e, 0xc785da0a, 0xe04ef22a, 0xe5c40957,
}

// ErrKeyLength is returned for LEA keys that are not 32 bytes long.
var ErrKeyLength = errors.New("crypto: lea-256 key must be 32 bytes")

// ParseLEAKey decodes a 64-character hex string into a LEA-256 key.
// Whitespace and an optional 0x prefix are ignored.
func ParseLEAKey(s string) ([32]byte, error) {
	var key [32]byte
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return key, errors.Wrap(err, "crypto: lea key")
	}
	if len(raw) != len(key) {
		return key, errors.Wrapf(ErrKeyLength, "got %d", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}
