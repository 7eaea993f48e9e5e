package util

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ParseSignature splits a 65-byte hex ECDSA signature into its (v, r, s)
// components, normalizing v to the 27/28 convention contracts expect.
func ParseSignature(signature string) (v uint8, r [32]byte, s [32]byte, err error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return 0, r, s, errors.Wrap(err, "decode signature hex")
	}
	if len(raw) != 65 {
		return 0, r, s, errors.Errorf("signature must be 65 bytes, got %d", len(raw))
	}
	copy(r[:], raw[:32])
	copy(s[:], raw[32:64])
	v = raw[64]
	if v < 27 {
		v += 27
	}
	return v, r, s, nil
}

// ParseBytes32 decodes a 32-byte hex value such as an EIP-3009 nonce.
func ParseBytes32(value string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return out, errors.Wrap(err, "decode bytes32 hex")
	}
	if len(raw) != 32 {
		return out, errors.Errorf("expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ValidAddress reports whether s is a well-formed chain address.
func ValidAddress(s string) bool {
	return common.IsHexAddress(s)
}
