package verifier

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EIP-712 hashing for the EIP-3009 TransferWithAuthorization type, assembled
// word by word: every field is padded to a 32-byte slot, the struct hash is
// keccak over typeHash||fields, and the digest prefixes 0x1901 plus the
// domain separator.

var (
	domainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

	transferAuthTypeHash = crypto.Keccak256Hash([]byte("TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"))
)

func padLeft32(i *big.Int) []byte {
	b := i.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func addressTo32(a common.Address) []byte {
	out := make([]byte, 32)
	copy(out[12:], a.Bytes())
	return out
}

func keccakWords(parts ...[]byte) common.Hash {
	joined := []byte{}
	for _, p := range parts {
		joined = append(joined, p...)
	}
	return crypto.Keccak256Hash(joined)
}

// DomainSeparator hashes the EIP-712 domain for the settlement asset.
func DomainSeparator(name, version string, chainID *big.Int, verifyingContract common.Address) common.Hash {
	return keccakWords(
		domainTypeHash.Bytes(),
		crypto.Keccak256([]byte(name)),
		crypto.Keccak256([]byte(version)),
		padLeft32(chainID),
		addressTo32(verifyingContract),
	)
}

// TransferAuthorizationDigest builds the signable digest for an EIP-3009
// transfer authorization.
func TransferAuthorizationDigest(domain common.Hash, from, to common.Address, value, validAfter, validBefore *big.Int, nonce [32]byte) common.Hash {
	structHash := keccakWords(
		transferAuthTypeHash.Bytes(),
		addressTo32(from),
		addressTo32(to),
		padLeft32(value),
		padLeft32(validAfter),
		padLeft32(validBefore),
		nonce[:],
	)

	raw := make([]byte, 0, 2+32+32)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domain.Bytes()...)
	raw = append(raw, structHash.Bytes()...)
	return crypto.Keccak256Hash(raw)
}
