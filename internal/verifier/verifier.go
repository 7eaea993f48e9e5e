package verifier

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/azharpratama/tenso/common/log"
	"github.com/azharpratama/tenso/common/util"
	constant "github.com/azharpratama/tenso/const"
	"github.com/azharpratama/tenso/x402"
)

// Invalid reasons surfaced to clients. The version and payload reasons are
// part of the wire contract.
const (
	ReasonUnsupportedVersion = "Unsupported x402 version"
	ReasonInvalidPayload     = "Invalid payment payload"
	ReasonSchemeNetwork      = "Invalid payment scheme or network"
	ReasonInsufficientAmount = "Payment amount below required price"
	ReasonNotYetValid        = "Authorization not yet valid"
	ReasonExpired            = "Authorization expired"
	ReasonSignerMismatch     = "Signature does not match payer"
	ReasonOnChainRejected    = "On-chain verification failed"
)

// EIP-712 domain of the settlement asset (USDC).
const (
	assetDomainName    = "USDC"
	assetDomainVersion = "2"
)

// ChainVerifier is the on-chain payment-verifying contract, the
// authoritative word on signature validity and nonce freshness.
type ChainVerifier interface {
	VerifyTransfer(ctx context.Context, payer, payTo common.Address, amount, validAfter, validBefore *big.Int, nonce [32]byte, signature []byte) (bool, error)
}

// Verifier checks payment proofs against requirements. It holds no mutable
// state: verifying never consumes a payment, and the same proof can be
// checked repeatedly and concurrently with identical results.
type Verifier struct {
	chain   ChainVerifier
	chainID *big.Int
	logger  log.Logger

	// now is swapped in tests to pin the validity window.
	now func() time.Time
}

// New builds a Verifier. A nil chain means the local signature recovery is
// the final word; that is only acceptable outside production settings.
func New(chain ChainVerifier, chainID int64, logger log.Logger) *Verifier {
	return &Verifier{
		chain:   chain,
		chainID: big.NewInt(chainID),
		logger:  logger,
		now:     time.Now,
	}
}

// Verify checks payload against requirement and reports the result. It
// never returns an error: every failure mode becomes an invalid result with
// a reason.
func (v *Verifier) Verify(ctx context.Context, payload *x402.PaymentPayload, requirement *x402.PaymentRequirements) *x402.VerifyResponse {
	if payload == nil {
		return invalid(ReasonInvalidPayload)
	}

	if payload.X402Version != constant.X402Version {
		return invalid(ReasonUnsupportedVersion)
	}

	proof := payload.Payload
	if proof == nil || proof.From == "" || proof.Signature == "" || proof.Nonce == "" || proof.Amount == "" {
		return invalid(ReasonInvalidPayload)
	}

	if payload.Scheme != requirement.Scheme || payload.Network != requirement.Network {
		return invalid(ReasonSchemeNetwork)
	}

	if !util.ValidAddress(proof.From) || !util.ValidAddress(requirement.PayTo) {
		return invalid(ReasonInvalidPayload)
	}

	cmp, err := util.Compare(proof.Amount, requirement.MaxAmountRequired)
	if err != nil {
		return invalid(ReasonInvalidPayload)
	}
	if cmp < 0 {
		return invalid(ReasonInsufficientAmount)
	}

	now := v.now().Unix()
	if now < proof.ValidAfter {
		return invalid(ReasonNotYetValid)
	}
	if now >= proof.ValidBefore {
		return invalid(ReasonExpired)
	}

	nonce, err := util.ParseBytes32(proof.Nonce)
	if err != nil {
		return invalid(ReasonInvalidPayload)
	}

	sigBytes, err := hex.DecodeString(strings.TrimPrefix(proof.Signature, "0x"))
	if err != nil || len(sigBytes) != 65 {
		return invalid(ReasonInvalidPayload)
	}

	from := common.HexToAddress(proof.From)
	payTo := common.HexToAddress(requirement.PayTo)
	amount, err := util.ToBigInt(proof.Amount)
	if err != nil {
		return invalid(ReasonInvalidPayload)
	}

	// Fast local pre-check: recover the signer and compare to the declared
	// payer before touching the chain.
	if reason := v.recoverAndCompare(proof, requirement, from, payTo, amount, nonce, sigBytes); reason != "" {
		return invalid(reason)
	}

	if v.chain != nil {
		ok, err := v.chain.VerifyTransfer(ctx, from, payTo,
			amount, big.NewInt(proof.ValidAfter), big.NewInt(proof.ValidBefore), nonce, sigBytes)
		if err != nil {
			v.logger.WithFields(logrus.Fields{"error": err, "payer": proof.From}).Error("On-chain verification call failed")
			return invalid(fmt.Sprintf("Verification error: %v", err))
		}
		if !ok {
			return invalid(ReasonOnChainRejected)
		}
	}

	return &x402.VerifyResponse{IsValid: true}
}

func (v *Verifier) recoverAndCompare(proof *x402.ExactEvmPayload, requirement *x402.PaymentRequirements, from, payTo common.Address, amount *big.Int, nonce [32]byte, sigBytes []byte) string {
	domain := DomainSeparator(assetDomainName, assetDomainVersion, v.chainID, common.HexToAddress(requirement.Asset))
	digest := TransferAuthorizationDigest(domain, from, payTo,
		amount, big.NewInt(proof.ValidAfter), big.NewInt(proof.ValidBefore), nonce)

	sig := make([]byte, 65)
	copy(sig, sigBytes)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return ReasonInvalidPayload
	}
	if crypto.PubkeyToAddress(*pubKey) != from {
		return ReasonSignerMismatch
	}
	return ""
}

func invalid(reason string) *x402.VerifyResponse {
	return &x402.VerifyResponse{IsValid: false, InvalidReason: &reason}
}
