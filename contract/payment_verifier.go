package contract

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// PaymentVerifierABI exposes the signature check. The contract is the
// authoritative word on proof validity and nonce freshness; the broker's
// local recovery is only a fail-fast pre-check.
const PaymentVerifierABI = `[
	{"type":"function","name":"verifyPayment","stateMutability":"view","inputs":[{"name":"payer","type":"address"},{"name":"payTo","type":"address"},{"name":"amount","type":"uint256"},{"name":"validAfter","type":"uint256"},{"name":"validBefore","type":"uint256"},{"name":"nonce","type":"bytes32"},{"name":"signature","type":"bytes"}],"outputs":[{"name":"","type":"bool"}]}
]`

type PaymentVerifier struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewPaymentVerifier(address common.Address, backend bind.ContractBackend) (*PaymentVerifier, error) {
	parsed, err := abi.JSON(strings.NewReader(PaymentVerifierABI))
	if err != nil {
		return nil, err
	}
	return &PaymentVerifier{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (p *PaymentVerifier) Address() common.Address {
	return p.address
}

func (p *PaymentVerifier) VerifyPayment(opts *bind.CallOpts, payer, payTo common.Address, amount, validAfter, validBefore *big.Int, nonce [32]byte, signature []byte) (bool, error) {
	var out []interface{}
	if err := p.contract.Call(opts, &out, "verifyPayment", payer, payTo, amount, validAfter, validBefore, nonce, signature); err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}
