package contract

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// PaymentRouterABI is the split surface of the router. The 90/8/2 division
// between API owner, node operator and protocol treasury is enforced inside
// the contract and never recomputed here.
const PaymentRouterABI = `[
	{"type":"function","name":"splitPayment","stateMutability":"nonpayable","inputs":[{"name":"apiOwner","type":"address"},{"name":"nodeOperator","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"splitPaymentWithAuthorization","stateMutability":"nonpayable","inputs":[{"name":"payer","type":"address"},{"name":"apiOwner","type":"address"},{"name":"nodeOperator","type":"address"},{"name":"amount","type":"uint256"},{"name":"validAfter","type":"uint256"},{"name":"validBefore","type":"uint256"},{"name":"nonce","type":"bytes32"},{"name":"v","type":"uint8"},{"name":"r","type":"bytes32"},{"name":"s","type":"bytes32"}],"outputs":[]}
]`

type PaymentRouter struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewPaymentRouter(address common.Address, backend bind.ContractBackend) (*PaymentRouter, error) {
	parsed, err := abi.JSON(strings.NewReader(PaymentRouterABI))
	if err != nil {
		return nil, err
	}
	return &PaymentRouter{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (p *PaymentRouter) Address() common.Address {
	return p.address
}

// SplitPayment divides amount held by the sponsoring account per the
// router's fixed percentage policy. Requires a confirmed approval first.
func (p *PaymentRouter) SplitPayment(opts *bind.TransactOpts, apiOwner, nodeOperator common.Address, amount *big.Int) (*types.Transaction, error) {
	return p.contract.Transact(opts, "splitPayment", apiOwner, nodeOperator, amount)
}

// SplitPaymentWithAuthorization pulls amount directly from the payer using
// its EIP-3009 authorization, then splits it. No prior approval is needed.
func (p *PaymentRouter) SplitPaymentWithAuthorization(opts *bind.TransactOpts, payer, apiOwner, nodeOperator common.Address, amount, validAfter, validBefore *big.Int, nonce [32]byte, v uint8, r, s [32]byte) (*types.Transaction, error) {
	return p.contract.Transact(opts, "splitPaymentWithAuthorization", payer, apiOwner, nodeOperator, amount, validAfter, validBefore, nonce, v, r, s)
}
