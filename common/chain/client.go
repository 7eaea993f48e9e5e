package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

var defaultConfirmTimeout = 2 * time.Minute

// EthereumClient wraps an RPC connection plus the sponsoring account's key.
// The account's on-chain nonce is a shared mutable resource: TransactOpts
// serializes nonce assignment so concurrent settlements from the same
// account cannot collide.
type EthereumClient struct {
	Client *ethclient.Client

	chainID        *big.Int
	privateKey     *ecdsa.PrivateKey
	signerAddress  common.Address
	confirmTimeout time.Duration

	nonceMu   sync.Mutex
	nextNonce uint64
	nonceInit bool
}

func NewEthereumClient(rpcURL, privateKeyHex string, chainID int64, confirmTimeout time.Duration) (*EthereumClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial chain rpc %s", rpcURL)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}

	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}

	return &EthereumClient{
		Client:         client,
		chainID:        big.NewInt(chainID),
		privateKey:     key,
		signerAddress:  crypto.PubkeyToAddress(key.PublicKey),
		confirmTimeout: confirmTimeout,
	}, nil
}

func (c *EthereumClient) Close() {
	c.Client.Close()
}

func (c *EthereumClient) SignerAddress() common.Address {
	return c.signerAddress
}

func (c *EthereumClient) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// TransactOpts returns keyed transact options with the next account nonce
// already assigned. Callers submit with these opts immediately; the local
// nonce counter advances under the lock so racing settlements each get a
// distinct nonce.
func (c *EthereumClient) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
	if err != nil {
		return nil, errors.Wrap(err, "create transactor")
	}
	opts.Context = ctx

	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	if !c.nonceInit {
		nonce, err := c.Client.PendingNonceAt(ctx, c.signerAddress)
		if err != nil {
			return nil, errors.Wrap(err, "fetch pending nonce")
		}
		c.nextNonce = nonce
		c.nonceInit = true
	}

	opts.Nonce = new(big.Int).SetUint64(c.nextNonce)
	c.nextNonce++
	return opts, nil
}

// ResetNonce drops the cached nonce so the next transaction re-reads it
// from the chain. Called after a failed submission, where the local counter
// may be ahead of the chain.
func (c *EthereumClient) ResetNonce() {
	c.nonceMu.Lock()
	c.nonceInit = false
	c.nonceMu.Unlock()
}

// WaitMined blocks until tx is included and checks its receipt status.
// Submitted transactions cannot be cancelled, so the wait is bounded by the
// configured confirmation timeout rather than the caller's context alone.
func (c *EthereumClient) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.Client, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "wait for transaction %s", tx.Hash().Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, errors.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}
