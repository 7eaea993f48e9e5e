package nodecontract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/azharpratama/tenso/common/chain"
	"github.com/azharpratama/tenso/common/errors"
	"github.com/azharpratama/tenso/common/log"
	"github.com/azharpratama/tenso/common/util"
	"github.com/azharpratama/tenso/config"
	"github.com/azharpratama/tenso/contract"
)

// NodeContract bundles the chain client with the contracts the forwarding
// node talks to. Every transact method submits and waits for inclusion
// before returning; callers rely on that ordering.
type NodeContract struct {
	client   *chain.EthereumClient
	usdc     *contract.Erc20
	router   *contract.PaymentRouter
	verifier *contract.PaymentVerifier
	registry *contract.NodeRegistry
	logger   log.Logger
}

func NewNodeContract(conf *config.Config, logger log.Logger) (*NodeContract, error) {
	client, err := chain.NewEthereumClient(
		conf.Network.URL,
		conf.Network.PrivateKey,
		conf.Network.ChainID,
		conf.Settlement.ConfirmTimeout,
	)
	if err != nil {
		return nil, err
	}

	usdc, err := contract.NewErc20(common.HexToAddress(conf.Contracts.Usdc), client.Client)
	if err != nil {
		return nil, err
	}
	router, err := contract.NewPaymentRouter(common.HexToAddress(conf.Contracts.PaymentRouter), client.Client)
	if err != nil {
		return nil, err
	}
	verifier, err := contract.NewPaymentVerifier(common.HexToAddress(conf.Contracts.PaymentVerifier), client.Client)
	if err != nil {
		return nil, err
	}
	registry, err := contract.NewNodeRegistry(common.HexToAddress(conf.Contracts.NodeRegistry), client.Client)
	if err != nil {
		return nil, err
	}

	return &NodeContract{
		client:   client,
		usdc:     usdc,
		router:   router,
		verifier: verifier,
		registry: registry,
		logger:   logger,
	}, nil
}

func (n *NodeContract) Close() {
	n.client.Close()
}

func (n *NodeContract) NodeAddress() string {
	return n.client.SignerAddress().Hex()
}

// ApproveRouter authorizes the payment router to move amount of the
// settlement asset from the node's custody, and waits for the approval to
// be mined. The split must not be submitted before this returns.
func (n *NodeContract) ApproveRouter(ctx context.Context, amount *big.Int) (string, error) {
	balance, err := n.usdc.BalanceOf(&bind.CallOpts{Context: ctx}, n.client.SignerAddress())
	if err != nil {
		return "", errors.Wrap(err, "read custody balance")
	}
	if balance.Cmp(amount) < 0 {
		return "", errors.Errorf("insufficient custody balance: have %s, need %s", balance, amount)
	}

	opts, err := n.client.TransactOpts(ctx)
	if err != nil {
		return "", err
	}

	tx, err := n.usdc.Approve(opts, n.router.Address(), amount)
	if err != nil {
		n.client.ResetNonce()
		n.logger.WithFields(logrus.Fields{"error": err}).Error("Failed to submit approval")
		return "", errors.Wrap(err, "approve payment router")
	}

	if _, err := n.client.WaitMined(ctx, tx); err != nil {
		n.logger.WithFields(logrus.Fields{
			"error":   err,
			"tx_hash": tx.Hash().Hex(),
		}).Error("Approval not confirmed")
		return "", errors.Wrap(err, "confirm approval")
	}
	return tx.Hash().Hex(), nil
}

// SplitPayment invokes the router's split and waits for confirmation.
func (n *NodeContract) SplitPayment(ctx context.Context, apiOwner, nodeOperator common.Address, amount *big.Int) (string, error) {
	opts, err := n.client.TransactOpts(ctx)
	if err != nil {
		return "", err
	}

	tx, err := n.router.SplitPayment(opts, apiOwner, nodeOperator, amount)
	if err != nil {
		n.client.ResetNonce()
		n.logger.WithFields(logrus.Fields{"error": err}).Error("Failed to submit split")
		return "", errors.Wrap(err, "split payment")
	}

	if _, err := n.client.WaitMined(ctx, tx); err != nil {
		n.logger.WithFields(logrus.Fields{
			"error":   err,
			"tx_hash": tx.Hash().Hex(),
		}).Error("Split not confirmed")
		return "", errors.Wrap(err, "confirm split")
	}
	return tx.Hash().Hex(), nil
}

// SplitPaymentWithAuthorization settles directly from the payer's EIP-3009
// authorization and waits for confirmation. Nonce replay is rejected by the
// token contract, which surfaces here as a revert.
func (n *NodeContract) SplitPaymentWithAuthorization(ctx context.Context, payer, apiOwner, nodeOperator common.Address, amount, validAfter, validBefore *big.Int, nonce [32]byte, signature string) (string, error) {
	v, r, s, err := util.ParseSignature(signature)
	if err != nil {
		return "", err
	}

	used, err := n.usdc.AuthorizationState(&bind.CallOpts{Context: ctx}, payer, nonce)
	if err != nil {
		return "", errors.Wrap(err, "read authorization state")
	}
	if used {
		return "", errors.Errorf("authorization %x already used or canceled", nonce)
	}

	opts, err := n.client.TransactOpts(ctx)
	if err != nil {
		return "", err
	}

	tx, err := n.router.SplitPaymentWithAuthorization(opts, payer, apiOwner, nodeOperator, amount, validAfter, validBefore, nonce, v, r, s)
	if err != nil {
		n.client.ResetNonce()
		n.logger.WithFields(logrus.Fields{"error": err}).Error("Failed to submit authorized split")
		return "", errors.Wrap(err, "split payment with authorization")
	}

	if _, err := n.client.WaitMined(ctx, tx); err != nil {
		n.logger.WithFields(logrus.Fields{
			"error":   err,
			"tx_hash": tx.Hash().Hex(),
		}).Error("Authorized split not confirmed")
		return "", errors.Wrap(err, "confirm authorized split")
	}
	return tx.Hash().Hex(), nil
}

// VerifyTransfer asks the on-chain payment verifier whether the signed
// authorization is valid and unconsumed. Read-only.
func (n *NodeContract) VerifyTransfer(ctx context.Context, payer, payTo common.Address, amount, validAfter, validBefore *big.Int, nonce [32]byte, signature []byte) (bool, error) {
	ok, err := n.verifier.VerifyPayment(&bind.CallOpts{Context: ctx}, payer, payTo, amount, validAfter, validBefore, nonce, signature)
	if err != nil {
		n.logger.WithFields(logrus.Fields{"error": err}).Error("Failed to verify payment on-chain")
		return false, err
	}
	return ok, nil
}

// GetNode reads the operator's registration from the on-chain registry.
func (n *NodeContract) GetNode(ctx context.Context, operator common.Address) (*contract.Node, error) {
	node, err := n.registry.GetNode(&bind.CallOpts{Context: ctx}, operator)
	if err != nil {
		n.logger.WithFields(logrus.Fields{"error": err, "operator": operator.Hex()}).Error("Failed to read node registration")
		return nil, err
	}
	return node, nil
}
