package contract

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

const NodeRegistryABI = `[
	{"type":"function","name":"getNode","stateMutability":"view","inputs":[{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"tuple","components":[{"name":"operator","type":"address"},{"name":"endpoint","type":"string"},{"name":"region","type":"string"},{"name":"stakeAmount","type":"uint256"},{"name":"reputation","type":"uint256"},{"name":"active","type":"bool"},{"name":"registeredAt","type":"uint256"}]}]}
]`

// Node mirrors the on-chain NodeRegistry.Node tuple.
type Node struct {
	Operator     common.Address
	Endpoint     string
	Region       string
	StakeAmount  *big.Int
	Reputation   *big.Int
	Active       bool
	RegisteredAt *big.Int
}

type NodeRegistry struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewNodeRegistry(address common.Address, backend bind.ContractBackend) (*NodeRegistry, error) {
	parsed, err := abi.JSON(strings.NewReader(NodeRegistryABI))
	if err != nil {
		return nil, err
	}
	return &NodeRegistry{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (n *NodeRegistry) Address() common.Address {
	return n.address
}

// GetNode reads the operator's registration from the authoritative on-chain
// registry.
func (n *NodeRegistry) GetNode(opts *bind.CallOpts, operator common.Address) (*Node, error) {
	var out []interface{}
	if err := n.contract.Call(opts, &out, "getNode", operator); err != nil {
		return nil, err
	}
	node := abi.ConvertType(out[0], new(Node)).(*Node)
	return node, nil
}
