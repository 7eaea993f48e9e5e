package x402

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// PaymentRequirements describes one way a client can pay for a resource.
// It is built fresh for every unauthenticated request and discarded after
// the response is sent.
type PaymentRequirements struct {
	Scheme string `json:"scheme" validate:"required"`

	// Network is a CAIP-2 chain identifier, e.g. "eip155:84532".
	Network string `json:"network" validate:"required"`

	// MaxAmountRequired is the price in atomic units of the asset,
	// base-10 encoded.
	MaxAmountRequired string `json:"maxAmountRequired" validate:"required"`

	// Resource echoes the exact request URL so the client can re-derive
	// the same requirement on retry.
	Resource string `json:"resource"`

	Description string `json:"description"`

	MimeType string `json:"mimeType"`

	// PayTo is the API owner's address.
	PayTo string `json:"payTo" validate:"required"`

	// Asset is the settlement token contract address.
	Asset string `json:"asset" validate:"required"`

	MaxTimeoutSeconds int `json:"maxTimeoutSeconds" validate:"gt=0"`

	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`
}

func (pr *PaymentRequirements) Validate() error {
	return validate.Struct(pr)
}

// PaymentRequiredResponse is the 402 challenge envelope. Accepts stays a
// list: only one scheme is active today but the contract supports several.
type PaymentRequiredResponse struct {
	X402Version  int                   `json:"x402Version"`
	Error        string                `json:"error"`
	ErrorMessage string                `json:"errorMessage"`
	Accepts      []PaymentRequirements `json:"accepts"`
}

// ExactEvmPayload is the decoded proof body for the eip712 scheme: an
// EIP-3009 transfer authorization plus the payer's signature.
type ExactEvmPayload struct {
	From        string `json:"from"`
	Signature   string `json:"signature"`
	ValidAfter  int64  `json:"validAfter"`
	ValidBefore int64  `json:"validBefore"`
	Nonce       string `json:"nonce"`
	Amount      string `json:"amount"`
}

// PaymentPayload is the client-supplied payment proof, decoded from the
// X-PAYMENT request header. The payload variant is keyed by Scheme; only
// the eip712 scheme has a typed record today.
type PaymentPayload struct {
	X402Version int              `json:"x402Version"`
	Scheme      string           `json:"scheme"`
	Network     string           `json:"network"`
	Payload     *ExactEvmPayload `json:"payload"`
}

// VerifyRequest is the POST /verify body.
type VerifyRequest struct {
	X402Version         int                 `json:"x402Version"`
	PaymentHeader       string              `json:"paymentHeader"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// VerifyResponse reports whether a proof satisfies a requirement.
// InvalidReason is null when the proof is valid.
type VerifyResponse struct {
	IsValid       bool    `json:"isValid"`
	InvalidReason *string `json:"invalidReason"`
}

// SettleRequest is the POST /settle body.
type SettleRequest struct {
	X402Version   int    `json:"x402Version"`
	PaymentHeader string `json:"paymentHeader"`
	ApiOwner      string `json:"apiOwner"`
	NodeOperator  string `json:"nodeOperator"`
	Amount        string `json:"amount"`
}

// SettlementResult is the outcome of an on-chain settlement. Exactly one of
// the two shapes is ever produced: success with TxHash and NetworkId set and
// Error null, or failure with Error set and the others null.
type SettlementResult struct {
	Success   bool    `json:"success"`
	TxHash    *string `json:"txHash"`
	NetworkId *string `json:"networkId"`
	Error     *string `json:"error"`
}

// Receipt is the X-PAYMENT-RESPONSE header body.
type Receipt struct {
	Success   bool    `json:"success"`
	TxHash    *string `json:"txHash"`
	NetworkId *string `json:"networkId"`
}

// SupportedKind is one scheme/network pair accepted by the facilitator.
type SupportedKind struct {
	Scheme  string `json:"scheme"`
	Network string `json:"network"`
}

// SupportedResponse is the GET /supported body.
type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// SettleFailure builds the failure shape of SettlementResult.
func SettleFailure(msg string) *SettlementResult {
	return &SettlementResult{Success: false, Error: &msg}
}

// SettleSuccess builds the success shape of SettlementResult.
func SettleSuccess(txHash, networkId string) *SettlementResult {
	return &SettlementResult{Success: true, TxHash: &txHash, NetworkId: &networkId}
}
