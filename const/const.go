package constant

var (
	// ProxyPrefix is the route prefix under which monetized upstreams are
	// exposed.
	ProxyPrefix = "/api"

	// X402Version is the single supported protocol version. Requests
	// carrying any other version are rejected, never coerced.
	X402Version = 1

	// SchemeEIP712 is the active payment scheme: an EIP-712 signed
	// EIP-3009 transfer authorization.
	SchemeEIP712 = "eip712"

	// SchemeOnchain is the fallback scheme advertised on /supported.
	SchemeOnchain = "onchain"

	// HeaderPayment carries the base64-encoded payment proof on requests.
	HeaderPayment = "X-PAYMENT"

	// HeaderPaymentResponse carries the base64-encoded settlement receipt
	// on responses.
	HeaderPaymentResponse = "X-PAYMENT-RESPONSE"

	// ChallengeTimeoutSeconds is the maxTimeoutSeconds advertised in every
	// 402 challenge.
	ChallengeTimeoutSeconds = 86400

	// AssetDecimals is the settlement asset's fixed-point precision (USDC).
	AssetDecimals = int32(6)

	ErrorPaymentRequired = "payment_required"
	ErrorInvalidPayment  = "invalid_payment"
)
