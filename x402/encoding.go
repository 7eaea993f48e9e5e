package x402

import (
	"encoding/base64"
	"encoding/json"

	"github.com/azharpratama/tenso/common/errors"
)

// DecodePayment decodes a base64 X-PAYMENT header into a PaymentPayload.
// Malformed base64 or JSON is a typed decode error, never a crash.
func DecodePayment(header string) (*PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, errors.Wrap(err, "decode payment header base64")
	}

	var payload PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "unmarshal payment payload")
	}
	return &payload, nil
}

// EncodePayment encodes a PaymentPayload into X-PAYMENT header form.
func EncodePayment(payload *PaymentPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "marshal payment payload")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodeReceipt encodes a settlement receipt into X-PAYMENT-RESPONSE
// header form.
func EncodeReceipt(result *SettlementResult) (string, error) {
	receipt := Receipt{
		Success:   result.Success,
		TxHash:    result.TxHash,
		NetworkId: result.NetworkId,
	}
	raw, err := json.Marshal(receipt)
	if err != nil {
		return "", errors.Wrap(err, "marshal payment receipt")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeReceipt decodes an X-PAYMENT-RESPONSE header.
func DecodeReceipt(header string) (*Receipt, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, errors.Wrap(err, "decode receipt base64")
	}
	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, errors.Wrap(err, "unmarshal receipt")
	}
	return &receipt, nil
}
