package ctrl

import (
	"fmt"

	"github.com/azharpratama/tenso/common/util"
	constant "github.com/azharpratama/tenso/const"
	"github.com/azharpratama/tenso/model"
	"github.com/azharpratama/tenso/x402"
)

// BuildChallenge constructs the payment requirement for an endpoint. Pure
// function of its inputs: the same endpoint and URL always produce the same
// requirement, so a retrying client re-derives it exactly.
func (c *Ctrl) BuildChallenge(api *model.Api, endpoint *model.Endpoint, requestURL string) x402.PaymentRequirements {
	description := endpoint.Description
	if description == "" {
		description = endpoint.Path
	}

	return x402.PaymentRequirements{
		Scheme:            constant.SchemeEIP712,
		Network:           c.networkID,
		MaxAmountRequired: endpoint.Price,
		Resource:          requestURL,
		Description:       fmt.Sprintf("%s: %s", api.Name, description),
		MimeType:          "application/json",
		PayTo:             api.Owner,
		Asset:             c.asset,
		MaxTimeoutSeconds: constant.ChallengeTimeoutSeconds,
		OutputSchema: map[string]interface{}{
			"input": map[string]interface{}{
				"type":         "http",
				"method":       endpoint.Method,
				"discoverable": true,
			},
		},
	}
}

// BuildPaymentRequired wraps a challenge in the 402 envelope. Accepts is a
// list to keep the multi-scheme extension point open.
func (c *Ctrl) BuildPaymentRequired(api *model.Api, endpoint *model.Endpoint, requestURL string) *x402.PaymentRequiredResponse {
	price, err := util.FromAtomic(endpoint.Price, constant.AssetDecimals)
	if err != nil {
		// Prices are normalized on write; an unparsable one would be a
		// store corruption, render it raw rather than fail the challenge.
		price = endpoint.Price
	}

	return &x402.PaymentRequiredResponse{
		X402Version:  constant.X402Version,
		Error:        constant.ErrorPaymentRequired,
		ErrorMessage: fmt.Sprintf("Payment of %s USDC required", price),
		Accepts:      []x402.PaymentRequirements{c.BuildChallenge(api, endpoint, requestURL)},
	}
}
