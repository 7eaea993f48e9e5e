package util

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Amount helpers operate on decimal strings. On-chain values are carried as
// base-10 strings end to end so no precision is lost between the store, the
// wire and the chain.

func ToBigInt(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid integer string: %q", s)
	}
	return n, nil
}

func Add(a, b string) (*big.Int, error) {
	x, err := ToBigInt(a)
	if err != nil {
		return nil, err
	}
	y, err := ToBigInt(b)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(x, y), nil
}

func Compare(a, b string) (int, error) {
	x, err := ToBigInt(a)
	if err != nil {
		return 0, err
	}
	y, err := ToBigInt(b)
	if err != nil {
		return 0, err
	}
	return x.Cmp(y), nil
}

// ToAtomic converts a decimal token amount (e.g. "1.5") into its integer
// smallest-unit form ("1500000" for a 6-decimal asset). Prices must be in
// integer form before they are persisted or compared.
func ToAtomic(amount string, decimals int32) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", errors.Wrapf(err, "parse amount %q", amount)
	}
	if d.IsNegative() {
		return "", errors.Errorf("amount must not be negative: %q", amount)
	}
	atomic := d.Shift(decimals)
	if !atomic.IsInteger() {
		return "", errors.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}
	return atomic.String(), nil
}

// FromAtomic renders an integer smallest-unit amount as a decimal string.
func FromAtomic(atomic string, decimals int32) (string, error) {
	d, err := decimal.NewFromString(atomic)
	if err != nil {
		return "", errors.Wrapf(err, "parse atomic amount %q", atomic)
	}
	return d.Shift(-decimals).String(), nil
}

func PtrOf[T any](v T) *T {
	return &v
}
