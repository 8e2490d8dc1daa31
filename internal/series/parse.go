package series

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"chain-dashboard/internal/chain"
)

// parseQuantity parses a non-negative integer block field. Decimal strings are
// expected; 0x-prefixed hex quantities are accepted as well.
func parseQuantity(block chain.Block, field, raw string) (decimal.Decimal, error) {
	value, err := parseInteger(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: block %d %s %q: %w", chain.ErrMalformedBlockData, block.Number, field, raw, err)
	}
	return value, nil
}

func parseInteger(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, errors.New("empty value")
	}

	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		n, err := hexutil.DecodeBig(strings.ToLower(raw))
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromBigInt(n, 0), nil
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !value.IsInteger() {
		return decimal.Decimal{}, errors.New("not an integer")
	}
	if value.IsNegative() {
		return decimal.Decimal{}, errors.New("negative value")
	}
	return value, nil
}
