package series

import (
	"fmt"

	"github.com/shopspring/decimal"

	"chain-dashboard/internal/chain"
)

var (
	weiPerGwei = decimal.New(1, 9)
	hundred    = decimal.NewFromInt(100)
)

// DeriveBaseFeeSeries converts each block's base fee from wei to Gwei.
func DeriveBaseFeeSeries(blocks []chain.Block) ([]chain.MetricPoint, error) {
	points := make([]chain.MetricPoint, 0, len(blocks))
	for _, block := range blocks {
		wei, err := parseQuantity(block, "baseFeePerGas", block.BaseFeePerGas)
		if err != nil {
			return nil, err
		}
		points = append(points, chain.MetricPoint{
			BlockNumber: block.Number,
			Value:       wei.Div(weiPerGwei).InexactFloat64(),
		})
	}
	return points, nil
}

// DeriveGasUsageSeries computes gasUsed/gasLimit as a percentage per block.
func DeriveGasUsageSeries(blocks []chain.Block) ([]chain.MetricPoint, error) {
	points := make([]chain.MetricPoint, 0, len(blocks))
	for _, block := range blocks {
		used, err := parseQuantity(block, "gasUsed", block.GasUsed)
		if err != nil {
			return nil, err
		}
		limit, err := parseQuantity(block, "gasLimit", block.GasLimit)
		if err != nil {
			return nil, err
		}
		if !limit.IsPositive() {
			return nil, fmt.Errorf("%w: block %d gasLimit must be positive", chain.ErrMalformedBlockData, block.Number)
		}
		points = append(points, chain.MetricPoint{
			BlockNumber: block.Number,
			Value:       used.Div(limit).Mul(hundred).InexactFloat64(),
		})
	}
	return points, nil
}
