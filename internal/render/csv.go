package render

import (
	"encoding/csv"
	"os"
	"strconv"

	"chain-dashboard/internal/chain"
)

var csvHeader = []string{"block_number", "base_fee_per_gas_wei", "gas_used", "gas_limit", "base_fee_gwei", "gas_usage_pct", "transfer_volume"}

func writeSnapshotCSV(path string, snap chain.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writeRecords(writer, snap); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func writeRecords(writer *csv.Writer, snap chain.Snapshot) error {
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	fees := pointIndex(snap.Panel(chain.SeriesBaseFee))
	usage := pointIndex(snap.Panel(chain.SeriesGasUsage))
	volume := pointIndex(snap.Panel(chain.SeriesVolume))

	for _, block := range snap.Blocks {
		record := []string{
			strconv.FormatUint(block.Number, 10),
			block.BaseFeePerGas,
			block.GasUsed,
			block.GasLimit,
			formatPoint(fees, block.Number),
			formatPoint(usage, block.Number),
			formatPoint(volume, block.Number),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// pointIndex maps block numbers to values for panels that carry points.
func pointIndex(panel chain.Panel) map[uint64]float64 {
	if panel.State != chain.StateReady && panel.State != chain.StateEmpty {
		return nil
	}
	index := make(map[uint64]float64, len(panel.Points))
	for _, p := range panel.Points {
		index[p.BlockNumber] = p.Value
	}
	return index
}

// formatPoint renders a value, or an empty cell when the series is unknown.
func formatPoint(index map[uint64]float64, block uint64) string {
	v, ok := index[block]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
