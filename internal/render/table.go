package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"chain-dashboard/internal/chain"
)

// TableWriter prints snapshots as an aligned console table.
type TableWriter struct {
	out io.Writer
}

// NewTableWriter builds a console table writer on out.
func NewTableWriter(out io.Writer) *TableWriter {
	return &TableWriter{out: out}
}

// Publish prints the window followed by one status line per panel.
func (t *TableWriter) Publish(ctx context.Context, snap chain.Snapshot) error {
	if snap.Err != nil {
		_, err := fmt.Fprintf(t.out, "Failed to load blockchain data: %s\n", sanitizeInline(snap.Err.Error()))
		return err
	}
	if len(snap.Blocks) == 0 {
		_, err := fmt.Fprintln(t.out, "No blockchain data available.")
		return err
	}

	fees := pointIndex(snap.Panel(chain.SeriesBaseFee))
	usage := pointIndex(snap.Panel(chain.SeriesGasUsage))
	volume := pointIndex(snap.Panel(chain.SeriesVolume))

	writer := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Refreshed %s (head %d)\n", snap.TakenAt.UTC().Format(time.RFC3339), snap.Head())
	fmt.Fprintln(writer, "Block\tBase Fee (Gwei)\tGas Usage (%)\tTransfer Volume")
	for _, block := range snap.Blocks {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n",
			block.Number,
			tableValue(fees, block.Number, 3),
			tableValue(usage, block.Number, 2),
			tableValue(volume, block.Number, 2),
		)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	for _, series := range chain.AllSeries {
		panel := snap.Panel(series)
		line := fmt.Sprintf("%s: %s", series.Title(), panel.State)
		if panel.Err != nil {
			line += " (" + sanitizeInline(panel.Err.Error()) + ")"
		}
		if _, err := fmt.Fprintln(t.out, line); err != nil {
			return err
		}
	}
	return nil
}

func tableValue(index map[uint64]float64, block uint64, places int) string {
	v, ok := index[block]
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', places, 64)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
