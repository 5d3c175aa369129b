// Package detect runs a subscription detection pass over a transaction file.
package detect

import (
	"fmt"
	"time"

	"fjacquet/subsync/cmd/root"
	"fjacquet/subsync/internal/dateutils"
	"fjacquet/subsync/internal/fileutils"
	"fjacquet/subsync/internal/importer"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/syncerror"

	"github.com/spf13/cobra"
)

var (
	inputFile     string
	referenceDate string
	lookbackDays  int
)

// Cmd represents the detect command
var Cmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect recurring subscriptions in a transaction CSV",
	Long: `Detect recurring subscriptions in a transaction CSV export.

Transactions older than the lookback window are ignored. Every merchant
charged at least twice becomes a subscription for the account holder,
unless one was already recorded for that merchant.`,
	RunE: detectFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Transaction CSV file")
	Cmd.Flags().StringVar(&referenceDate, "reference-date", "", "End of the lookback window (default: today)")
	Cmd.Flags().IntVar(&lookbackDays, "lookback-days", -1, "Lookback window in days, 0 for no limit (default: from config)")
	_ = Cmd.MarkFlagRequired("input")
}

func detectFunc(cmd *cobra.Command, args []string) error {
	holder, err := root.RequireHolder()
	if err != nil {
		return err
	}

	if !fileutils.FileExists(inputFile) {
		return fmt.Errorf("input file not found: %s", inputFile)
	}

	reference := time.Now().UTC()
	if referenceDate != "" {
		if reference, err = dateutils.ParseDate(referenceDate); err != nil {
			return fmt.Errorf("invalid --reference-date: %w", err)
		}
	}

	c, err := root.NewContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			root.Log.WithError(err).Warn("Failed to close container")
		}
	}()

	days := lookbackDays
	if days < 0 {
		days = c.GetConfig().Detection.LookbackDays
	}

	txs, err := c.GetImporter().ReadFile(inputFile)
	if err != nil {
		return rejectedBatch(err)
	}
	windowed := importer.FilterWindow(txs, reference, days)
	c.GetLogger().Debug("Applied lookback window",
		logging.F("read", len(txs)),
		logging.F("kept", len(windowed)),
		logging.F("lookback_days", days),
		logging.F("reference_date", dateutils.ToISODate(reference)))

	result, err := c.GetSyncer().Run(cmd.Context(), holder, windowed)
	if err != nil {
		return rejectedBatch(err)
	}

	w, closeOutput, err := root.OutputWriter(cmd)
	if err != nil {
		return err
	}
	if err := c.GetReportGenerator().WriteRun(w, result, root.SharedFlags.Format); err != nil {
		_ = closeOutput()
		return err
	}
	if err := closeOutput(); err != nil {
		return err
	}

	if result.Partial() {
		return fmt.Errorf("%d of %d recurring merchants could not be saved", len(result.Failures), result.Detected)
	}
	return nil
}

// rejectedBatch marks input errors as a rejected batch, for which nothing
// was saved.
func rejectedBatch(err error) error {
	if syncerror.IsInputError(err) {
		return fmt.Errorf("transaction batch rejected, nothing was saved: %w", err)
	}
	return err
}
