// Package importer reads transaction batches from CSV exports.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fjacquet/subsync/internal/currencyutils"
	"fjacquet/subsync/internal/dateutils"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
	"fjacquet/subsync/internal/syncerror"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// Row is one line of a transaction export. Positive amounts are charges.
type Row struct {
	ID           string `csv:"id"`
	ProviderID   string `csv:"provider_id"`
	MerchantName string `csv:"merchant_name"`
	Name         string `csv:"name"`
	Amount       string `csv:"amount"`
	Date         string `csv:"date"`
}

// Importer converts CSV exports into transaction batches.
type Importer struct {
	delimiter rune
	logger    logging.Logger
}

// New creates an Importer for the given field delimiter.
func New(delimiter rune, logger logging.Logger) *Importer {
	if delimiter == 0 {
		delimiter = ','
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Importer{delimiter: delimiter, logger: logger}
}

// ReadFile reads the transactions of the CSV file at path.
func (i *Importer) ReadFile(path string) ([]models.Transaction, error) {
	logger := i.logger.WithField(logging.FieldInputFile, path)
	logger.Info("Reading transaction file")

	file, err := os.Open(path) // #nosec G304 -- path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("error opening transaction file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	txs, err := i.Read(file)
	if err != nil {
		return nil, err
	}
	logger.Info("Successfully read transactions", logging.F(logging.FieldCount, len(txs)))
	return txs, nil
}

// Read parses CSV rows from r. A row with an unparsable amount or date fails
// the whole import with an *syncerror.InputError naming the row. A row without
// an id gets a generated one, which also stands in for a missing provider id.
func (i *Importer) Read(r io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(r)
	reader.Comma = i.delimiter

	var rows []*Row
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []models.Transaction{}, nil
		}
		return nil, fmt.Errorf("error parsing transaction CSV: %w", err)
	}

	txs := make([]models.Transaction, 0, len(rows))
	for n, row := range rows {
		if isBlank(row) {
			continue
		}
		tx, err := toTransaction(row)
		if err != nil {
			// Row numbers count the header as line 1.
			return nil, &syncerror.InputError{
				Field:  fmt.Sprintf("line %d", n+2),
				Reason: err.Error(),
			}
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func toTransaction(row *Row) (models.Transaction, error) {
	amount, err := currencyutils.ParseAmount(row.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	date, err := dateutils.ParseDate(row.Date)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("date: %w", err)
	}

	id := strings.TrimSpace(row.ID)
	if id == "" {
		id = uuid.NewString()
	}
	providerID := strings.TrimSpace(row.ProviderID)
	if providerID == "" {
		providerID = id
	}

	// Descriptors are kept verbatim; they form the merchant key.
	return models.Transaction{
		ID:           id,
		ProviderID:   providerID,
		MerchantName: row.MerchantName,
		Name:         row.Name,
		Amount:       amount,
		Date:         date,
	}, nil
}

func isBlank(row *Row) bool {
	return row.ID == "" && row.ProviderID == "" && row.MerchantName == "" &&
		row.Name == "" && row.Amount == "" && row.Date == ""
}

// FilterWindow keeps the transactions dated within the lookback window of
// days ending on reference. A non-positive days value keeps everything.
func FilterWindow(txs []models.Transaction, reference time.Time, days int) []models.Transaction {
	if days <= 0 {
		return txs
	}
	cutoff := dateutils.LookbackCutoff(reference, days)
	kept := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if dateutils.InWindow(tx.Date, cutoff, reference) {
			kept = append(kept, tx)
		}
	}
	return kept
}
