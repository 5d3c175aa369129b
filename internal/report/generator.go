// Package report renders detection run results and subscription listings.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"fjacquet/subsync/internal/currencyutils"
	"fjacquet/subsync/internal/dateutils"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/models"
	"fjacquet/subsync/internal/syncer"

	"github.com/gocarina/gocsv"
)

// Supported output formats
const (
	FormatText = "text"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ValidateFormat checks that format is one of the supported output formats.
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatCSV, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported report format: %s. Supported formats are 'text', 'csv', 'json'", format)
	}
}

// SubscriptionRow is the CSV form of a subscription.
type SubscriptionRow struct {
	ID              string `csv:"id"`
	Name            string `csv:"name"`
	MerchantKey     string `csv:"merchant_key"`
	Category        string `csv:"category"`
	Icon            string `csv:"icon"`
	Amount          string `csv:"amount"`
	BillingCycle    string `csv:"billing_cycle"`
	Status          string `csv:"status"`
	Source          string `csv:"source"`
	NextBillingDate string `csv:"next_billing_date"`
	CreatedAt       string `csv:"created_at"`
}

// CancellationRow is the CSV form of a cancellation request.
type CancellationRow struct {
	ID                 string `csv:"id"`
	SubscriptionID     string `csv:"subscription_id"`
	SubscriptionName   string `csv:"subscription_name"`
	SubscriptionAmount string `csv:"subscription_amount"`
	SubscriptionIcon   string `csv:"subscription_icon"`
	Status             string `csv:"status"`
	Notes              string `csv:"user_notes"`
	Contact            string `csv:"contact_info"`
	CreatedAt          string `csv:"created_at"`
}

// FailureSummary describes one merchant that could not be persisted.
type FailureSummary struct {
	MerchantKey string `json:"merchant_key"`
	Error       string `json:"error"`
}

// RunSummary is the JSON form of a detection run.
type RunSummary struct {
	HolderID       string                `json:"holder_id"`
	Transactions   int                   `json:"transactions"`
	Detected       int                   `json:"detected"`
	Persisted      int                   `json:"persisted"`
	AlreadyTracked []string              `json:"already_tracked"`
	Conflicts      []string              `json:"conflicts"`
	Failures       []FailureSummary      `json:"failures"`
	Created        []models.Subscription `json:"created"`
}

// Generator writes reports in text, CSV or JSON.
type Generator struct {
	delimiter rune
	logger    logging.Logger
}

// NewGenerator creates a Generator. The delimiter applies to CSV output.
func NewGenerator(delimiter rune, logger logging.Logger) *Generator {
	if delimiter == 0 {
		delimiter = ','
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Generator{delimiter: delimiter, logger: logger.WithField(logging.FieldComponent, "ReportGenerator")}
}

// Summarize converts a run result into its JSON form.
func Summarize(res *syncer.Result) RunSummary {
	summary := RunSummary{
		HolderID:       res.HolderID,
		Transactions:   res.Transactions,
		Detected:       res.Detected,
		Persisted:      res.Persisted(),
		AlreadyTracked: nonNil(res.AlreadyTracked),
		Conflicts:      nonNil(res.Conflicts),
		Failures:       make([]FailureSummary, 0, len(res.Failures)),
		Created:        res.Created,
	}
	for _, f := range res.Failures {
		summary.Failures = append(summary.Failures, FailureSummary{MerchantKey: f.MerchantKey, Error: f.Err.Error()})
	}
	return summary
}

// WriteRun renders a detection run. Text and JSON include the counts; CSV
// lists the created subscriptions only.
func (g *Generator) WriteRun(w io.Writer, res *syncer.Result, format string) error {
	switch format {
	case FormatJSON:
		return g.writeJSON(w, Summarize(res))
	case FormatCSV:
		return g.writeCSV(w, subscriptionRows(res.Created))
	case FormatText:
		summary := Summarize(res)
		fmt.Fprintf(w, "Transactions:    %d\n", summary.Transactions)
		fmt.Fprintf(w, "Detected:        %d\n", summary.Detected)
		fmt.Fprintf(w, "Persisted:       %d\n", summary.Persisted)
		fmt.Fprintf(w, "Already tracked: %d\n", len(summary.AlreadyTracked))
		fmt.Fprintf(w, "Failed:          %d\n", len(summary.Failures))
		for _, f := range summary.Failures {
			fmt.Fprintf(w, "  ! %s: %s\n", f.MerchantKey, f.Error)
		}
		if len(res.Created) > 0 {
			fmt.Fprintln(w)
			return g.writeSubscriptionTable(w, res.Created)
		}
		return nil
	default:
		return ValidateFormat(format)
	}
}

// WriteSubscriptions renders a subscription listing.
func (g *Generator) WriteSubscriptions(w io.Writer, subs []models.Subscription, format string) error {
	switch format {
	case FormatJSON:
		if subs == nil {
			subs = []models.Subscription{}
		}
		return g.writeJSON(w, subs)
	case FormatCSV:
		return g.writeCSV(w, subscriptionRows(subs))
	case FormatText:
		return g.writeSubscriptionTable(w, subs)
	default:
		return ValidateFormat(format)
	}
}

// WriteCancellations renders a cancellation request listing.
func (g *Generator) WriteCancellations(w io.Writer, views []models.CancellationView, format string) error {
	rows := make([]CancellationRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, CancellationRow{
			ID:                 v.ID,
			SubscriptionID:     v.SubscriptionID,
			SubscriptionName:   v.SubscriptionName,
			SubscriptionAmount: currencyutils.FormatAmount(v.SubscriptionAmount, ""),
			SubscriptionIcon:   v.SubscriptionIcon,
			Status:             v.Status,
			Notes:              v.Notes,
			Contact:            v.Contact,
			CreatedAt:          v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	switch format {
	case FormatJSON:
		if views == nil {
			views = []models.CancellationView{}
		}
		return g.writeJSON(w, views)
	case FormatCSV:
		return g.writeCSV(w, rows)
	case FormatText:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSUBSCRIPTION\tAMOUNT\tSTATUS\tCREATED")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\n", r.ID, r.SubscriptionIcon, r.SubscriptionName, r.SubscriptionAmount, r.Status, r.CreatedAt)
		}
		return tw.Flush()
	default:
		return ValidateFormat(format)
	}
}

func (g *Generator) writeSubscriptionTable(w io.Writer, subs []models.Subscription) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tAMOUNT\tCYCLE\tSTATUS")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Icon, s.Name, s.Category, currencyutils.FormatAmount(s.Amount, ""), s.BillingCycle, s.Status)
	}
	return tw.Flush()
}

func (g *Generator) writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return nil
}

func (g *Generator) writeCSV(w io.Writer, rows interface{}) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = g.delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		g.logger.WithError(err).Error("Failed to marshal CSV report")
		return fmt.Errorf("failed to write CSV report: %w", err)
	}
	return nil
}

func subscriptionRows(subs []models.Subscription) []SubscriptionRow {
	rows := make([]SubscriptionRow, 0, len(subs))
	for _, s := range subs {
		row := SubscriptionRow{
			ID:           s.ID,
			Name:         s.Name,
			MerchantKey:  s.MerchantKey,
			Category:     s.Category,
			Icon:         s.Icon,
			Amount:       currencyutils.FormatAmount(s.Amount, ""),
			BillingCycle: s.BillingCycle,
			Status:       s.Status,
			Source:       s.Source,
			CreatedAt:    s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if s.NextBillingDate != nil {
			row.NextBillingDate = dateutils.ToISODate(*s.NextBillingDate)
		}
		rows = append(rows, row)
	}
	return rows
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
