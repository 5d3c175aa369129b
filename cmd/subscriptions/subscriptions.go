// Package subscriptions holds the commands that manage stored subscriptions.
package subscriptions

import (
	"fmt"
	"time"

	"fjacquet/subsync/cmd/root"
	"fjacquet/subsync/internal/container"
	"fjacquet/subsync/internal/currencyutils"
	"fjacquet/subsync/internal/dateutils"
	isubs "fjacquet/subsync/internal/subscriptions"

	"github.com/spf13/cobra"
)

var (
	addName     string
	addAmount   string
	addCycle    string
	addCategory string
	addIcon     string
	addStatus   string
	addNextDate string

	cancelID      string
	cancelNotes   string
	cancelContact string

	// containerOptions lets tests inject a shared store across invocations.
	containerOptions []container.Option
)

// Cmd represents the subscriptions command
var Cmd = &cobra.Command{
	Use:   "subscriptions",
	Short: "Manage stored subscriptions",
	Long: `Manage the subscriptions stored for an account holder: list the active
ones, add one by hand, and request or list cancellations.

Subscriptions are kept in store.path (default ~/.subsync/subscriptions.yaml)
unless store.driver selects postgres, or memory for throwaway runs.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active subscriptions, newest first",
	RunE:  listFunc,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a subscription by hand",
	RunE:  addFunc,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Request the cancellation of a subscription",
	RunE:  cancelFunc,
}

var cancellationsCmd = &cobra.Command{
	Use:   "cancellations",
	Short: "List cancellation requests, newest first",
	RunE:  cancellationsFunc,
}

func init() {
	addCmd.Flags().StringVarP(&addName, "name", "n", "", "Subscription name")
	addCmd.Flags().StringVarP(&addAmount, "amount", "a", "", "Amount per billing cycle")
	addCmd.Flags().StringVar(&addCycle, "cycle", "", "Billing cycle: monthly, yearly or weekly (default monthly)")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category (default: derived from the name)")
	addCmd.Flags().StringVar(&addIcon, "icon", "", "Icon (default: derived from the name and category)")
	addCmd.Flags().StringVar(&addStatus, "status", "", "Status: active, paused or cancelled (default active)")
	addCmd.Flags().StringVar(&addNextDate, "next-billing-date", "", "Next billing date")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("amount")

	cancelCmd.Flags().StringVar(&cancelID, "id", "", "Subscription id")
	cancelCmd.Flags().StringVar(&cancelNotes, "notes", "", "Notes for the cancellation")
	cancelCmd.Flags().StringVar(&cancelContact, "contact", "", "Contact information")
	_ = cancelCmd.MarkFlagRequired("id")

	Cmd.AddCommand(listCmd, addCmd, cancelCmd, cancellationsCmd)
}

// withService runs fn with a wired container and the --holder value.
func withService(cmd *cobra.Command, fn func(c *container.Container, svc *isubs.Service, holder string) error) error {
	holder, err := root.RequireHolder()
	if err != nil {
		return err
	}
	c, err := root.NewContainer(cmd.Context(), containerOptions...)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			root.Log.WithError(err).Warn("Failed to close container")
		}
	}()
	return fn(c, c.GetSubscriptions(), holder)
}

func listFunc(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(c *container.Container, svc *isubs.Service, holder string) error {
		subs, err := svc.ListActive(cmd.Context(), holder)
		if err != nil {
			return err
		}
		w, closeOutput, err := root.OutputWriter(cmd)
		if err != nil {
			return err
		}
		if err := c.GetReportGenerator().WriteSubscriptions(w, subs, root.SharedFlags.Format); err != nil {
			_ = closeOutput()
			return err
		}
		return closeOutput()
	})
}

func addFunc(cmd *cobra.Command, args []string) error {
	amount, err := currencyutils.ParseAmount(addAmount)
	if err != nil {
		return fmt.Errorf("invalid --amount: %w", err)
	}
	var next *time.Time
	if addNextDate != "" {
		d, err := dateutils.ParseDate(addNextDate)
		if err != nil {
			return fmt.Errorf("invalid --next-billing-date: %w", err)
		}
		next = &d
	}

	return withService(cmd, func(c *container.Container, svc *isubs.Service, holder string) error {
		sub, err := svc.Add(cmd.Context(), holder, isubs.AddRequest{
			Name:            addName,
			Amount:          amount,
			BillingCycle:    addCycle,
			Category:        addCategory,
			Icon:            addIcon,
			Status:          addStatus,
			NextBillingDate: next,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s, %s %s) with id %s\n",
			sub.Icon, sub.Name, sub.Category, currencyutils.FormatAmount(sub.Amount, ""), sub.BillingCycle, sub.ID)
		return nil
	})
}

func cancelFunc(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(c *container.Container, svc *isubs.Service, holder string) error {
		req, err := svc.RequestCancellation(cmd.Context(), holder, isubs.CancellationInput{
			SubscriptionID: cancelID,
			Notes:          cancelNotes,
			Contact:        cancelContact,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cancellation request %s is %s\n", req.ID, req.Status)
		return nil
	})
}

func cancellationsFunc(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(c *container.Container, svc *isubs.Service, holder string) error {
		views, err := svc.ListCancellations(cmd.Context(), holder)
		if err != nil {
			return err
		}
		w, closeOutput, err := root.OutputWriter(cmd)
		if err != nil {
			return err
		}
		if err := c.GetReportGenerator().WriteCancellations(w, views, root.SharedFlags.Format); err != nil {
			_ = closeOutput()
			return err
		}
		return closeOutput()
	})
}
