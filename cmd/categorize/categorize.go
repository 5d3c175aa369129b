// Package categorize handles merchant categorization commands
package categorize

import (
	"fmt"

	"fjacquet/subsync/cmd/root"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/store"

	"github.com/spf13/cobra"
)

var (
	merchantKey string
	exportTable string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a merchant using the keyword tables",
	Long: `Categorize a merchant name using the category keyword table and show the
icon it would get. With --export-table the effective category table is written
to a YAML file that can be edited and used as tables.categories_file.`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&merchantKey, "merchant", "m", "", "Merchant name to categorize")
	Cmd.Flags().StringVar(&exportTable, "export-table", "", "Write the effective category table to this YAML file")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	if merchantKey == "" && exportTable == "" {
		return fmt.Errorf("either --merchant or --export-table is required")
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
	classifier := c.GetClassifier()

	if exportTable != "" {
		tables := store.NewTableStore(exportTable, "", c.GetLogger())
		if err := tables.SaveCategories(classifier.Table()); err != nil {
			return err
		}
		c.GetLogger().Info("Category table exported", logging.F(logging.FieldOutputFile, exportTable))
	}

	if merchantKey != "" {
		category, keyword, found := classifier.Match(merchantKey)
		if !found {
			category = classifier.Categorize(merchantKey)
			keyword = "-"
		}
		glyph := c.GetIconResolver().Resolve(merchantKey, category)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Merchant: %s\n", merchantKey)
		fmt.Fprintf(out, "Category: %s\n", category)
		fmt.Fprintf(out, "Keyword:  %s\n", keyword)
		fmt.Fprintf(out, "Icon:     %s\n", glyph)
	}
	return nil
}
