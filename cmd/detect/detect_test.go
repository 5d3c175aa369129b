package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/subsync/cmd/root"
	"fjacquet/subsync/internal/report"
	"fjacquet/subsync/internal/syncerror"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transactionsCSV = `id,provider_id,merchant_name,name,amount,date
t1,p-g1,Acme Gym,,45.00,2024-02-03
t2,p-g2,Acme Gym,,45.00,2024-03-03
t3,p-g3,Acme Gym,,47.00,2024-04-03
t4,p-o1,OneOff Store,,12.00,2024-04-05
t5,p-r1,Refunds Inc,,-20.00,2024-03-10
t6,p-r2,Refunds Inc,,-20.00,2024-04-10
t7,p-n0,Netflix,,15.99,2023-06-01
t8,p-n1,Netflix,,15.99,2024-04-01
`

func setup(t *testing.T, format string) (string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	chdir(t, dir)

	path := filepath.Join(dir, "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(transactionsCSV), 0600))

	savedFlags := root.SharedFlags
	savedCfg := root.Cfg
	t.Cleanup(func() {
		root.SharedFlags = savedFlags
		root.Cfg = savedCfg
		inputFile, referenceDate, lookbackDays = "", "", -1
	})
	root.SharedFlags = root.CommonFlags{Holder: "user-1", Format: format}
	require.NoError(t, root.LoadConfig())

	inputFile = path
	referenceDate = "2024-04-30"
	lookbackDays = -1

	var out bytes.Buffer
	return path, &out
}

func newCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd
}

func TestDetectCommand_Metadata(t *testing.T) {
	assert.Equal(t, "detect", Cmd.Use)
	assert.NotNil(t, Cmd.RunE)
	for _, name := range []string{"input", "reference-date", "lookback-days"} {
		assert.NotNil(t, Cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "i", Cmd.Flags().Lookup("input").Shorthand)
	assert.Equal(t, "-1", Cmd.Flags().Lookup("lookback-days").DefValue)
}

func TestDetect_JSONReport(t *testing.T) {
	_, out := setup(t, report.FormatJSON)

	require.NoError(t, detectFunc(newCmd(out), nil))

	var summary report.RunSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	// Netflix's first charge falls outside the 90-day window.
	assert.Equal(t, 7, summary.Transactions)
	assert.Equal(t, 1, summary.Detected)
	assert.Equal(t, 1, summary.Persisted)
	require.Len(t, summary.Created, 1)
	assert.Equal(t, "Acme Gym", summary.Created[0].Name)
	assert.Equal(t, "45.67", summary.Created[0].Amount.StringFixed(2))
	assert.Equal(t, "Health", summary.Created[0].Category)
	assert.Equal(t, "💪", summary.Created[0].Icon)
	assert.Equal(t, "p-g3", summary.Created[0].ProviderTransactionID)
}

func TestDetect_SecondRunFindsTrackedMerchants(t *testing.T) {
	_, out := setup(t, report.FormatJSON)
	require.NoError(t, detectFunc(newCmd(out), nil))

	out.Reset()
	require.NoError(t, detectFunc(newCmd(out), nil))

	var summary report.RunSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, 1, summary.Detected)
	assert.Equal(t, 0, summary.Persisted)
	assert.Equal(t, []string{"Acme Gym"}, summary.AlreadyTracked)
	assert.Empty(t, summary.Created)
}

func TestDetect_NoLookbackLimit(t *testing.T) {
	_, out := setup(t, report.FormatJSON)
	lookbackDays = 0

	require.NoError(t, detectFunc(newCmd(out), nil))

	var summary report.RunSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, 8, summary.Transactions)
	assert.Equal(t, 2, summary.Detected)
}

func TestDetect_OutputFile(t *testing.T) {
	_, out := setup(t, report.FormatCSV)
	target := filepath.Join(t.TempDir(), "reports", "run.csv")
	root.SharedFlags.Output = target

	require.NoError(t, detectFunc(newCmd(out), nil))
	assert.Empty(t, out.String())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Acme Gym")
}

func TestDetect_Errors(t *testing.T) {
	t.Run("missing holder", func(t *testing.T) {
		_, out := setup(t, report.FormatText)
		root.SharedFlags.Holder = ""
		assert.EqualError(t, detectFunc(newCmd(out), nil), "--holder is required")
	})
	t.Run("bad reference date", func(t *testing.T) {
		_, out := setup(t, report.FormatText)
		referenceDate = "soon"
		assert.ErrorContains(t, detectFunc(newCmd(out), nil), "invalid --reference-date")
	})
	t.Run("missing file", func(t *testing.T) {
		_, out := setup(t, report.FormatText)
		inputFile = filepath.Join(t.TempDir(), "missing.csv")
		assert.EqualError(t, detectFunc(newCmd(out), nil), "input file not found: "+inputFile)
	})
	t.Run("malformed row", func(t *testing.T) {
		path, out := setup(t, report.FormatText)
		require.NoError(t, os.WriteFile(path, []byte("id,merchant_name,amount,date\nt1,Netflix,abc,2024-04-01\n"), 0600))
		err := detectFunc(newCmd(out), nil)
		require.Error(t, err)
		assert.True(t, syncerror.IsInputError(err))
		assert.Contains(t, err.Error(), "transaction batch rejected, nothing was saved")
		assert.Contains(t, err.Error(), "line 2")
	})
}
