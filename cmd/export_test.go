package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestExportCmd_WritesWorkbook(t *testing.T) {
	cfg = testConfig(t)
	ctx := context.Background()

	st, err := openStore(ctx)
	require.NoError(t, err)
	run, err := st.CreateRun(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, st.AppendRecord(ctx, model.OutputRecord{
		RunID:    run.ID,
		Company:  model.Company{Name: "Acme AB", Domain: "acme.se", Category: model.CategoryStartupSmall},
		Contacts: []model.Contact{{Name: "Anna Lind", Title: "CTO"}},
		Strategy: "Lead with MLOps.",
	}))
	require.NoError(t, st.Close())

	exportRunID = run.ID
	exportOut = filepath.Join(t.TempDir(), "leads.xlsx")
	exportCmd.SetContext(ctx)
	require.NoError(t, exportCmd.RunE(exportCmd, nil))

	f, err := xlsx.OpenFile(exportOut)
	require.NoError(t, err)
	sheet, ok := f.Sheet[export.LeadsSheet]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Acme AB", sheet.Rows[1].Cells[1].String())
}

func TestExportCmd_UnknownRun(t *testing.T) {
	cfg = testConfig(t)
	exportRunID = "missing"
	exportOut = filepath.Join(t.TempDir(), "leads.xlsx")
	exportCmd.SetContext(context.Background())

	err := exportCmd.RunE(exportCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
