package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewise-tools/originate/internal/common"
	"github.com/tradewise-tools/originate/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testLedger(t *testing.T) (*model.MaterialLedger, []model.RejectedRow) {
	t.Helper()
	ledger, rejected, err := model.BuildLedger([]model.RawRow{
		{model.FieldDescription: "Leather upper", model.FieldCost: "12.50", model.FieldOriginCountry: "VN", model.FieldOriginating: "true"},
		{model.FieldDescription: "Rubber sole", model.FieldCost: "3.80", model.FieldOriginCountry: "CN", model.FieldHSCode: "6406.10"},
		{model.FieldDescription: "Broken row"},
	})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	return ledger, rejected
}

func testReport() *model.DeterminationReport {
	report := model.NewDeterminationReport()
	for i := 1; i <= model.StepCount; i++ {
		step := report.Step(i)
		step.Outcome = model.OutcomePassed
		step.Rationale = "checked"
	}
	report.TotalCost = decimal.RequireFromString("16.30")
	report.NonOriginatingCost = decimal.RequireFromString("3.80")
	report.NonOriginatingPercent = decimal.RequireFromString("23.31")
	report.Verdict = model.VerdictNonOriginating
	report.AppliedRule = &model.Rule{
		TradeAgreement: "EVFTA",
		HeadingStart:   "6401",
		HeadingEnd:     "6406",
		Threshold:      decimal.NewFromInt(10),
	}
	report.Warnings = []string{"incomplete data: 1 lines with unknown origin country"}
	return report
}

func TestSaveAnalysis_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	ledger, rejected := testLedger(t)
	report := testReport()

	session := &model.AnalysisSession{
		Filename:      "costing.csv",
		CreatedAt:     time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		Manufacturer:  "Hanoi Footwear",
		FinalHSCode:   "6403",
		Verdict:       report.Verdict,
		Reason:        "non-originating share exceeds the threshold",
		MissingFields: []string{"country_of_origin"},
		Completed:     true,
	}

	require.NoError(t, store.SaveAnalysis(ctx, session, ledger, rejected, report))
	require.NotZero(t, session.ID)

	loaded, loadedReport, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, session.Filename, loaded.Filename)
	assert.Equal(t, session.Manufacturer, loaded.Manufacturer)
	assert.Equal(t, session.FinalHSCode, loaded.FinalHSCode)
	assert.Equal(t, session.Verdict, loaded.Verdict)
	assert.Equal(t, session.MissingFields, loaded.MissingFields)
	assert.True(t, loaded.Completed)
	assert.True(t, session.CreatedAt.Equal(loaded.CreatedAt))

	assert.Equal(t, report.Verdict, loadedReport.Verdict)
	assert.True(t, report.TotalCost.Equal(loadedReport.TotalCost))
	assert.True(t, report.NonOriginatingCost.Equal(loadedReport.NonOriginatingCost))
	assert.True(t, report.NonOriginatingPercent.Equal(loadedReport.NonOriginatingPercent))
	assert.Equal(t, report.Warnings, loadedReport.Warnings)
	require.NotNil(t, loadedReport.AppliedRule)
	assert.True(t, report.AppliedRule.Threshold.Equal(loadedReport.AppliedRule.Threshold))

	for i := range report.Steps {
		assert.Equal(t, report.Steps[i].Name, loadedReport.Steps[i].Name)
		assert.Equal(t, report.Steps[i].Outcome, loadedReport.Steps[i].Outcome)
	}
}

func TestGetMaterials(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	ledger, rejected := testLedger(t)
	session := &model.AnalysisSession{
		Filename:  "costing.csv",
		CreatedAt: time.Now(),
		Verdict:   model.VerdictOriginating,
		Completed: true,
	}
	require.NoError(t, store.SaveAnalysis(ctx, session, ledger, rejected, testReport()))

	materials, err := store.GetMaterials(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, materials, 3)

	assert.Equal(t, "Leather upper", materials[0].Description)
	assert.True(t, materials[0].IsOriginating)
	assert.True(t, materials[0].Cost.Equal(decimal.RequireFromString("12.50")))
	assert.False(t, materials[0].Rejected)

	assert.Equal(t, "Rubber sole", materials[1].Description)
	assert.Equal(t, "6406.10", materials[1].HSCode)

	assert.True(t, materials[2].Rejected)
	assert.NotEmpty(t, materials[2].RejectReason)
}

func TestListSessions(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	ledger, rejected := testLedger(t)
	for _, name := range []string{"first.csv", "second.csv"} {
		session := &model.AnalysisSession{
			Filename:  name,
			CreatedAt: time.Now(),
			Verdict:   model.VerdictOriginating,
			Completed: true,
		}
		require.NoError(t, store.SaveAnalysis(ctx, session, ledger, rejected, testReport()))
	}

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// Newest first.
	assert.Equal(t, "second.csv", sessions[0].Filename)
	assert.Equal(t, "first.csv", sessions[1].Filename)
}

func TestGetSession_NotFound(t *testing.T) {
	store := createTestStorage(t)

	_, _, err := store.GetSession(context.Background(), 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	// Running migrations again must be a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}
