package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeriveStatus(t *testing.T) {
	today := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	tests := []struct {
		name       string
		amount     string
		amountPaid string
		dueDate    time.Time
		want       domain.LedgerStatus
	}{
		{"fully paid", "100", "100", yesterday, domain.StatusPaid},
		{"overpaid still paid", "100", "120", yesterday, domain.StatusPaid},
		{"partial beats overdue", "100", "0.01", yesterday, domain.StatusPartial},
		{"overdue", "100", "0", yesterday, domain.StatusOverdue},
		{"due today is not overdue", "100", "0", today.Add(-9 * time.Hour), domain.StatusOpen},
		{"open", "100", "0", tomorrow, domain.StatusOpen},
		{"no due date", "100", "0", time.Time{}, domain.StatusOpen},
		{"zero amount is paid", "0", "0", yesterday, domain.StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.DeriveStatus(dec(tt.amount), dec(tt.amountPaid), tt.dueDate, today)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveStatus_IsPure(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	due := today.AddDate(0, 0, -3)
	first := domain.DeriveStatus(dec("50"), dec("10"), due, today)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, domain.DeriveStatus(dec("50"), dec("10"), due, today))
	}
}

func TestLedgerEntry_ApplyPayment(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	entry := domain.LedgerEntry{Amount: dec("100"), AmountPaid: decimal.Zero, DueDate: today.AddDate(0, 0, -1)}
	entry.Recompute(today)
	require.Equal(t, domain.StatusOverdue, entry.Status)

	require.NoError(t, entry.ApplyPayment(dec("40"), today))
	assert.True(t, entry.AmountPaid.Equal(dec("40")))
	assert.Equal(t, domain.StatusPartial, entry.Status)

	require.NoError(t, entry.ApplyPayment(dec("60"), today))
	assert.Equal(t, domain.StatusPaid, entry.Status)

	err := entry.ApplyPayment(dec("0.01"), today)
	assert.ErrorIs(t, err, domain.ErrOverpayment)
	assert.True(t, entry.AmountPaid.Equal(dec("100")), "refused payment must not mutate")

	assert.ErrorIs(t, entry.ApplyPayment(decimal.Zero, today), domain.ErrNonPositiveAmount)
}

func TestLedgerEntry_ReversePayment_ClampsAtZero(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	entry := domain.LedgerEntry{Amount: dec("100"), AmountPaid: dec("30"), ManualPaid: dec("30"), DueDate: today.AddDate(0, 0, 10)}

	require.NoError(t, entry.ReversePayment(dec("50"), today))
	assert.True(t, entry.AmountPaid.IsZero())
	assert.Equal(t, domain.StatusOpen, entry.Status)
}

func TestLedgerEntry_ReversePayment_KeepsExternalPart(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	entry := domain.LedgerEntry{Amount: dec("100"), AmountPaid: dec("70"), ManualPaid: dec("20"), SnapshotPaid: dec("50"), DueDate: today.AddDate(0, 0, 10)}

	require.NoError(t, entry.ReversePayment(dec("20"), today))
	assert.True(t, entry.AmountPaid.Equal(dec("50")))
	assert.Equal(t, domain.StatusPartial, entry.Status)
}

func TestLedgerEntry_AmountInvariantHolds(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	entry := domain.LedgerEntry{Amount: dec("75"), AmountPaid: decimal.Zero}
	steps := []struct {
		op     string
		amount string
	}{
		{"manual", "20"}, {"external", "30"}, {"manual", "60"}, {"reverse", "50"}, {"snapshot", "40"},
		{"manual", "45"}, {"reverse", "200"}, {"external", "75"}, {"snapshot", "75"}, {"manual", "1"},
	}
	for _, s := range steps {
		switch s.op {
		case "manual":
			_ = entry.ApplyPayment(dec(s.amount), today)
		case "external":
			_ = entry.ApplyExternalPayment(dec(s.amount), today)
		case "reverse":
			_ = entry.ReversePayment(dec(s.amount), today)
		case "snapshot":
			_ = entry.MergeExternal(domain.LedgerEntry{Amount: entry.Amount, SnapshotPaid: dec(s.amount)}, today)
		}
		assert.False(t, entry.AmountPaid.IsNegative())
		assert.True(t, entry.AmountPaid.LessThanOrEqual(entry.Amount))
		assert.True(t, entry.AmountPaid.Equal(entry.ManualPaid.Add(decimal.Max(entry.SnapshotPaid, entry.ExternalApplied))))
		assert.Equal(t, domain.DeriveStatus(entry.Amount, entry.AmountPaid, entry.DueDate, today), entry.Status)
	}
}

func TestLedgerEntry_ExternalPaymentAfterSnapshotCountsOnce(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	entry := domain.LedgerEntry{Amount: dec("100"), DueDate: today.AddDate(0, 0, 5)}

	// snapshot already shows the 50 paid
	require.NoError(t, entry.MergeExternal(domain.LedgerEntry{Amount: dec("100"), SnapshotPaid: dec("50"), DueDate: entry.DueDate}, today))
	require.True(t, entry.AmountPaid.Equal(dec("50")))

	// the same 50 pulled as a payment in a later run
	require.NoError(t, entry.ApplyExternalPayment(dec("50"), today))
	assert.True(t, entry.AmountPaid.Equal(dec("50")))
	assert.Equal(t, domain.StatusPartial, entry.Status)

	// a second, new payment moves past the snapshot
	require.NoError(t, entry.ApplyExternalPayment(dec("30"), today))
	assert.True(t, entry.AmountPaid.Equal(dec("80")))
}

func TestLedgerEntry_MergeExternal(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	local := domain.LedgerEntry{
		EntryID:         "ar-1",
		CompanyID:       "co-1",
		Amount:          dec("100"),
		AmountPaid:      dec("60"),
		ExternalApplied: dec("60"),
		DueDate:         today.AddDate(0, 0, 5),
		ExternalID:      "130",
	}

	t.Run("older snapshot does not undo pulled payments", func(t *testing.T) {
		entry := local
		require.NoError(t, entry.MergeExternal(domain.LedgerEntry{Amount: dec("100"), SnapshotPaid: dec("40"), DueDate: local.DueDate, DocNumber: "1001"}, today))
		assert.True(t, dec("60").Equal(entry.AmountPaid))
		assert.Equal(t, domain.StatusPartial, entry.Status)
		assert.Equal(t, "1001", entry.DocNumber)
		assert.Equal(t, "co-1", entry.CompanyID)
		assert.Equal(t, "ar-1", entry.EntryID)
	})

	t.Run("newer snapshot moves amount paid forward", func(t *testing.T) {
		entry := local
		require.NoError(t, entry.MergeExternal(domain.LedgerEntry{Amount: dec("100"), SnapshotPaid: dec("100"), DueDate: local.DueDate}, today))
		assert.True(t, dec("100").Equal(entry.AmountPaid))
		assert.Equal(t, domain.StatusPaid, entry.Status)
	})

	t.Run("manual payments stay on top of the snapshot", func(t *testing.T) {
		entry := local
		entry.ManualPaid = dec("10")
		entry.AmountPaid = dec("70")
		require.NoError(t, entry.MergeExternal(domain.LedgerEntry{Amount: dec("100"), SnapshotPaid: dec("80"), DueDate: local.DueDate}, today))
		assert.True(t, dec("90").Equal(entry.AmountPaid))
	})

	t.Run("amount below paid is refused without mutation", func(t *testing.T) {
		entry := local
		err := entry.MergeExternal(domain.LedgerEntry{Amount: dec("50"), SnapshotPaid: dec("10"), DueDate: local.DueDate, DocNumber: "changed"}, today)
		assert.ErrorIs(t, err, domain.ErrAmountBelowPaid)
		assert.Equal(t, local, entry)
	})
}
