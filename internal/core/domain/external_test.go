package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestExternalStatus(t *testing.T) {
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	past := today.AddDate(0, 0, -5)
	future := today.AddDate(0, 0, 5)

	assert.Equal(t, domain.StatusPaid, domain.ExternalStatus(dec("100"), dec("0"), past, today))
	assert.Equal(t, domain.StatusPaid, domain.ExternalStatus(dec("100"), dec("-1"), future, today))
	assert.Equal(t, domain.StatusPartial, domain.ExternalStatus(dec("100"), dec("25"), past, today))
	assert.Equal(t, domain.StatusOverdue, domain.ExternalStatus(dec("100"), dec("100"), past, today))
	assert.Equal(t, domain.StatusOpen, domain.ExternalStatus(dec("100"), dec("100"), future, today))
}

func TestExternalInvoice_LedgerEntry(t *testing.T) {
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	inv := domain.ExternalInvoice{
		ExternalID:         "130",
		CustomerExternalID: "58",
		CustomerName:       "Acme",
		DocNumber:          "1042",
		DueDate:            today.AddDate(0, 0, 3),
		TotalAmount:        dec("250"),
		Balance:            dec("200"),
	}

	entry := inv.LedgerEntry("tenant-1", today)
	assert.Equal(t, domain.Receivable, entry.Kind)
	assert.True(t, entry.AmountPaid.Equal(dec("50")))
	assert.True(t, entry.SnapshotPaid.Equal(dec("50")))
	assert.True(t, entry.ManualPaid.IsZero())
	assert.Equal(t, domain.StatusPartial, entry.Status)
	assert.Equal(t, "130", entry.ExternalID)

	inv.Balance = dec("-20")
	credited := inv.LedgerEntry("tenant-1", today)
	assert.True(t, credited.AmountPaid.Equal(dec("250")), "credit balance caps at the total")
	assert.Equal(t, domain.StatusPaid, credited.Status)
}

func TestPaymentTransaction_Target(t *testing.T) {
	_, _, err := domain.PaymentTransaction{}.Target()
	assert.ErrorIs(t, err, domain.ErrPaymentTarget)

	_, _, err = domain.PaymentTransaction{ReceivableID: "a", PayableID: "b"}.Target()
	assert.ErrorIs(t, err, domain.ErrPaymentTarget)

	kind, id, err := domain.PaymentTransaction{PayableID: "ap-1"}.Target()
	assert.NoError(t, err)
	assert.Equal(t, domain.Payable, kind)
	assert.Equal(t, "ap-1", id)
}
