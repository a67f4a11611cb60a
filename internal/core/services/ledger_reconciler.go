package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
)

// ErrImportedPayment is returned when deleting a payment that came from the accounting system.
var ErrImportedPayment = errors.New("payment was imported from the accounting system and must be removed there")

// ledgerReconciler is the only writer of amount_paid. Every path locks the
// row, changes it through domain.LedgerEntry and recomputes status in the
// same transaction.
type ledgerReconciler struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryWithTx
}

// NewLedgerReconciler creates the reconciler used by both the puller and the payment API.
func NewLedgerReconciler(ledgerRepo portsrepo.LedgerRepositoryWithTx) *ledgerReconciler {
	return &ledgerReconciler{ledgerRepo: ledgerRepo}
}

var (
	_ portssvc.LedgerReconcilerSvc = (*ledgerReconciler)(nil)
	_ portssvc.PaymentSvc          = (*ledgerReconciler)(nil)
)

// MirrorDocument implements portssvc.LedgerReconcilerSvc.
func (s *ledgerReconciler) MirrorDocument(ctx context.Context, snapshot domain.LedgerEntry, today time.Time) (bool, error) {
	var created bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		created = false
		entry, err := s.ledgerRepo.FindLedgerEntryByExternalIDForUpdate(ctx, tx, snapshot.TenantID, snapshot.Kind, snapshot.ExternalID)
		if errors.Is(err, apperrors.ErrNotFound) {
			fresh := snapshot
			fresh.EntryID = uuid.NewString()
			fresh.AuditFields = domain.NewAuditFields(time.Now().UTC(), domain.SystemUserID)
			if mergeErr := fresh.MergeExternal(snapshot, today); mergeErr != nil {
				return s.documentMismatch(snapshot, fresh.EntryID, mergeErr)
			}
			inserted, insertErr := s.ledgerRepo.InsertLedgerEntryInTx(ctx, tx, fresh)
			if insertErr != nil || inserted {
				created = inserted
				return insertErr
			}
			// lost an insert race; merge into the row that won
			entry, err = s.ledgerRepo.FindLedgerEntryByExternalIDForUpdate(ctx, tx, snapshot.TenantID, snapshot.Kind, snapshot.ExternalID)
		}
		if err != nil {
			return err
		}

		if err := entry.MergeExternal(snapshot, today); err != nil {
			return s.documentMismatch(snapshot, entry.EntryID, err)
		}
		entry.Touch(time.Now().UTC(), domain.SystemUserID)
		return s.ledgerRepo.UpdateLedgerEntryInTx(ctx, tx, *entry)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *ledgerReconciler) documentMismatch(snapshot domain.LedgerEntry, entryID string, err error) error {
	return &apperrors.ReconciliationError{
		TenantID:         snapshot.TenantID,
		LedgerEntryID:    entryID,
		LinkedExternalID: snapshot.ExternalID,
		Amount:           snapshot.Amount,
		Err:              err,
	}
}

// ApplyExternalPayment implements portssvc.LedgerReconcilerSvc.
func (s *ledgerReconciler) ApplyExternalPayment(ctx context.Context, tenantID string, payment domain.ExternalPayment, today time.Time) (portssvc.ApplyOutcome, error) {
	if !payment.Amount.IsPositive() {
		return "", fmt.Errorf("%w: %s", domain.ErrNonPositiveAmount, payment.Amount)
	}

	if _, err := s.ledgerRepo.FindPaymentByExternalID(ctx, tenantID, payment.ExternalID); err == nil {
		return portssvc.OutcomeAlreadyApplied, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("lookup payment %s: %w", payment.ExternalID, err)
	}

	target, err := s.ledgerRepo.FindLedgerEntryByExternalID(ctx, tenantID, payment.Kind, payment.LinkedExternalID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return portssvc.OutcomeUnresolved, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s %s: %w", payment.Kind, payment.LinkedExternalID, err)
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		entry, err := s.ledgerRepo.FindLedgerEntryForUpdate(ctx, tx, payment.Kind, target.EntryID)
		if err != nil {
			return err
		}
		if err := entry.ApplyExternalPayment(payment.Amount, today); err != nil {
			return &apperrors.ReconciliationError{
				TenantID:          tenantID,
				ExternalPaymentID: payment.ExternalID,
				LedgerEntryID:     entry.EntryID,
				LinkedExternalID:  payment.LinkedExternalID,
				Amount:            payment.Amount,
				Err:               err,
			}
		}

		pt := domain.PaymentTransaction{
			PaymentID:         uuid.NewString(),
			TenantID:          tenantID,
			Amount:            payment.Amount,
			PaymentDate:       payment.TxnDate,
			Method:            payment.Method,
			Reference:         payment.Reference,
			Source:            domain.PaymentExternal,
			ExternalPaymentID: payment.ExternalID,
			CreatedAt:         time.Now().UTC(),
			CreatedBy:         domain.SystemUserID,
		}
		setTarget(&pt, payment.Kind, entry.EntryID)

		inserted, err := s.ledgerRepo.InsertPaymentInTx(ctx, tx, pt)
		if err != nil {
			return err
		}
		if !inserted {
			return errAlreadyApplied
		}
		entry.Touch(time.Now().UTC(), domain.SystemUserID)
		return s.ledgerRepo.UpdateLedgerEntryInTx(ctx, tx, *entry)
	})
	if errors.Is(err, errAlreadyApplied) {
		return portssvc.OutcomeAlreadyApplied, nil
	}
	if err != nil {
		return "", err
	}

	s.LogDebug(ctx, "External payment recorded",
		slog.String("external_payment_id", payment.ExternalID),
		slog.String("ledger_entry_id", target.EntryID))
	return portssvc.OutcomeApplied, nil
}

// errAlreadyApplied rolls back a transaction that lost the insert race.
var errAlreadyApplied = errors.New("payment already applied")

// RecordPayment implements portssvc.PaymentSvc.
func (s *ledgerReconciler) RecordPayment(ctx context.Context, tenantID string, req dto.RecordPaymentRequest, userID string) (*domain.PaymentTransaction, *domain.LedgerEntry, error) {
	now := time.Now().UTC()
	pt := domain.PaymentTransaction{
		PaymentID:    uuid.NewString(),
		TenantID:     tenantID,
		ReceivableID: req.ReceivableID,
		PayableID:    req.PayableID,
		Amount:       req.Amount,
		PaymentDate:  req.PaymentDate,
		Method:       req.Method,
		Reference:    req.Reference,
		Source:       domain.PaymentManual,
		CreatedAt:    now,
		CreatedBy:    userID,
	}
	if err := pt.Validate(); err != nil {
		return nil, nil, apperrors.NewValidationError(err.Error())
	}
	kind, entryID, _ := pt.Target()

	var updated *domain.LedgerEntry
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		entry, err := s.lockTenantEntry(ctx, tx, tenantID, kind, entryID)
		if err != nil {
			return err
		}
		if err := entry.ApplyPayment(pt.Amount, now); err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if _, err := s.ledgerRepo.InsertPaymentInTx(ctx, tx, pt); err != nil {
			return err
		}
		entry.Touch(now, userID)
		if err := s.ledgerRepo.UpdateLedgerEntryInTx(ctx, tx, *entry); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.LogInfo(ctx, "Payment recorded",
		slog.String("payment_id", pt.PaymentID),
		slog.String("ledger_entry_id", entryID),
		slog.String("status", string(updated.Status)),
		slog.String("user_id", userID))
	return &pt, updated, nil
}

// DeletePayment implements portssvc.PaymentSvc.
func (s *ledgerReconciler) DeletePayment(ctx context.Context, tenantID, paymentID, userID string) (*domain.LedgerEntry, error) {
	var updated *domain.LedgerEntry
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		payment, err := s.ledgerRepo.FindPaymentForUpdate(ctx, tx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if payment.Source == domain.PaymentExternal {
			return apperrors.NewValidationError(ErrImportedPayment.Error())
		}
		kind, entryID, err := payment.Target()
		if err != nil {
			return err
		}

		entry, err := s.lockTenantEntry(ctx, tx, tenantID, kind, entryID)
		if err != nil {
			return err
		}
		if err := entry.ReversePayment(payment.Amount, time.Now().UTC()); err != nil {
			return err
		}
		if err := s.ledgerRepo.DeletePaymentInTx(ctx, tx, paymentID); err != nil {
			return err
		}
		entry.Touch(time.Now().UTC(), userID)
		if err := s.ledgerRepo.UpdateLedgerEntryInTx(ctx, tx, *entry); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Payment deleted", slog.String("payment_id", paymentID), slog.String("user_id", userID))
	return updated, nil
}

// RefreshOverdue implements portssvc.PaymentSvc.
func (s *ledgerReconciler) RefreshOverdue(ctx context.Context, tenantID string, today time.Time) (int64, error) {
	n, err := s.ledgerRepo.RefreshOverdueStatuses(ctx, tenantID, domain.DateOnly(today))
	if err != nil {
		s.LogError(ctx, err, "Failed to refresh overdue statuses", slog.String("tenant_id", tenantID))
		return 0, err
	}
	s.LogInfo(ctx, "Overdue statuses refreshed", slog.String("tenant_id", tenantID), slog.Int64("updated", n))
	return n, nil
}

func (s *ledgerReconciler) lockTenantEntry(ctx context.Context, tx pgx.Tx, tenantID string, kind domain.LedgerKind, entryID string) (*domain.LedgerEntry, error) {
	entry, err := s.ledgerRepo.FindLedgerEntryForUpdate(ctx, tx, kind, entryID)
	if err != nil {
		return nil, err
	}
	if entry.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s %s not found", kind, entryID))
	}
	return entry, nil
}

// inTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *ledgerReconciler) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.ledgerRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := s.ledgerRepo.Rollback(ctx, tx); rbErr != nil {
			s.LogError(ctx, rbErr, "Failed to rollback ledger transaction")
		}
		return err
	}
	if err := s.ledgerRepo.Commit(ctx, tx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func setTarget(pt *domain.PaymentTransaction, kind domain.LedgerKind, entryID string) {
	if kind == domain.Payable {
		pt.PayableID = entryID
		return
	}
	pt.ReceivableID = entryID
}
