package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lpg-backend/internal/models"
	"lpg-backend/internal/pdf"
	"lpg-backend/internal/storage"
	"lpg-backend/internal/tenant"
	"lpg-backend/internal/timeutil"
)

// InvoiceStore persists invoices; the *WithLog methods pair the mutation with
// its audit record in one transaction.
type InvoiceStore interface {
	CreateWithLog(ctx context.Context, scope tenant.Scope, invoice *models.Invoice, logEntry *models.PaymentLogEntry) error
	Get(ctx context.Context, scope tenant.Scope, id int) (*models.InvoiceWithDetails, error)
	GetByBill(ctx context.Context, scope tenant.Scope, billID int) (*models.Invoice, error)
	List(ctx context.Context, scope tenant.Scope) ([]*models.InvoiceWithDetails, error)
	DeleteWithLog(ctx context.Context, scope tenant.Scope, id int, logEntry *models.PaymentLogEntry) error
}

// AuditStore appends standalone audit records (best-effort events).
type AuditStore interface {
	Create(ctx context.Context, scope tenant.Scope, entry *models.PaymentLogEntry) error
}

type InvoiceService struct {
	Invoices InvoiceStore
	Bills    BillStore
	Audit    AuditStore
	Archive  *storage.R2Client // nil when archival is not configured
	Log      *zap.Logger
}

func NewInvoiceService(invoices InvoiceStore, bills BillStore, audit AuditStore, archive *storage.R2Client, log *zap.Logger) *InvoiceService {
	return &InvoiceService{Invoices: invoices, Bills: bills, Audit: audit, Archive: archive, Log: log}
}

// GenerateInvoice issues an invoice for a bill, snapshotting its total due.
// The one-invoice-per-bill rule and the audit record are enforced inside the
// store transaction; issuing engages the financial lock on the bill.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, scope tenant.Scope, req *models.CreateInvoiceRequest) (*models.InvoiceWithDetails, error) {
	bill, err := s.Bills.Get(ctx, scope, req.BillID)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		BillID:      bill.ID,
		TotalAmount: bill.TotalDue,
		Notes:       req.Notes,
	}
	period := timeutil.FormatIST(bill.PeriodStart, timeutil.MonthLayout)
	logEntry := &models.PaymentLogEntry{
		Event:        models.EventInvoiceGenerated,
		CustomerID:   &bill.CustomerID,
		CustomerName: bill.CustomerName,
		PeriodStart:  &bill.PeriodStart,
		PeriodEnd:    &bill.PeriodEnd,
		Amount:       bill.TotalDue,
		Balance:      bill.Remaining,
		Details:      fmt.Sprintf("Invoice issued to %s for %s, amount ₹%.0f", bill.CustomerName, period, bill.TotalDue),
	}
	if err := s.Invoices.CreateWithLog(ctx, scope, invoice, logEntry); err != nil {
		return nil, err
	}

	s.Log.Info("invoice generated",
		zap.Int("bill_id", bill.ID),
		zap.String("invoice_number", invoice.InvoiceNumber))
	return s.Invoices.Get(ctx, scope, invoice.ID)
}

func (s *InvoiceService) GetInvoice(ctx context.Context, scope tenant.Scope, id int) (*models.InvoiceWithDetails, error) {
	return s.Invoices.Get(ctx, scope, id)
}

func (s *InvoiceService) ListInvoices(ctx context.Context, scope tenant.Scope) ([]*models.InvoiceWithDetails, error) {
	return s.Invoices.List(ctx, scope)
}

// DeleteInvoice removes an invoice, lifting the bill's financial lock.
// Existing payments are untouched.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, scope tenant.Scope, id int) error {
	inv, err := s.Invoices.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	period := timeutil.FormatIST(inv.PeriodStart, timeutil.MonthLayout)
	logEntry := &models.PaymentLogEntry{
		Event:        models.EventInvoiceDeleted,
		CustomerName: inv.CustomerName,
		CustomerCode: inv.CustomerCode,
		PeriodStart:  &inv.PeriodStart,
		PeriodEnd:    &inv.PeriodEnd,
		Amount:       inv.TotalAmount,
		Details:      fmt.Sprintf("Invoice %s (%s, %s) deleted; payment lock lifted", inv.InvoiceNumber, inv.CustomerName, period),
	}
	return s.Invoices.DeleteWithLog(ctx, scope, id, logEntry)
}

// RenderPDF renders the invoice document and, when archival is configured,
// stores a copy in R2. The INVOICE_DOWNLOADED audit entry and the archive
// upload are best-effort: neither failure blocks the download itself.
func (s *InvoiceService) RenderPDF(ctx context.Context, scope tenant.Scope, id int) ([]byte, string, error) {
	inv, err := s.Invoices.Get(ctx, scope, id)
	if err != nil {
		return nil, "", err
	}

	data, err := pdf.RenderInvoice(inv)
	if err != nil {
		return nil, "", err
	}

	logEntry := &models.PaymentLogEntry{
		Event:        models.EventInvoiceDownloaded,
		CustomerName: inv.CustomerName,
		CustomerCode: inv.CustomerCode,
		PeriodStart:  &inv.PeriodStart,
		PeriodEnd:    &inv.PeriodEnd,
		Amount:       inv.TotalAmount,
		Details:      fmt.Sprintf("Invoice %s downloaded", inv.InvoiceNumber),
	}
	if err := s.Audit.Create(ctx, scope, logEntry); err != nil {
		s.Log.Warn("failed to log invoice download", zap.Int("invoice_id", id), zap.Error(err))
	}

	if s.Archive != nil {
		key := fmt.Sprintf("invoices/%d/%s.pdf", scope.AdminID, inv.InvoiceNumber)
		if err := s.Archive.Upload(ctx, key, data, "application/pdf"); err != nil {
			s.Log.Warn("failed to archive invoice pdf", zap.String("key", key), zap.Error(err))
		}
	}

	return data, inv.InvoiceNumber, nil
}
