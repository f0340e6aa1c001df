// Package statement builds and renders account statements: the balance plus
// every transaction in a period, as XLSX or PDF.
package statement

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Format is a rendered statement file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "xlsx" or "pdf" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", apperrors.NewAppError(apperrors.ErrValidation, fmt.Sprintf("unsupported statement format %q", s), nil).
		WithField("format")
}

// ContentType returns the MIME type of a rendered statement.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Statement is an account's balance and history for [From, To).
type Statement struct {
	AccountID    string
	Balance      domain.Balance
	From         time.Time
	To           time.Time
	GeneratedAt  time.Time
	Transactions []domain.Transaction
}

// Totals sums the balance effect of the statement's transactions.
func (s *Statement) Totals() (credited, debited int64) {
	for _, txn := range s.Transactions {
		if !txn.AffectsBalance() {
			continue
		}
		if txn.Amount > 0 {
			credited += txn.Amount
		} else {
			debited -= txn.Amount
		}
	}
	return credited, debited
}

const pageSize = 100

// Collect reads the balance and pages through the account's history for the
// period, newest first.
func Collect(ctx context.Context, accounts portssvc.AccountReaderSvc, ledger portssvc.LedgerReaderSvc, accountID string, from, to time.Time) (*Statement, error) {
	if !to.After(from) {
		return nil, apperrors.NewAppError(apperrors.ErrValidation, "statement period end must be after its start", nil).
			WithField("to")
	}
	balance, err := accounts.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{
		AccountID:   accountID,
		Balance:     *balance,
		From:        from.UTC(),
		To:          to.UTC(),
		GeneratedAt: time.Now().UTC(),
	}
	filter := domain.TransactionFilter{CreatedFrom: &stmt.From, CreatedTo: &stmt.To}
	var token *string
	for {
		page, next, err := ledger.ListTransactions(ctx, accountID, filter, pageSize, token)
		if err != nil {
			return nil, err
		}
		stmt.Transactions = append(stmt.Transactions, page...)
		if next == nil {
			return stmt, nil
		}
		token = next
	}
}

// Render writes the statement in the requested format.
func Render(stmt *Statement, format Format) ([]byte, error) {
	switch format {
	case FormatPDF:
		return BuildPDF(stmt)
	case FormatXLSX:
		return BuildXLSX(stmt)
	}
	return nil, fmt.Errorf("unsupported statement format %q", format)
}

var columns = []string{"Date", "Transaction", "Kind", "Status", "Action", "Amount", "Balance After", "Description"}

func row(txn domain.Transaction) []any {
	action := ""
	if txn.ActionType != nil {
		action = *txn.ActionType
	}
	return []any{
		txn.CreatedAt.UTC().Format(time.RFC3339),
		txn.TransactionID,
		string(txn.Kind),
		string(txn.Status),
		action,
		txn.Amount,
		txn.BalanceAfter,
		txn.Description,
	}
}

// BuildXLSX renders a summary sheet and a transactions sheet.
func BuildXLSX(stmt *Statement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	txSheet := "transactions"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(txSheet); err != nil {
		return nil, err
	}

	credited, debited := stmt.Totals()
	summary := [][]any{
		{"Account Statement"},
		{},
		{"Account", stmt.AccountID},
		{"Tier", string(stmt.Balance.Tier)},
		{"Period start", stmt.From.Format(time.RFC3339)},
		{"Period end", stmt.To.Format(time.RFC3339)},
		{"Main balance", stmt.Balance.Main},
		{"Bonus balance", stmt.Balance.Bonus},
		{"Spendable", stmt.Balance.Spendable},
		{"Credited in period", credited},
		{"Debited in period", debited},
		{"Transactions", len(stmt.Transactions)},
		{"Generated", stmt.GeneratedAt.Format(time.RFC3339)},
	}
	for i, values := range summary {
		if len(values) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return nil, err
		}
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(txSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, txn := range stmt.Transactions {
		values := row(txn)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(txSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPDF renders a one-table PDF statement.
func BuildPDF(stmt *Statement) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Account Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	credited, debited := stmt.Totals()
	for _, line := range []string{
		fmt.Sprintf("Account: %s (%s)", stmt.AccountID, stmt.Balance.Tier),
		fmt.Sprintf("Period: %s to %s", stmt.From.Format(time.RFC3339), stmt.To.Format(time.RFC3339)),
		fmt.Sprintf("Balance: main %d, bonus %d, spendable %d", stmt.Balance.Main, stmt.Balance.Bonus, stmt.Balance.Spendable),
		fmt.Sprintf("Credited: %d   Debited: %d", credited, debited),
		fmt.Sprintf("Generated: %s", stmt.GeneratedAt.Format(time.RFC3339)),
	} {
		pdf.Cell(0, 6, line)
		pdf.Ln(5)
	}
	pdf.Ln(4)

	widths := []float64{40, 70, 32, 24, 34, 20, 25, 32}
	pdf.SetFont("Arial", "B", 8)
	for i, c := range columns {
		pdf.CellFormat(widths[i], 6, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, txn := range stmt.Transactions {
		for i, v := range row(txn) {
			align := "L"
			if _, ok := v.(int64); ok {
				align = "R"
			}
			text := fmt.Sprint(v)
			if i == len(columns)-1 && len(text) > 24 {
				text = text[:21] + "..."
			}
			pdf.CellFormat(widths[i], 6, text, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
