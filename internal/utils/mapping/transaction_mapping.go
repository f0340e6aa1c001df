package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/SscSPs/credit_ledger/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction,
// encoding its metadata as JSON.
func ToModelTransaction(d domain.Transaction) (models.Transaction, error) {
	metadata := []byte("{}")
	if len(d.Metadata) > 0 {
		encoded, err := json.Marshal(d.Metadata)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("encode metadata of transaction %s: %w", d.TransactionID, err)
		}
		metadata = encoded
	}
	return models.Transaction{
		TransactionID:        d.TransactionID,
		AccountID:            d.AccountID,
		Amount:               d.Amount,
		Kind:                 string(d.Kind),
		Status:               string(d.Status),
		BalanceBefore:        d.BalanceBefore,
		BalanceAfter:         d.BalanceAfter,
		Description:          d.Description,
		ActionType:           d.ActionType,
		Metadata:             metadata,
		IdempotencyKey:       d.IdempotencyKey,
		ReferenceID:          d.ReferenceID,
		RelatedTransactionID: d.RelatedTransactionID,
		CreatedAt:            d.CreatedAt,
	}, nil
}

// ToDomainTransaction converts a model Transaction to a domain Transaction.
// Numbers in metadata decode as json.Number so integers keep full precision.
func ToDomainTransaction(m models.Transaction) (domain.Transaction, error) {
	var metadata domain.Metadata
	if len(m.Metadata) > 0 {
		dec := json.NewDecoder(bytes.NewReader(m.Metadata))
		dec.UseNumber()
		if err := dec.Decode(&metadata); err != nil {
			return domain.Transaction{}, fmt.Errorf("decode metadata of transaction %s: %w", m.TransactionID, err)
		}
	}
	return domain.Transaction{
		TransactionID:        m.TransactionID,
		AccountID:            m.AccountID,
		Amount:               m.Amount,
		Kind:                 domain.TransactionKind(m.Kind),
		Status:               domain.TransactionStatus(m.Status),
		BalanceBefore:        m.BalanceBefore,
		BalanceAfter:         m.BalanceAfter,
		Description:          m.Description,
		ActionType:           m.ActionType,
		Metadata:             metadata,
		IdempotencyKey:       m.IdempotencyKey,
		ReferenceID:          m.ReferenceID,
		RelatedTransactionID: m.RelatedTransactionID,
		CreatedAt:            m.CreatedAt.UTC(),
	}, nil
}

// ToDomainTransactionSlice converts a slice of model Transactions to domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) ([]domain.Transaction, error) {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		d, err := ToDomainTransaction(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}
