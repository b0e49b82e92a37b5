// Package history serves the transaction history view.
package history

import (
	"context"

	"advtopup/internal/domain/order"
	"advtopup/internal/store/repositories"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Service struct {
	txRepo repositories.TransactionRepository
}

func NewService(txRepo repositories.TransactionRepository) *Service {
	return &Service{txRepo: txRepo}
}

// Recent returns purchase records, newest first. The limit is clamped to a
// sane page size; a negative offset reads from the start.
func (s *Service) Recent(ctx context.Context, limit, offset int) ([]*order.Transaction, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.txRepo.ListRecent(ctx, limit, offset)
}
