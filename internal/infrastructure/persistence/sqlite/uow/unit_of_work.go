package uow

import (
	"context"

	"gorm.io/gorm"

	"auditflow/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork over a gorm sqlite handle. Sample
// lifecycle transitions write several tables at once (sample row plus skip,
// deletion or audit records); WithTx keeps those writes in one transaction
// so a failed transition leaves nothing behind.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithTx runs fn inside a transaction. Repositories called through the
// returned context pick up the transaction handle via ports.TxFromContext.
func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
}
