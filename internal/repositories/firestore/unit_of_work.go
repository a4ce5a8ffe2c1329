package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/sobri3195/WarungWA/internal/repositories"

	pfirestore "github.com/sobri3195/WarungWA/internal/platform/firestore"
)

// UnitOfWork executes a function inside a single Firestore transaction. The
// transaction handle travels on the context so repositories invoked by fn
// route their reads and writes through it instead of issuing direct calls.
type UnitOfWork struct {
	provider *pfirestore.Provider
}

func NewUnitOfWork(provider *pfirestore.Provider) (*UnitOfWork, error) {
	if provider == nil {
		return nil, fmt.Errorf("firestore unit of work requires provider")
	}
	return &UnitOfWork{provider: provider}, nil
}

func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("firestore unit of work requires callback")
	}
	return u.provider.RunTransaction(ctx, func(txCtx context.Context, tx *firestore.Transaction) error {
		return fn(pfirestore.WithTransaction(txCtx, tx))
	})
}

var _ repositories.UnitOfWork = (*UnitOfWork)(nil)
