package support

import (
	"context"

	"stayquote/internal/app/uow"
)

// BeginReadOnlyUnit opens a read-only unit unless ctx already carries one. cleanup is nil
// when nothing was opened.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, execCtx, finish, err := uow.Begin(ctx, factory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	if finish == nil {
		return unit, execCtx, nil, nil
	}
	return unit, execCtx, func() { _ = finish(nil) }, nil
}

// Done runs cleanup when it is set.
func Done(cleanup func()) {
	if cleanup != nil {
		cleanup()
	}
}
