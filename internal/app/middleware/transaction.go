package middleware

import (
	"context"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/uow"
)

// TxOptionsProvider picks transaction options per command.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs each command inside a unit of work, committing only when the handler succeeds.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			_, execCtx, finish, err := uow.Begin(ctx, factory, opts)
			if err != nil {
				return nil, err
			}
			res, err := nextFn(execCtx, cmd)
			if finish != nil {
				err = finish(err)
			}
			if err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
