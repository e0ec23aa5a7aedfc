package selection

import (
	"context"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
	"stayquote/internal/domain/quote"
	domainselection "stayquote/internal/domain/selection"
)

const (
	getSessionKey = "selection.get"
	getQuoteKey   = "selection.quote"
)

type GetSessionQuery struct {
	SessionID string
}

func (q GetSessionQuery) Key() string { return getSessionKey }

type GetSessionHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetSessionHandler) Handle(ctx context.Context, q GetSessionQuery) (dto.Session, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Session{}, err
	}
	defer support.Done(cleanup)

	s, err := unit.Sessions().Get(ctx, domainselection.SessionID(q.SessionID))
	if err != nil {
		return dto.Session{}, err
	}
	return dto.MapSession(s), nil
}

// GetQuoteQuery prices the current selection of a session.
type GetQuoteQuery struct {
	SessionID string
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	defer support.Done(cleanup)

	s, err := unit.Sessions().Get(ctx, domainselection.SessionID(q.SessionID))
	if err != nil {
		return dto.Quote{}, err
	}
	rq, err := quote.ForSession(s)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(rq), nil
}

var (
	_ queries.Handler[GetSessionQuery, dto.Session] = (*GetSessionHandler)(nil)
	_ queries.Handler[GetQuoteQuery, dto.Quote]     = (*GetQuoteHandler)(nil)
)
