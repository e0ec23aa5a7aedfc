package handlers

import (
	"stayquote/internal/app/commands"
	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/availability"
	"stayquote/internal/app/handlers/pricing"
	"stayquote/internal/app/handlers/selection"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
)

// Dependencies is everything the handlers need from infrastructure.
type Dependencies struct {
	UoWFactory  uow.UoWFactory
	Session     selection.Deps
	CheckoutURL string
}

// Register binds every query and command handler to the buses.
func Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus, d Dependencies) {
	if d.Session.Resolver == nil {
		d.Session.Resolver = availability.LocalResolver{UoWFactory: d.UoWFactory}
	}

	queries.RegisterHandler[availability.ResolveGroupsQuery, dto.RoomGroupCollection](queryBus, &availability.ResolveGroupsHandler{Resolver: d.Session.Resolver})
	queries.RegisterHandler[availability.SearchRoomsQuery, dto.RoomSearchResult](queryBus, &availability.SearchRoomsHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[availability.MonthCalendarQuery, dto.Calendar](queryBus, &availability.MonthCalendarHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[availability.MonthlyAvailabilityQuery, dto.MonthlyAvailability](queryBus, &availability.MonthlyAvailabilityHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[pricing.GetScheduleQuery, dto.Schedule](queryBus, &pricing.GetScheduleHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[pricing.PriceRangeQuery, dto.PriceRange](queryBus, &pricing.PriceRangeHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[selection.GetSessionQuery, dto.Session](queryBus, &selection.GetSessionHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[selection.GetQuoteQuery, dto.Quote](queryBus, &selection.GetQuoteHandler{UoWFactory: d.UoWFactory})

	commands.RegisterHandler[selection.StartSessionCommand, dto.Session](cmdBus, &selection.StartSessionHandler{Deps: d.Session})
	commands.RegisterHandler[selection.ChangeSearchCommand, dto.Session](cmdBus, &selection.ChangeSearchHandler{Deps: d.Session})
	commands.RegisterHandler[selection.AddInstancesCommand, dto.SelectionChange](cmdBus, &selection.AddInstancesHandler{Deps: d.Session})
	commands.RegisterHandler[selection.RemoveInstanceCommand, dto.Session](cmdBus, &selection.RemoveInstanceHandler{Deps: d.Session})
	commands.RegisterHandler[selection.ClearSelectionCommand, dto.Session](cmdBus, &selection.ClearSelectionHandler{Deps: d.Session})
	commands.RegisterHandler[selection.PrepareCheckoutCommand, dto.Checkout](cmdBus, &selection.PrepareCheckoutHandler{Deps: d.Session, CheckoutURL: d.CheckoutURL})
}
