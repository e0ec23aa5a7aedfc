package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayquote/internal/app/commands"
	appavailability "stayquote/internal/app/handlers/availability"
	"stayquote/internal/app/middleware"
	"stayquote/internal/app/queries"
	"stayquote/internal/domain/availability"
	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/rooms"
	"stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// First match wins, so specific errors come before the generic validation marker.
var errorMappings = []errorMapping{
	{selection.ErrInsufficientAvailability, http.StatusConflict, "insufficient_availability"},
	{selection.ErrStaleSnapshot, http.StatusConflict, "stale_snapshot"},
	{selection.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
	{availability.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
	{selection.ErrMissingDateRange, http.StatusUnprocessableEntity, "missing_date_range"},
	{selection.ErrEmptySelection, http.StatusUnprocessableEntity, "empty_selection"},
	{selection.ErrNoSnapshot, http.StatusUnprocessableEntity, "availability_unresolved"},
	{selection.ErrUnknownGroup, http.StatusUnprocessableEntity, "unknown_group"},
	{selection.ErrInvalidQuantity, http.StatusUnprocessableEntity, "invalid_quantity"},
	{selection.ErrInvalidPartySize, http.StatusUnprocessableEntity, "invalid_party_size"},
	{selection.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{rooms.ErrPropertyNotFound, http.StatusNotFound, "property_not_found"},
	{rooms.ErrRoomNotFound, http.StatusNotFound, "room_not_found"},
	{rooms.ErrGroupNotFound, http.StatusNotFound, "group_not_found"},
	{daterange.ErrInvalidRange, http.StatusUnprocessableEntity, "invalid_date_range"},
	{daterange.ErrInvalidDay, http.StatusUnprocessableEntity, "invalid_date"},
	{appavailability.ErrPartialDates, http.StatusUnprocessableEntity, "invalid_date_range"},
	{appavailability.ErrInvalidMonth, http.StatusUnprocessableEntity, "invalid_month"},
	{appavailability.ErrInvalidPriceBounds, http.StatusUnprocessableEntity, "invalid_price_bounds"},
	{money.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{money.ErrInvalidCurrency, http.StatusUnprocessableEntity, "invalid_currency"},
	{pricing.ErrUnknownKind, http.StatusUnprocessableEntity, "unknown_rule_kind"},
	{middleware.ErrValidation, http.StatusUnprocessableEntity, "validation_failed"},
	{commands.ErrHandlerNotFound, http.StatusNotImplemented, "not_implemented"},
	{queries.ErrHandlerNotFound, http.StatusNotImplemented, "not_implemented"},
}

// statusFor maps an application error onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeError hides internal failures behind a generic message; everything else is
// reported as is.
func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "bad_request"})
}
