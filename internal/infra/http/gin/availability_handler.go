package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"stayquote/internal/app/dto"
	availabilityapp "stayquote/internal/app/handlers/availability"
	pricingapp "stayquote/internal/app/handlers/pricing"
	"stayquote/internal/app/queries"
)

// RoomsHandler serves the read side: groups, schedules, search and calendars.
type RoomsHandler struct {
	Queries  queries.Bus
	Currency string
}

// intQuery reads an optional integer parameter.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, &paramError{name: name, value: raw})
		return 0, false
	}
	return v, true
}

type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + " parameter: " + strconv.Quote(e.value)
}

func (h RoomsHandler) RoomGroups(c *gin.Context) {
	guests, ok := intQuery(c, "guests")
	if !ok {
		return
	}
	include, _ := strconv.ParseBool(c.DefaultQuery("include_unavailable", "false"))
	query := availabilityapp.ResolveGroupsQuery{
		PropertyID:         c.Param("id"),
		CheckIn:            c.Query("check_in"),
		CheckOut:           c.Query("check_out"),
		PartySize:          guests,
		IncludeUnavailable: include,
	}
	result, err := queries.Ask[availabilityapp.ResolveGroupsQuery, dto.RoomGroupCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomsHandler) Schedule(c *gin.Context) {
	query := pricingapp.GetScheduleQuery{
		PropertyID: c.Param("id"),
		GroupID:    c.Param("groupId"),
		CheckIn:    c.Query("check_in"),
		CheckOut:   c.Query("check_out"),
	}
	result, err := queries.Ask[pricingapp.GetScheduleQuery, dto.Schedule](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomsHandler) PropertyMonth(c *gin.Context) {
	query := availabilityapp.MonthlyAvailabilityQuery{PropertyID: c.Param("id"), Month: c.Query("month")}
	result, err := queries.Ask[availabilityapp.MonthlyAvailabilityQuery, dto.MonthlyAvailability](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomsHandler) Search(c *gin.Context) {
	guests, ok := intQuery(c, "guests")
	if !ok {
		return
	}
	page, ok := intQuery(c, "page")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	query := availabilityapp.SearchRoomsQuery{
		CheckIn:    c.Query("check_in"),
		CheckOut:   c.Query("check_out"),
		PartySize:  guests,
		PropertyID: c.Query("property_id"),
		TypeID:     c.Query("type_id"),
		MinPrice:   c.Query("min_price"),
		MaxPrice:   c.Query("max_price"),
		Currency:   c.DefaultQuery("currency", h.Currency),
		Page:       page,
		Limit:      limit,
	}
	result, err := queries.Ask[availabilityapp.SearchRoomsQuery, dto.RoomSearchResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomsHandler) PriceRange(c *gin.Context) {
	query := pricingapp.PriceRangeQuery{
		CheckIn:  c.Query("check_in"),
		CheckOut: c.Query("check_out"),
		Currency: c.DefaultQuery("currency", h.Currency),
	}
	result, err := queries.Ask[pricingapp.PriceRangeQuery, dto.PriceRange](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomsHandler) Calendar(c *gin.Context) {
	query := availabilityapp.MonthCalendarQuery{RoomID: c.Param("id"), Month: c.Query("month")}
	result, err := queries.Ask[availabilityapp.MonthCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RoomsHTTP = RoomsHandler{}
