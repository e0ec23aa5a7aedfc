package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/dto"
	selectionapp "stayquote/internal/app/handlers/selection"
	"stayquote/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

type SessionHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type searchRequest struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
}

type addInstancesRequest struct {
	GroupID  string `json:"group_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

func (h SessionHandler) Start(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := selectionapp.StartSessionCommand{
		PropertyID: req.PropertyID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		PartySize:  req.Guests,
		RequestKey: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[selectionapp.StartSessionCommand, dto.Session](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h SessionHandler) Get(c *gin.Context) {
	result, err := queries.Ask[selectionapp.GetSessionQuery, dto.Session](c.Request.Context(), h.Queries, selectionapp.GetSessionQuery{SessionID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) ChangeSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := selectionapp.ChangeSearchCommand{
		SessionID: c.Param("id"),
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		PartySize: req.Guests,
	}
	result, err := commands.Dispatch[selectionapp.ChangeSearchCommand, dto.Session](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) AddInstances(c *gin.Context) {
	var req addInstancesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := selectionapp.AddInstancesCommand{SessionID: c.Param("id"), GroupID: req.GroupID, Quantity: req.Quantity}
	result, err := commands.Dispatch[selectionapp.AddInstancesCommand, dto.SelectionChange](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) RemoveInstance(c *gin.Context) {
	cmd := selectionapp.RemoveInstanceCommand{SessionID: c.Param("id"), SelectionID: c.Param("selectionId")}
	result, err := commands.Dispatch[selectionapp.RemoveInstanceCommand, dto.Session](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) Clear(c *gin.Context) {
	cmd := selectionapp.ClearSelectionCommand{SessionID: c.Param("id")}
	result, err := commands.Dispatch[selectionapp.ClearSelectionCommand, dto.Session](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) Quote(c *gin.Context) {
	result, err := queries.Ask[selectionapp.GetQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, selectionapp.GetQuoteQuery{SessionID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) Checkout(c *gin.Context) {
	cmd := selectionapp.PrepareCheckoutCommand{SessionID: c.Param("id"), RequestKey: c.GetHeader(idempotencyHeader)}
	result, err := commands.Dispatch[selectionapp.PrepareCheckoutCommand, dto.Checkout](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ SessionHTTP = SessionHandler{}
