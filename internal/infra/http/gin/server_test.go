package ginserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/handlers"
	"stayquote/internal/app/handlers/selection"
	"stayquote/internal/app/middleware"
	"stayquote/internal/app/queries"
	domainrooms "stayquote/internal/domain/rooms"
	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/money"
	"stayquote/internal/infra/config"
	"stayquote/internal/infra/obs"
	"stayquote/internal/infra/storage/memory"
)

func newTestRouter(t *testing.T, perMinute int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rooms := memory.NewRoomRepository(
		domainrooms.PhysicalRoom{ID: "d1", PropertyID: "hotel", TypeID: "dbl", Name: "Double 1", Capacity: 2, BasePrice: money.Must("1000", "ARS"), Active: true},
		domainrooms.PhysicalRoom{ID: "d2", PropertyID: "hotel", TypeID: "dbl", Name: "Double 2", Capacity: 2, BasePrice: money.Must("1000", "ARS"), Active: true},
		domainrooms.PhysicalRoom{ID: "s1", PropertyID: "hotel", TypeID: "ste", Name: "Suite", Capacity: 4, BasePrice: money.Must("2500", "ARS"), Active: true},
	)
	factory := memory.Factory{RoomsRepo: rooms, CalendarsRepo: memory.NewCalendarRepository(), SessionsRepo: memory.NewSessionRepository(0)}
	box := memory.NewOutbox(nil)

	sessions, selections := 0, 0
	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	handlers.Register(cmdBus, queryBus, handlers.Dependencies{
		UoWFactory: factory,
		Session: selection.Deps{
			Outbox: box,
			Logger: logger,
			Now:    func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
			NewSessionID: func() domainselection.SessionID {
				sessions++
				return domainselection.SessionID(fmt.Sprintf("sess-%d", sessions))
			},
			SelectionIDs: func() domainselection.SelectionID {
				selections++
				return domainselection.SelectionID(fmt.Sprintf("sel-%d", selections))
			},
		},
		CheckoutURL: "https://book.example.test/checkout",
	})
	cmds := middleware.ChainCommands(cmdBus,
		middleware.Validation(middleware.MessageValidator{}),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	qs := middleware.ChainQueries(queryBus, middleware.QueryValidation(middleware.MessageValidator{}))

	return NewRouter(
		config.Config{Env: "test", RateLimitPerMinute: perMinute},
		obs.Middleware{Logger: logger},
		obs.HealthHandlers{},
		Handlers{
			Rooms:    RoomsHandler{Queries: qs, Currency: "ARS"},
			Sessions: SessionHandler{Commands: cmds, Queries: qs},
		},
	)
}

func do(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var stay = map[string]any{"property_id": "hotel", "check_in": "2024-03-04", "check_out": "2024-03-06", "guests": 2}

func TestSessions_StartIsIdempotentPerKey(t *testing.T) {
	router := newTestRouter(t, 0)

	first := do(t, router, http.MethodPost, "/api/v1/sessions", stay, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Equal(t, "sess-1", decode(t, first)["id"])

	replay := do(t, router, http.MethodPost, "/api/v1/sessions", stay, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "sess-1", decode(t, replay)["id"])

	fresh := do(t, router, http.MethodPost, "/api/v1/sessions", stay)
	require.Equal(t, http.StatusCreated, fresh.Code)
	assert.Equal(t, "sess-2", decode(t, fresh)["id"])
}

func TestSessions_SelectionQuoteAndCheckout(t *testing.T) {
	router := newTestRouter(t, 0)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/v1/sessions", stay).Code)

	tooMany := do(t, router, http.MethodPost, "/api/v1/sessions/sess-1/selection", map[string]any{"group_id": "d1", "quantity": 3})
	assert.Equal(t, http.StatusConflict, tooMany.Code)
	assert.Equal(t, "insufficient_availability", decode(t, tooMany)["code"])

	empty := do(t, router, http.MethodGet, "/api/v1/sessions/sess-1/quote", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, empty.Code)
	assert.Equal(t, "empty_selection", decode(t, empty)["code"])

	added := do(t, router, http.MethodPost, "/api/v1/sessions/sess-1/selection", map[string]any{"group_id": "d1", "quantity": 2})
	require.Equal(t, http.StatusOK, added.Code, added.Body.String())

	quote := do(t, router, http.MethodGet, "/api/v1/sessions/sess-1/quote", nil)
	require.Equal(t, http.StatusOK, quote.Code)
	body := decode(t, quote)
	assert.Equal(t, "4000.00", body["subtotal"].(map[string]any)["amount"])
	assert.Equal(t, "840.00", body["tax"].(map[string]any)["amount"])
	assert.Equal(t, "4840.00", body["total"].(map[string]any)["amount"])

	checkout := do(t, router, http.MethodPost, "/api/v1/sessions/sess-1/checkout", nil)
	require.Equal(t, http.StatusOK, checkout.Code)
	assert.Contains(t, decode(t, checkout)["url"], "https://book.example.test/checkout?")

	cleared := do(t, router, http.MethodDelete, "/api/v1/sessions/sess-1/selection", nil)
	require.Equal(t, http.StatusOK, cleared.Code)
	assert.Equal(t, string(domainselection.StateNoSelection), decode(t, cleared)["state"])
}

func TestSessions_ErrorMapping(t *testing.T) {
	router := newTestRouter(t, 0)

	missing := do(t, router, http.MethodGet, "/api/v1/sessions/ghost", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "session_not_found", decode(t, missing)["code"])

	unknown := do(t, router, http.MethodPost, "/api/v1/sessions", map[string]any{"property_id": "nowhere"})
	assert.Equal(t, http.StatusNotFound, unknown.Code)

	badDates := do(t, router, http.MethodPost, "/api/v1/sessions", map[string]any{"property_id": "hotel", "check_in": "2024-03-06", "check_out": "2024-03-04"})
	assert.Equal(t, http.StatusUnprocessableEntity, badDates.Code)

	malformed := do(t, router, http.MethodPost, "/api/v1/sessions/sess-1/selection", map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, malformed.Code)
}

func TestRooms_GroupsAndSchedule(t *testing.T) {
	router := newTestRouter(t, 0)

	groups := do(t, router, http.MethodGet, "/api/v1/properties/hotel/room-groups?check_in=2024-03-04&check_out=2024-03-06&guests=5", nil)
	require.Equal(t, http.StatusOK, groups.Code, groups.Body.String())
	body := decode(t, groups)
	assert.Len(t, body["groups"], 2)
	assert.EqualValues(t, 8, body["free_capacity"])
	assert.Equal(t, true, body["can_host_party"])

	schedule := do(t, router, http.MethodGet, "/api/v1/properties/hotel/room-groups/d1/schedule?check_in=2024-03-04&check_out=2024-03-06", nil)
	require.Equal(t, http.StatusOK, schedule.Code)
	assert.Equal(t, "2000.00", decode(t, schedule)["total"].(map[string]any)["amount"])

	bad := do(t, router, http.MethodGet, "/api/v1/properties/hotel/room-groups?guests=two", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestRateLimit_Rejects(t *testing.T) {
	router := newTestRouter(t, 1)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/rooms/price-range", nil).Code)
	limited := do(t, router, http.MethodGet, "/api/v1/rooms/price-range", nil)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/livez", nil).Code)
}

func TestStatusFor_HidesInternalErrors(t *testing.T) {
	status, code := statusFor(fmt.Errorf("wrapped: %w", domainselection.ErrStaleSnapshot))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "stale_snapshot", code)

	status, code = statusFor(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", code)
}

func TestSwagger_ServesDocument(t *testing.T) {
	router := newTestRouter(t, 0)

	doc := do(t, router, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, doc.Code)
	paths, ok := decode(t, doc)["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/sessions/{id}/quote")
	assert.Equal(t, "no-cache", doc.Header().Get("Cache-Control"))

	page := do(t, router, http.MethodGet, "/swagger", nil)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "/swagger/doc.json")
	assert.NotContains(t, page.Body.String(), "{{SPEC_URL}}")

	alias := do(t, router, http.MethodGet, "/swagger/index.html", nil)
	assert.Equal(t, http.StatusOK, alias.Code)
}
