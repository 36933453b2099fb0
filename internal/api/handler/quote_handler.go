package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/calcproject/freightcalc/internal/core/ports"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// QuoteHandler handles HTTP requests for quote aggregation.
type QuoteHandler struct {
	service ports.QuoteService
	history ports.QuoteHistoryRepository // optional
}

func NewQuoteHandler(service ports.QuoteService, history ports.QuoteHistoryRepository) *QuoteHandler {
	return &QuoteHandler{service: service, history: history}
}

// Calculate handles POST /v1/quotes.
//
// @Summary      Aggregate shipping cost quotes from all configured carriers
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        body  body      calculateQuotesRequest  true  "Shipment details"
// @Success      200   {object}  calculateQuotesResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/quotes [post]
func (h *QuoteHandler) Calculate(c echo.Context) error {
	var req calculateQuotesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if req.Cargo.Volume == 0 && (req.Cargo.Length == 0 || req.Cargo.Width == 0 || req.Cargo.Height == 0) {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: "Заполните размеры (ширина, высота, длина) и/или объём груза.",
		})
	}

	shipment := toShipmentRequest(&req)
	quotes := h.service.Calculate(c.Request().Context(), shipment)

	return c.JSON(http.StatusOK, calculateQuotesResponse{
		ShipDate: shipment.ShipDate,
		Quotes:   toQuoteResponses(quotes),
	})
}

// Recent handles GET /v1/quotes/recent.
//
// @Summary      List recent aggregation outcomes
// @Tags         quotes
// @Produce      json
// @Param        limit  query     int  false  "Maximum records to return (default 20, max 100)"
// @Success      200    {object}  recentQuotesResponse
// @Failure      503    {object}  errorResponse
// @Router       /v1/quotes/recent [get]
func (h *QuoteHandler) Recent(c echo.Context) error {
	if h.history == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "quote history is not configured"})
	}

	limit := defaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
		}
		limit = parsed
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	records, err := h.history.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	data := make([]quoteRecordResponse, len(records))
	for i, rec := range records {
		data[i] = toQuoteRecordResponse(rec)
	}
	return c.JSON(http.StatusOK, recentQuotesResponse{Data: data})
}
