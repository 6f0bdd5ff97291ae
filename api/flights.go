package api

import (
	"errors"
	"net/http"

	"github.com/airvara/flightdesk/internal/domain"
	"github.com/airvara/flightdesk/internal/registry"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type FlightHandler struct {
	service registry.FlightUseCase
}

func NewFlightHandler(service registry.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/search", h.search)
	router.GET("/:id/fare", h.quote)
	router.POST("/", h.create)
	router.DELETE("/:id", h.remove)
}

type classSeats struct {
	Available int             `json:"available"`
	Capacity  int             `json:"capacity"`
	Fare      decimal.Decimal `json:"fare"`
}

type flightResponse struct {
	FlightID    string                `json:"flight_id"`
	Source      string                `json:"source"`
	Destination string                `json:"destination"`
	Time        string                `json:"time"`
	Date        string                `json:"date"`
	BasePrice   decimal.Decimal       `json:"base_price"`
	Classes     map[string]classSeats `json:"classes"`
}

func newFlightResponse(f *domain.Flight) flightResponse {
	classes := make(map[string]classSeats, 3)
	for _, class := range domain.FareClasses() {
		classes[string(class)] = classSeats{
			Available: f.Available[class],
			Capacity:  f.Seats[class],
			Fare:      f.Fare(class),
		}
	}
	return flightResponse{
		FlightID:    f.FlightID,
		Source:      f.Source,
		Destination: f.Destination,
		Time:        f.Time,
		Date:        f.Date,
		BasePrice:   f.BasePrice,
		Classes:     classes,
	}
}

func flightResponses(flights []*domain.Flight) []flightResponse {
	out := make([]flightResponse, 0, len(flights))
	for _, f := range flights {
		out = append(out, newFlightResponse(f))
	}
	return out
}

// sortIfRequested orders flights by computed fare when ?sort=fare is
// given; ?class= picks the priced class, defaulting to Economy.
func sortIfRequested(c *gin.Context, flights []*domain.Flight) error {
	if c.Query("sort") != "fare" {
		return nil
	}
	class := domain.Economy
	if raw := c.Query("class"); raw != "" {
		parsed, err := domain.ParseFareClass(raw)
		if err != nil {
			return err
		}
		class = parsed
	}
	registry.SortByFare(flights, class)
	return nil
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := sortIfRequested(c, flights); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flightResponses(flights))
}

func (h *FlightHandler) search(c *gin.Context) {
	source := c.Query("source")
	destination := c.Query("destination")
	date := c.Query("date")
	if source == "" || destination == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source, destination and date are required"})
		return
	}

	flights, err := h.service.Search(c.Request.Context(), source, destination, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := sortIfRequested(c, flights); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flightResponses(flights))
}

func (h *FlightHandler) quote(c *gin.Context) {
	class, err := domain.ParseFareClass(c.DefaultQuery("class", string(domain.Economy)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	breakdown, err := h.service.Quote(c.Request.Context(), c.Param("id"), c.Query("date"), class)
	if err != nil {
		if errors.Is(err, domain.ErrFlightNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if c.Query("breakdown") == "true" {
		c.JSON(http.StatusOK, breakdown)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fare": breakdown.Total})
}

func (h *FlightHandler) create(c *gin.Context) {
	var input registry.AddFlightInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flight, err := h.service.Add(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, newFlightResponse(flight))
}

func (h *FlightHandler) remove(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
