package api

import (
	"errors"
	"net/http"

	"github.com/airvara/flightdesk/internal/domain"
	"github.com/airvara/flightdesk/internal/registry"
	"github.com/airvara/flightdesk/internal/ticket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type BookingHandler struct {
	service registry.BookingUseCase
	tickets ticket.Renderer
}

func NewBookingHandler(service registry.BookingUseCase, tickets ticket.Renderer) *BookingHandler {
	return &BookingHandler{service: service, tickets: tickets}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.DELETE("/", h.cancel)
	router.GET("/", h.list)
}

type createBookingRequest struct {
	FlightID      string `json:"flight_id"`
	PassengerName string `json:"passenger_name"`
	Date          string `json:"date"`
	Class         string `json:"class"`
}

type bookingResponse struct {
	Status     string `json:"status"`
	Reference  string `json:"reference,omitempty"`
	Message    string `json:"message"`
	Fare       string `json:"fare,omitempty"`
	TicketPath string `json:"ticket_path,omitempty"`
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	class, err := domain.ParseFareClass(req.Class)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Book(c.Request.Context(), registry.BookInput{
		FlightID:      req.FlightID,
		PassengerName: req.PassengerName,
		Date:          req.Date,
		Class:         class,
	})
	if err != nil {
		if errors.Is(err, domain.ErrFlightNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Status == registry.BookStatusWaitlisted {
		c.JSON(http.StatusAccepted, bookingResponse{
			Status:  string(result.Status),
			Message: result.Message,
		})
		return
	}

	resp := bookingResponse{
		Status:    string(result.Status),
		Reference: result.Reference,
		Message:   result.Message,
		Fare:      result.Booking.Fare.StringFixed(2),
	}
	path, err := h.tickets.Generate(*result.Booking)
	if err != nil {
		// The booking is already durable; a failed artifact is not fatal.
		logrus.WithError(err).Warn("ticket generation failed")
	} else {
		resp.TicketPath = path
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	input := registry.CancelInput{
		PassengerName: c.Query("passenger_name"),
		FlightID:      c.Query("flight_id"),
		Date:          c.Query("date"),
	}
	if input.PassengerName == "" || input.FlightID == "" || input.Date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passenger_name, flight_id and date are required"})
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrNoBookings) || errors.Is(err, domain.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        result.Message,
		"removed":        result.Removed,
		"restored_class": string(result.RestoredClass),
	})
}

type bookingRow struct {
	PassengerName string `json:"passenger_name"`
	FlightID      string `json:"flight_id"`
	Date          string `json:"date"`
	Class         string `json:"class"`
	Fare          string `json:"fare"`
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.Bookings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rows := make([]bookingRow, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, bookingRow{
			PassengerName: b.PassengerName,
			FlightID:      b.FlightID,
			Date:          b.Date,
			Class:         string(b.Class),
			Fare:          b.Fare.StringFixed(2),
		})
	}
	c.JSON(http.StatusOK, rows)
}
