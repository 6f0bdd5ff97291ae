package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/airvara/flightdesk/api"
	"github.com/airvara/flightdesk/config"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the HTTP surface.
func NewRouter(flightHandler *api.FlightHandler, bookingHandler *api.BookingHandler) *gin.Engine {
	router := gin.Default()

	v1 := router.Group("/api/v1")
	flightHandler.Register(v1.Group("/flights"))
	bookingHandler.Register(v1.Group("/bookings"))

	return router
}

// Run starts the HTTP server and blocks until the context is
// canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
