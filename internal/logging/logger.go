package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/ride-sharing/internal/models"
)

// NewLogger builds a JSON logger tuned for production use.
func NewLogger(level string) *slog.Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     levelFromString(level),
		AddSource: true,
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func levelFromString(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EventLogger writes registry lifecycle events to a logger.
type EventLogger struct {
	Logger *slog.Logger
}

func (l EventLogger) Observe(e models.Event) {
	args := []any{"event_id", e.ID, "kind", string(e.Kind)}
	if e.DriverID != 0 {
		args = append(args, "driver_id", e.DriverID)
	}
	if e.RiderID != 0 {
		args = append(args, "rider_id", e.RiderID)
	}
	if e.Name != "" {
		args = append(args, "name", e.Name)
	}
	switch e.Kind {
	case models.EventDriverAdded, models.EventDriverRated:
		args = append(args, "rating", e.Rating)
	case models.EventRiderAdded, models.EventPaymentMethodUpdated:
		args = append(args, "payment_method", e.PaymentMethod)
	}
	if e.Ride != nil {
		args = append(args, "ride_id", e.Ride.ID, "ride_type", string(e.Ride.Type), "fare", e.Ride.Fare)
	}

	if e.Kind == models.EventRideDiscarded {
		l.Logger.Warn("ride discarded without driver and rider", args...)
		return
	}
	l.Logger.Info("registry event", args...)
}
