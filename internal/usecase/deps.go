package usecase

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"LinkStrategist/internal/logging"
	"LinkStrategist/internal/ports"
	"LinkStrategist/internal/tabular"
)

// Deps wires all driven adapters into the use cases.
type Deps struct {
	Store    ports.Store
	Client   ports.AnalysisClient
	Notifier ports.Notifier
	Decoders *tabular.Registry
	Logger   *slog.Logger
	Clock    func() time.Time
	NewID    func() string
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Decoders == nil {
		d.Decoders = tabular.NewRegistry()
	}
	return d
}
