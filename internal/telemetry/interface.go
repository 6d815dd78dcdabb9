// Package telemetry keeps a local sqlite history of reloads and refreshes.
package telemetry

import (
	"context"
	"time"
)

// Collector records refresh history.
type Collector interface {
	Record(ctx context.Context, rec *Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Repository is the storage behind a Collector.
type Repository interface {
	Record(rec *Record) error
	Flush() error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Record is one completed reload or refresh.
type Record struct {
	Timestamp      time.Time
	Kind           string
	Profile        string
	ProfileChanged bool
	Persistent     bool
	Battery        BatteryReadings
	Duration       time.Duration
}

type BatteryReadings struct {
	CurrentNow float64
	ChargeNow  float64
	ChargeFull float64
}
