package recordtrail

import (
	"time"
)

// Observer receives the outcome of every Record and History call.
type Observer interface {
	ObserveRecord(table string, kind Kind, changes int, elapsed time.Duration, err error)
	ObserveHistory(table string, entries int, elapsed time.Duration, err error)
}

// NoopObserver discards observations.
type NoopObserver struct{}

func (NoopObserver) ObserveRecord(string, Kind, int, time.Duration, error) {}

func (NoopObserver) ObserveHistory(string, int, time.Duration, error) {}
