package transfer

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the submission time. Archive names are derived from it in
// local time and history rows are stamped with it.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator names history records and the X-Request-ID of backend calls.
type IDGenerator interface {
	New() string
}

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString() }
