package eligibility

import (
	"fmt"
	"time"
)

// Opportunity dates and start times are stored as wall-clock values in US
// Eastern time no matter where the viewer is, so all window math happens in
// this zone.
const ReferenceZoneName = "America/New_York"

// LockoutHours is the fixed pre-event window during which ordinary
// participants can no longer unregister. Product policy constant.
const LockoutHours = 7

var referenceZone = mustLoadReferenceZone()

// ReferenceZone returns the fixed zone event wall-clock fields live in.
func ReferenceZone() *time.Location {
	return referenceZone
}

func mustLoadReferenceZone() *time.Location {
	loc, err := time.LoadLocation(ReferenceZoneName)
	if err != nil {
		panic("eligibility: cannot load reference time zone: " + err.Error())
	}
	return loc
}

// TemporalFacts are the derived time facts for one event evaluated against a
// single "now".
type TemporalFacts struct {
	HasStarted                bool      `json:"has_started"`
	EndTime                   time.Time `json:"end_time"`
	HoursUntilStart           float64   `json:"hours_until_start"`
	WithinCancellationLockout bool      `json:"within_cancellation_lockout"`
}

// EvaluateWindow computes the temporal facts for an event. date must be
// "2006-01-02" and startTime "15:04", both wall-clock in the reference zone.
// now is the only source of current time; it is read once so repeated calls
// with the same arguments always return the same result.
//
// Malformed date or time is a hard error. Substituting a default here would
// silently corrupt every eligibility decision downstream, so we refuse
// instead.
func EvaluateWindow(date, startTime string, durationMinutes int, now time.Time) (TemporalFacts, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+startTime, referenceZone)
	if err != nil {
		return TemporalFacts{}, fmt.Errorf("invalid event date/time %q %q: %w", date, startTime, err)
	}

	hoursUntil := start.Sub(now).Hours()
	hasStarted := !now.Before(start)

	return TemporalFacts{
		HasStarted:                hasStarted,
		EndTime:                   start.Add(time.Duration(durationMinutes) * time.Minute),
		HoursUntilStart:           hoursUntil,
		WithinCancellationLockout: hoursUntil < LockoutHours && !hasStarted,
	}, nil
}
