package eligibility

import "time"

// Reason is a machine-readable explanation for a blocked action. Exactly one
// reason is reported per blocked direction, first applicable in the order the
// constants are declared.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonEventStarted      Reason = "EVENT_STARTED"
	ReasonEventFull         Reason = "EVENT_FULL"
	ReasonAlreadyRegistered Reason = "ALREADY_REGISTERED"
	ReasonNotRegistered     Reason = "NOT_REGISTERED"
	ReasonLockoutWindow     Reason = "LOCKOUT_WINDOW"
	ReasonNotVisible        Reason = "NOT_VISIBLE"
)

// Opportunity is the snapshot the engine evaluates. Handlers assemble it from
// storage; the engine never mutates it and never fetches anything itself.
type Opportunity struct {
	ID              int64
	Date            string // "2006-01-02", reference zone
	StartTime       string // "15:04", reference zone
	DurationMinutes int
	TotalSlots      int
	HostID          int64
	VisibilityOrgs  []int64 // empty = public
	Roster          []Participant
}

// Viewer is the identity the engine needs: nothing more than who is asking,
// which organizations they belong to, and whether they are an admin.
type Viewer struct {
	UserID  int64
	OrgIDs  []int64
	IsAdmin bool
}

// Facts are the temporal and capacity details backing a verdict. They are nil
// on the verdict of an invisible opportunity so nothing about a restricted
// event leaks to viewers who may not see it.
type Facts struct {
	HasStarted                bool      `json:"has_started"`
	EndTime                   time.Time `json:"end_time"`
	HoursUntilStart           float64   `json:"hours_until_start"`
	WithinCancellationLockout bool      `json:"within_cancellation_lockout"`
	Occupied                  int       `json:"occupied"`
	SlotsRemaining            int       `json:"slots_remaining"`
	IsFull                    bool      `json:"is_full"`
}

// Verdict says what one viewer may currently do with one opportunity. It is a
// read-only projection over a snapshot: advisory only, because the
// authoritative accept/reject happens in the storage transaction when the
// action is attempted.
type Verdict struct {
	Visible         bool   `json:"visible"`
	CanSignUp       bool   `json:"can_sign_up"`
	CanUnregister   bool   `json:"can_unregister"`
	SignUpBlock     Reason `json:"sign_up_block,omitempty"`
	UnregisterBlock Reason `json:"unregister_block,omitempty"`
	Facts           *Facts `json:"facts,omitempty"`
}

// Describe produces the eligibility verdict for one opportunity and viewer at
// a given instant. Invisible opportunities short-circuit before any temporal
// or capacity computation.
func Describe(opp Opportunity, viewer Viewer, now time.Time) (Verdict, error) {
	if !IsVisible(opp.VisibilityOrgs, viewer.OrgIDs, viewer.IsAdmin) {
		return Verdict{
			Visible:         false,
			SignUpBlock:     ReasonNotVisible,
			UnregisterBlock: ReasonNotVisible,
		}, nil
	}

	temporal, err := EvaluateWindow(opp.Date, opp.StartTime, opp.DurationMinutes, now)
	if err != nil {
		return Verdict{}, err
	}
	capacity := EvaluateCapacity(opp.Roster, opp.TotalSlots, opp.HostID)
	registered := isRegistered(opp.Roster, viewer.UserID)
	adminOrHost := viewer.IsAdmin || viewer.UserID == opp.HostID

	v := Verdict{
		Visible: true,
		Facts: &Facts{
			HasStarted:                temporal.HasStarted,
			EndTime:                   temporal.EndTime,
			HoursUntilStart:           temporal.HoursUntilStart,
			WithinCancellationLockout: temporal.WithinCancellationLockout,
			Occupied:                  capacity.Occupied,
			SlotsRemaining:            capacity.Remaining,
			IsFull:                    capacity.IsFull,
		},
	}

	v.CanSignUp = !temporal.HasStarted && !capacity.IsFull && !registered
	if !v.CanSignUp {
		switch {
		case temporal.HasStarted:
			v.SignUpBlock = ReasonEventStarted
		case capacity.IsFull:
			v.SignUpBlock = ReasonEventFull
		default:
			v.SignUpBlock = ReasonAlreadyRegistered
		}
	}

	v.CanUnregister = registered && (adminOrHost || !temporal.WithinCancellationLockout)
	if !v.CanUnregister {
		if !registered {
			v.UnregisterBlock = ReasonNotRegistered
		} else {
			v.UnregisterBlock = ReasonLockoutWindow
		}
	}

	return v, nil
}
