package eligibility

// Participant is one roster record of an opportunity, as reported by storage.
// OrgIDs are the participant's organization memberships, carried along so the
// co-attending organization aggregate can be computed without another lookup.
type Participant struct {
	UserID     int64   `json:"user_id"`
	Name       string  `json:"name"`
	ImageURL   string  `json:"image_url,omitempty"`
	Registered bool    `json:"registered"`
	Attended   bool    `json:"attended"`
	OrgIDs     []int64 `json:"-"`
}

// CapacityFacts describe the occupancy of one opportunity.
type CapacityFacts struct {
	Occupied  int  `json:"occupied"`
	Remaining int  `json:"remaining"`
	IsFull    bool `json:"is_full"`
}

// EvaluateCapacity counts occupied slots on a roster. A participant with
// Registered=true holds a slot. The host holds a slot by convention as soon as
// they appear on the roster, even when their registered flag was never set,
// but never counts twice.
func EvaluateCapacity(roster []Participant, totalSlots int, hostID int64) CapacityFacts {
	occupied := 0
	for _, p := range roster {
		if p.Registered || p.UserID == hostID {
			occupied++
		}
	}

	remaining := totalSlots - occupied
	if remaining < 0 {
		// Storage guarantees occupancy <= capacity; if a stale snapshot
		// violates that we clamp rather than report negative availability.
		remaining = 0
	}

	return CapacityFacts{
		Occupied:  occupied,
		Remaining: remaining,
		IsFull:    remaining == 0,
	}
}

// isRegistered reports whether userID currently holds a registered roster
// record.
func isRegistered(roster []Participant, userID int64) bool {
	for _, p := range roster {
		if p.UserID == userID && p.Registered {
			return true
		}
	}
	return false
}
