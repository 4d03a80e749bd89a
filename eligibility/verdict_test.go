package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registeredRoster(n int, startID int64) []Participant {
	roster := make([]Participant, 0, n)
	for i := 0; i < n; i++ {
		roster = append(roster, Participant{UserID: startID + int64(i), Registered: true})
	}
	return roster
}

func TestDescribe(t *testing.T) {
	loc := eastern(t)
	start := time.Date(2026, 6, 10, 18, 0, 0, 0, loc)
	viewer := Viewer{UserID: 500, OrgIDs: []int64{3, 9}}

	base := Opportunity{
		ID:              1,
		Date:            "2026-06-10",
		StartTime:       "18:00",
		DurationMinutes: 120,
		TotalSlots:      10,
		HostID:          100,
	}

	t.Run("Open Slot Two Days Out", func(t *testing.T) {
		opp := base
		opp.Roster = registeredRoster(9, 100) // includes host at 100
		now := start.Add(-48 * time.Hour)

		v, err := Describe(opp, viewer, now)
		require.NoError(t, err)
		assert.True(t, v.Visible)
		assert.True(t, v.CanSignUp)
		assert.Equal(t, ReasonNone, v.SignUpBlock)
		assert.False(t, v.CanUnregister)
		assert.Equal(t, ReasonNotRegistered, v.UnregisterBlock)
		require.NotNil(t, v.Facts)
		assert.Equal(t, 1, v.Facts.SlotsRemaining)
	})

	t.Run("Registered Viewer Inside Lockout", func(t *testing.T) {
		opp := base
		opp.Roster = append(registeredRoster(8, 100), Participant{UserID: viewer.UserID, Registered: true})
		now := start.Add(-3 * time.Hour)

		v, err := Describe(opp, viewer, now)
		require.NoError(t, err)
		// Both directions blocked, each with its own reason.
		assert.False(t, v.CanSignUp)
		assert.Equal(t, ReasonAlreadyRegistered, v.SignUpBlock)
		assert.False(t, v.CanUnregister)
		assert.Equal(t, ReasonLockoutWindow, v.UnregisterBlock)
	})

	t.Run("Registered Viewer Outside Lockout", func(t *testing.T) {
		opp := base
		opp.Roster = append(registeredRoster(8, 100), Participant{UserID: viewer.UserID, Registered: true})
		now := start.Add(-48 * time.Hour)

		v, err := Describe(opp, viewer, now)
		require.NoError(t, err)
		assert.True(t, v.CanUnregister)
		assert.Equal(t, ReasonNone, v.UnregisterBlock)
	})

	t.Run("Host Bypasses Lockout", func(t *testing.T) {
		opp := base
		opp.Roster = []Participant{{UserID: opp.HostID, Registered: true}}
		now := start.Add(-3 * time.Hour)

		v, err := Describe(opp, Viewer{UserID: opp.HostID}, now)
		require.NoError(t, err)
		assert.True(t, v.CanUnregister)
	})

	t.Run("Admin Bypasses Lockout", func(t *testing.T) {
		opp := base
		opp.Roster = []Participant{{UserID: 500, Registered: true}}
		now := start.Add(-3 * time.Hour)

		v, err := Describe(opp, Viewer{UserID: 500, IsAdmin: true}, now)
		require.NoError(t, err)
		assert.True(t, v.CanUnregister)
	})

	t.Run("Full Event", func(t *testing.T) {
		opp := base
		opp.TotalSlots = 5
		opp.Roster = registeredRoster(5, 100)
		now := start.Add(-48 * time.Hour)

		v, err := Describe(opp, viewer, now)
		require.NoError(t, err)
		assert.False(t, v.CanSignUp)
		assert.Equal(t, ReasonEventFull, v.SignUpBlock)
	})

	t.Run("Started Event Outranks Full", func(t *testing.T) {
		opp := base
		opp.TotalSlots = 5
		opp.Roster = registeredRoster(5, 100)
		now := start.Add(time.Hour)

		v, err := Describe(opp, viewer, now)
		require.NoError(t, err)
		assert.False(t, v.CanSignUp)
		assert.Equal(t, ReasonEventStarted, v.SignUpBlock)
	})

	t.Run("Invisible Short Circuit", func(t *testing.T) {
		opp := base
		opp.VisibilityOrgs = []int64{7}
		opp.Roster = registeredRoster(3, 100)
		now := start.Add(-48 * time.Hour)

		v, err := Describe(opp, viewer, now)
		require.NoError(t, err)
		assert.False(t, v.Visible)
		assert.False(t, v.CanSignUp)
		assert.False(t, v.CanUnregister)
		assert.Equal(t, ReasonNotVisible, v.SignUpBlock)
		assert.Equal(t, ReasonNotVisible, v.UnregisterBlock)
		// No capacity or temporal details may leak for a hidden event.
		assert.Nil(t, v.Facts)
	})

	t.Run("Invisible Skips Temporal Parse", func(t *testing.T) {
		// A hidden opportunity with garbage dates must still short-circuit
		// cleanly, since nothing beyond visibility is computed.
		opp := base
		opp.Date = "garbage"
		opp.VisibilityOrgs = []int64{7}

		v, err := Describe(opp, viewer, start)
		require.NoError(t, err)
		assert.False(t, v.Visible)
	})

	t.Run("Malformed Date Propagates", func(t *testing.T) {
		opp := base
		opp.Date = "garbage"

		_, err := Describe(opp, viewer, start)
		assert.Error(t, err)
	})
}
