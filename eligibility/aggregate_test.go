package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeSeries(t *testing.T) {
	loc := eastern(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, loc)
	viewer := Viewer{UserID: 500}

	first := Opportunity{
		ID: 10, Date: "2026-06-10", StartTime: "09:00", DurationMinutes: 60,
		TotalSlots: 10, HostID: 100,
		Roster: []Participant{
			{UserID: 42, Name: "Jordan Lee", Registered: true},
			{UserID: 43, Name: "Sam Ortiz", Registered: true},
		},
	}
	second := Opportunity{
		ID: 11, Date: "2026-06-17", StartTime: "09:00", DurationMinutes: 60,
		TotalSlots: 10, HostID: 100,
		Roster: []Participant{
			{UserID: 42, Name: "JORDAN LEE", Registered: true, Attended: true},
			{UserID: 44, Name: "Ana Cruz", Registered: true},
		},
	}

	t.Run("Deduplicates Across Occurrences", func(t *testing.T) {
		// Pass occurrences out of order to prove chronological sorting.
		view, err := DescribeSeries([]Opportunity{second, first}, viewer, now)
		require.NoError(t, err)

		require.Len(t, view.Occurrences, 2)
		assert.Equal(t, int64(10), view.Occurrences[0].OpportunityID)
		assert.Equal(t, int64(11), view.Occurrences[1].OpportunityID)

		require.Len(t, view.Participants, 3)
		var entry *Participant
		for i := range view.Participants {
			if view.Participants[i].UserID == 42 {
				entry = &view.Participants[i]
			}
		}
		require.NotNil(t, entry, "user 42 must appear exactly once")
		// Chronologically-first occurrence wins for display fields.
		assert.Equal(t, "Jordan Lee", entry.Name)
		// Flags accumulate across occurrences.
		assert.True(t, entry.Attended)
	})

	t.Run("Hidden Occurrence Contributes Nothing", func(t *testing.T) {
		restricted := first
		restricted.VisibilityOrgs = []int64{7}
		view, err := DescribeSeries([]Opportunity{restricted, second}, viewer, now)
		require.NoError(t, err)

		assert.False(t, view.Occurrences[0].Verdict.Visible)
		for _, p := range view.Participants {
			assert.NotEqual(t, int64(43), p.UserID)
		}
	})
}

func TestTopOrganizations(t *testing.T) {
	roster := []Participant{
		{UserID: 1, Registered: true, OrgIDs: []int64{7, 12}},
		{UserID: 2, Registered: true, OrgIDs: []int64{7}},
		{UserID: 3, Registered: true, OrgIDs: []int64{7, 12, 30}},
		{UserID: 4, Registered: true, OrgIDs: []int64{12, 55}},
		{UserID: 5, Registered: true, OrgIDs: []int64{55, 61}},
		{UserID: 6, Registered: true, OrgIDs: []int64{61}},
		{UserID: 7, Registered: false, OrgIDs: []int64{30}}, // unregistered, ignored
	}

	t.Run("Ranked By Count Top Three", func(t *testing.T) {
		top := TopOrganizations(roster)
		require.Len(t, top, 3)
		assert.Equal(t, OrgCount{OrgID: 7, Count: 3}, top[0])
		assert.Equal(t, OrgCount{OrgID: 12, Count: 3}, top[1])
		// 55 and 61 both have two members; lower org id wins the last spot.
		assert.Equal(t, OrgCount{OrgID: 55, Count: 2}, top[2])
	})

	t.Run("Singleton Orgs Excluded", func(t *testing.T) {
		top := TopOrganizations([]Participant{
			{UserID: 1, Registered: true, OrgIDs: []int64{7}},
			{UserID: 2, Registered: true, OrgIDs: []int64{9}},
		})
		assert.Empty(t, top)
	})
}
