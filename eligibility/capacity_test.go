package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateCapacity(t *testing.T) {
	t.Run("Counts Registered Participants", func(t *testing.T) {
		roster := []Participant{
			{UserID: 1, Registered: true},
			{UserID: 2, Registered: true},
			{UserID: 3, Registered: false},
		}
		facts := EvaluateCapacity(roster, 5, 99)
		assert.Equal(t, 2, facts.Occupied)
		assert.Equal(t, 3, facts.Remaining)
		assert.False(t, facts.IsFull)
	})

	t.Run("Host Counts Without Registered Flag", func(t *testing.T) {
		roster := []Participant{
			{UserID: 7, Registered: false}, // host, flag never set
			{UserID: 2, Registered: true},
		}
		facts := EvaluateCapacity(roster, 5, 7)
		assert.Equal(t, 2, facts.Occupied)
	})

	t.Run("Host Never Counted Twice", func(t *testing.T) {
		roster := []Participant{
			{UserID: 7, Registered: true}, // host also registered normally
			{UserID: 2, Registered: true},
		}
		facts := EvaluateCapacity(roster, 5, 7)
		assert.Equal(t, 2, facts.Occupied)
	})

	t.Run("Full Event", func(t *testing.T) {
		roster := []Participant{
			{UserID: 1, Registered: true},
			{UserID: 2, Registered: true},
		}
		facts := EvaluateCapacity(roster, 2, 99)
		assert.Equal(t, 0, facts.Remaining)
		assert.True(t, facts.IsFull)
	})

	t.Run("Remaining Never Negative", func(t *testing.T) {
		// Stale snapshot reporting more occupants than capacity: clamp.
		roster := []Participant{
			{UserID: 1, Registered: true},
			{UserID: 2, Registered: true},
			{UserID: 3, Registered: true},
		}
		facts := EvaluateCapacity(roster, 2, 99)
		assert.Equal(t, 3, facts.Occupied)
		assert.Equal(t, 0, facts.Remaining)
		assert.True(t, facts.IsFull)
	})

	t.Run("Empty Roster", func(t *testing.T) {
		facts := EvaluateCapacity(nil, 4, 99)
		assert.Equal(t, 0, facts.Occupied)
		assert.Equal(t, 4, facts.Remaining)
		assert.False(t, facts.IsFull)
	})
}
