package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVisible(t *testing.T) {
	t.Run("Empty Set Is Public", func(t *testing.T) {
		assert.True(t, IsVisible(nil, nil, false))
		assert.True(t, IsVisible([]int64{}, []int64{3, 9}, false))
	})

	t.Run("Admin Overrides Restriction", func(t *testing.T) {
		assert.True(t, IsVisible([]int64{7}, nil, true))
	})

	t.Run("Member Of Listed Org", func(t *testing.T) {
		assert.True(t, IsVisible([]int64{7, 12}, []int64{3, 12}, false))
	})

	t.Run("Disjoint Orgs Hidden", func(t *testing.T) {
		assert.False(t, IsVisible([]int64{7}, []int64{3, 9}, false))
	})

	t.Run("No Memberships Hidden", func(t *testing.T) {
		assert.False(t, IsVisible([]int64{7}, nil, false))
	})
}
