package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Exhaustive over the visibility state space.
func TestResolveVisibility(t *testing.T) {
	tests := []struct {
		name      string
		requested Location
		record    Location
		visible   bool
	}{
		{"pending sees pending", LocationPending, LocationPending, true},
		{"pending sees finalized", LocationPending, FinalizedAt(5), true},
		{"pending sees genesis", LocationPending, FinalizedAt(0), true},
		{"finalized never sees pending", FinalizedAt(10), LocationPending, false},
		{"same block", FinalizedAt(5), FinalizedAt(5), true},
		{"older record", FinalizedAt(5), FinalizedAt(4), true},
		{"newer record", FinalizedAt(5), FinalizedAt(6), false},
		{"genesis request, genesis record", FinalizedAt(0), FinalizedAt(0), true},
		{"genesis request, later record", FinalizedAt(0), FinalizedAt(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, ResolveVisibility(tt.requested, tt.record))
		})
	}
}
