package progress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTrackerFiltersByType(t *testing.T) {
	var got []int
	tr := NewTracker(func(v int) { got = append(got, v) })

	tr.OnEvent(1)
	tr.OnEvent("ignored")
	tr.OnEvent(2)

	require.Equal(t, []int{1, 2}, got)
	Nop.OnEvent(3)
}
