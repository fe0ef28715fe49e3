package rolling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEmptyWindow(t *testing.T) {
	w := New(3)
	require.Equal(t, 0, w.Len())
	require.Equal(t, 0.0, w.Mean())
	_, ok := w.Latest()
	require.False(t, ok)
}

func TestMeanBeforeFull(t *testing.T) {
	w := New(4)
	w.Push(Sample{Raw: 10, Time: time.Now()})
	w.Push(Sample{Raw: 20, Time: time.Now()})
	require.Equal(t, 2, w.Len())
	require.InDelta(t, 15.0, w.Mean(), 0.0001)
}

func TestEvictsOldestBeyondCapacity(t *testing.T) {
	w := New(3)
	w.Push(Sample{Raw: 1})
	w.Push(Sample{Raw: 2})
	w.Push(Sample{Raw: 3})
	w.Push(Sample{Raw: 4}) // evicts the 1

	require.Equal(t, 3, w.Len())
	require.InDelta(t, 3.0, w.Mean(), 0.0001) // (2+3+4)/3
}

func TestLatestReturnsMostRecentPush(t *testing.T) {
	w := New(2)
	w.Push(Sample{Raw: 100})
	w.Push(Sample{Raw: 200})

	latest, ok := w.Latest()
	require.True(t, ok)
	require.Equal(t, uint16(200), latest.Raw)
}

func TestNonPositiveCapacityClampsToOne(t *testing.T) {
	w := New(0)
	w.Push(Sample{Raw: 5})
	w.Push(Sample{Raw: 9})
	require.Equal(t, 1, w.Len())
	require.Equal(t, 9.0, w.Mean())
}
