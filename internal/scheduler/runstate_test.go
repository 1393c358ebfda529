package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunState(t *testing.T) {
	state := NewRunState()
	d := func(v string) time.Time { return date(t, v) }

	require.True(t, state.Rested("A", d("2024-01-01")))

	state.Record("A", d("2024-01-01"))
	require.False(t, state.Rested("A", d("2024-01-02")))
	require.True(t, state.Rested("A", d("2024-01-03")))
	require.True(t, state.Rested("B", d("2024-01-02")))

	state.Seed(map[string]time.Time{"A": d("2023-12-01"), "B": d("2024-01-01")})
	require.Equal(t, d("2024-01-01"), state.LastAssigned["A"], "older seed must not override")
	require.False(t, state.Rested("B", d("2024-01-02")))
}
