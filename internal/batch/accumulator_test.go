package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensensor/enviro_collector/internal/sample"
)

func row(sec int) sample.Row {
	return sample.Row{Timestamp: time.Date(2025, 6, 1, 12, 0, sec, 0, time.UTC)}
}

func TestDrainReturnsExactlyWhatWasAppended(t *testing.T) {
	var a Accumulator
	for i := 0; i < 7; i++ {
		a.Append(row(i))
	}
	require.Equal(t, 7, a.Len())

	rows := a.Drain()
	require.Len(t, rows, 7)
	for i, r := range rows {
		assert.Equal(t, row(i).Timestamp, r.Timestamp)
	}
	assert.Zero(t, a.Len())
}

func TestDrainClearsBetweenWindows(t *testing.T) {
	var a Accumulator
	a.Append(row(0))
	a.Append(row(1))
	require.Len(t, a.Drain(), 2)

	a.Append(row(2))
	rows := a.Drain()
	require.Len(t, rows, 1)
	assert.Equal(t, row(2).Timestamp, rows[0].Timestamp)
}

func TestDrainEmptyReturnsNil(t *testing.T) {
	var a Accumulator
	assert.Nil(t, a.Drain())
}
