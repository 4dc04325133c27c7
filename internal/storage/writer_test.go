package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensensor/enviro_collector/internal/sample"
)

const station = "11111111-2222-3333-4444-555555555555"

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestKeyForBucketsMinutes(t *testing.T) {
	for _, tc := range []struct {
		minute int
		bucket int
	}{
		{0, 0}, {7, 0}, {14, 0}, {15, 15}, {29, 15}, {30, 30}, {44, 30}, {45, 45}, {59, 45},
	} {
		end := time.Date(2025, 6, 1, 12, tc.minute, 0, 0, time.UTC)
		assert.Equal(t, tc.bucket, KeyFor(station, end).MinuteBucket, "minute %d", tc.minute)
	}
}

func TestKeyForUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	end := time.Date(2025, 6, 1, 2, 30, 0, 0, loc) // 23:30 UTC the previous day

	key := KeyFor(station, end)
	assert.Equal(t, 31, key.Day)
	assert.Equal(t, 5, key.Month)
	assert.Equal(t, 23, key.Hour)
	assert.Equal(t, 30, key.MinuteBucket)
}

func TestPartitionPathIsZeroPadded(t *testing.T) {
	end := time.Date(2025, 3, 7, 9, 5, 0, 0, time.UTC)
	assert.Equal(t,
		"station="+station+"/year=2025/month=03/day=07/hour=09/minute_bucket=00",
		KeyFor(station, end).Path())
}

func TestWriteBatchEmptyIsNoOp(t *testing.T) {
	root := t.TempDir()
	w := NewParquetWriter(root, testLogger())

	key := KeyFor(station, time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC))
	require.NoError(t, w.WriteBatch(context.Background(), key, nil))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "an empty batch must not create a partition")
}

func TestWriteBatchRoundTrip(t *testing.T) {
	root := t.TempDir()
	w := NewParquetWriter(root, testLogger())

	end := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)
	key := KeyFor(station, end)
	rows := []sample.Row{
		{
			Timestamp:      end.Add(-10 * time.Minute),
			Temperature:    sample.Float(21.7),
			RawTemperature: sample.Float(24.1),
			Pressure:       sample.Float(1013.2),
			Humidity:       sample.Float(48.5),
			Oxidised:       sample.Float(12.3),
			Reducing:       sample.Float(450.1),
			NH3:            sample.Float(300.9),
		},
		{
			// A cycle where the particulate sensor timed out and the light
			// sensor is absent: those columns stay null.
			Timestamp:   end.Add(-5 * time.Minute),
			Temperature: sample.Float(21.9),
		},
	}

	require.NoError(t, w.WriteBatch(context.Background(), key, rows))

	path := filepath.Join(root, filepath.FromSlash(key.Path()), "data_0.parquet")
	got, err := parquet.ReadFile[parquetRow](path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].Temperature)
	assert.InDelta(t, 21.7, *got[0].Temperature, 1e-9)
	require.NotNil(t, got[0].RawTemperature)
	assert.InDelta(t, 24.1, *got[0].RawTemperature, 1e-9)
	assert.Nil(t, got[0].PM1)

	assert.Nil(t, got[1].Lux)
	assert.Nil(t, got[1].Particles03um)
	require.NotNil(t, got[1].Temperature)

	for _, r := range got {
		assert.Equal(t, station, r.Station)
		assert.Equal(t, int32(2025), r.Year)
		assert.Equal(t, int32(6), r.Month)
		assert.Equal(t, int32(1), r.Day)
		assert.Equal(t, int32(12), r.Hour)
		assert.Equal(t, int32(15), r.MinuteBucket)
	}
}

func TestWriteBatchOverwritesSameKey(t *testing.T) {
	root := t.TempDir()
	w := NewParquetWriter(root, testLogger())

	end := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)
	key := KeyFor(station, end)

	first := []sample.Row{{Timestamp: end.Add(-time.Minute)}, {Timestamp: end.Add(-2 * time.Minute)}}
	second := []sample.Row{{Timestamp: end.Add(-30 * time.Second)}}

	require.NoError(t, w.WriteBatch(context.Background(), key, first))
	require.NoError(t, w.WriteBatch(context.Background(), key, second))

	dir := filepath.Join(root, filepath.FromSlash(key.Path()))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "re-flushing a key must not accumulate files")

	got, err := parquet.ReadFile[parquetRow](filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Len(t, got, 1, "last full write wins")
}
