package storage

import (
	"fmt"
	"time"
)

// bucketMinutes matches the wall-clock grid the scheduler aligns windows to.
const bucketMinutes = 15

// PartitionKey identifies one storage partition. It is derived from the
// scheduled window end, never from the flush time, so late flushes still
// land in the partition their window was supposed to fill.
type PartitionKey struct {
	Station      string
	Year         int
	Month        int
	Day          int
	Hour         int
	MinuteBucket int
}

// KeyFor derives the partition key for a batch from its window end.
func KeyFor(station string, windowEnd time.Time) PartitionKey {
	t := windowEnd.UTC()
	return PartitionKey{
		Station:      station,
		Year:         t.Year(),
		Month:        int(t.Month()),
		Day:          t.Day(),
		Hour:         t.Hour(),
		MinuteBucket: t.Minute() / bucketMinutes * bucketMinutes,
	}
}

// Path returns the hive-style partition directory, relative to the output
// root, with slash separators.
func (k PartitionKey) Path() string {
	return fmt.Sprintf("station=%s/year=%04d/month=%02d/day=%02d/hour=%02d/minute_bucket=%02d",
		k.Station, k.Year, k.Month, k.Day, k.Hour, k.MinuteBucket)
}
