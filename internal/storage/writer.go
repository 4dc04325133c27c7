// Package storage persists finished batches as immutable snappy-compressed
// parquet files under hive-style partition directories.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"

	"github.com/opensensor/enviro_collector/internal/sample"
)

// Writer persists one finished batch under one partition key.
type Writer interface {
	WriteBatch(ctx context.Context, key PartitionKey, rows []sample.Row) error
}

// dataFileName is fixed per partition, which is what gives re-flushes of the
// same key overwrite-or-ignore semantics: the last complete write wins.
const dataFileName = "data_0.parquet"

// parquetRow is the on-disk column schema. The partition columns are
// duplicated into the file so each parquet is self-describing without its
// directory path.
type parquetRow struct {
	Timestamp      time.Time `parquet:"timestamp,timestamp(millisecond)"`
	Temperature    *float64  `parquet:"temperature,optional"`
	RawTemperature *float64  `parquet:"raw_temperature,optional"`
	Pressure       *float64  `parquet:"pressure,optional"`
	Humidity       *float64  `parquet:"humidity,optional"`
	Oxidised       *float64  `parquet:"oxidised,optional"`
	Reducing       *float64  `parquet:"reducing,optional"`
	NH3            *float64  `parquet:"nh3,optional"`
	Lux            *float64  `parquet:"lux,optional"`
	Proximity      *float64  `parquet:"proximity,optional"`
	PM1            *float64  `parquet:"pm1,optional"`
	PM25           *float64  `parquet:"pm2_5,optional"`
	PM10           *float64  `parquet:"pm10,optional"`
	Particles03um  *float64  `parquet:"particles_03um,optional"`
	Particles05um  *float64  `parquet:"particles_05um,optional"`
	Particles10um  *float64  `parquet:"particles_10um,optional"`
	Particles25um  *float64  `parquet:"particles_25um,optional"`
	Particles50um  *float64  `parquet:"particles_50um,optional"`
	Particles100um *float64  `parquet:"particles_100um,optional"`
	Station        string    `parquet:"station"`
	Year           int32     `parquet:"year"`
	Month          int32     `parquet:"month"`
	Day            int32     `parquet:"day"`
	Hour           int32     `parquet:"hour"`
	MinuteBucket   int32     `parquet:"minute_bucket"`
}

// ParquetWriter writes batches under a filesystem root.
type ParquetWriter struct {
	root string
	log  logrus.FieldLogger
}

// NewParquetWriter builds a writer rooted at dir.
func NewParquetWriter(dir string, log logrus.FieldLogger) *ParquetWriter {
	return &ParquetWriter{root: dir, log: log}
}

// WriteBatch persists rows as one parquet file for key. An empty batch is a
// no-op: no directory, no file, no error. The file is written next to its
// final name and renamed into place, so a crash mid-write never leaves a
// readable partial file under the data name.
func (w *ParquetWriter) WriteBatch(ctx context.Context, key PartitionKey, rows []sample.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(w.root, filepath.FromSlash(key.Path()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create partition dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, dataFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeRows(tmp, key, rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close parquet file: %w", err)
	}

	final := filepath.Join(dir, dataFileName)
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish parquet file: %w", err)
	}

	w.log.WithFields(logrus.Fields{"rows": len(rows), "file": final}).Debug("partition file written")
	return nil
}

func writeRows(f *os.File, key PartitionKey, rows []sample.Row) error {
	pw := parquet.NewGenericWriter[parquetRow](f, parquet.Compression(&parquet.Snappy))

	out := make([]parquetRow, len(rows))
	for i, r := range rows {
		out[i] = toParquetRow(r, key)
	}
	if _, err := pw.Write(out); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	return nil
}

func toParquetRow(r sample.Row, key PartitionKey) parquetRow {
	return parquetRow{
		Timestamp:      r.Timestamp,
		Temperature:    r.Temperature,
		RawTemperature: r.RawTemperature,
		Pressure:       r.Pressure,
		Humidity:       r.Humidity,
		Oxidised:       r.Oxidised,
		Reducing:       r.Reducing,
		NH3:            r.NH3,
		Lux:            r.Lux,
		Proximity:      r.Proximity,
		PM1:            r.PM1,
		PM25:           r.PM25,
		PM10:           r.PM10,
		Particles03um:  r.Particles03um,
		Particles05um:  r.Particles05um,
		Particles10um:  r.Particles10um,
		Particles25um:  r.Particles25um,
		Particles50um:  r.Particles50um,
		Particles100um: r.Particles100um,
		Station:        key.Station,
		Year:           int32(key.Year),
		Month:          int32(key.Month),
		Day:            int32(key.Day),
		Hour:           int32(key.Hour),
		MinuteBucket:   int32(key.MinuteBucket),
	}
}
