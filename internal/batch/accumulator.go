package batch

import "github.com/opensensor/enviro_collector/internal/sample"

// Accumulator holds the rows collected during the current window. It is only
// ever touched from the collector goroutine, so there is no locking.
type Accumulator struct {
	rows []sample.Row
}

// Append adds one row to the current batch.
func (a *Accumulator) Append(r sample.Row) {
	a.rows = append(a.rows, r)
}

// Drain returns all accumulated rows and clears the accumulator. Draining an
// empty accumulator returns nil.
func (a *Accumulator) Drain() []sample.Row {
	rows := a.rows
	a.rows = nil
	return rows
}

// Len reports how many rows are waiting in the current batch.
func (a *Accumulator) Len() int {
	return len(a.rows)
}
