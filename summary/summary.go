// Package summary aggregates stored records into a one-line report.
package summary

import (
	"fmt"
	"strconv"

	"github.com/kjk/weatherlog/record"
)

// NoNumericField disables summing, the summary has only the count
const NoNumericField = ""

// DefaultNumericField is the field summed when not configured
const DefaultNumericField = "high"

type Totals struct {
	Count int
	// Field is the summed field, NoNumericField if none
	Field string
	Total int64
	// number of records whose value of Field is not an integer.
	// Empty and missing values are counted too
	Skipped int
}

// Compute counts records and sums integer values of numericField.
// Values that are missing, empty or not an integer count as 0.
// This is intentional: a summary over hand-entered data shouldn't fail
// because of one bad value.
func Compute(records []record.Record, numericField string) Totals {
	res := Totals{
		Count: len(records),
		Field: numericField,
	}
	if numericField == NoNumericField {
		return res
	}
	for _, r := range records {
		v, ok := r.Get(numericField)
		if !ok || v == "" {
			res.Skipped++
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Total += n
	}
	return res
}

// String formats as "count=<N>, <field>_total=<T>" or "count=<N>"
func (t Totals) String() string {
	if t.Field == NoNumericField {
		return fmt.Sprintf("count=%d", t.Count)
	}
	return fmt.Sprintf("count=%d, %s_total=%d", t.Count, t.Field, t.Total)
}

// Summarize returns a one-line summary of records
func Summarize(records []record.Record, numericField string) string {
	return Compute(records, numericField).String()
}
