package summary

import (
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/weatherlog/record"
)

func highs(vals ...string) []record.Record {
	var res []record.Record
	for _, v := range vals {
		res = append(res, record.Record{"day": "x", "condition": "", "high": v, "low": ""})
	}
	return res
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		records []record.Record
		field   string
		exp     string
	}{
		{highs("10", "", "abc", "5"), "high", "count=4, high_total=15"},
		{nil, "high", "count=0, high_total=0"},
		{highs("-3", "+4", "1.5", " 7"), "high", "count=4, high_total=1"},
		{highs("10", "20"), "low", "count=2, low_total=0"},
		{highs("10", "20"), NoNumericField, "count=2"},
		{nil, NoNumericField, "count=0"},
		// missing key
		{[]record.Record{{"day": "Mon"}, {"high": "7"}}, "high", "count=2, high_total=7"},
		{highs("9223372036854775807"), "high", "count=1, high_total=9223372036854775807"},
	}
	for _, test := range tests {
		got := Summarize(test.records, test.field)
		assert.Equal(t, test.exp, got)
	}
}

func TestCompute(t *testing.T) {
	res := Compute(highs("10", "", "abc", "5"), DefaultNumericField)
	assert.Equal(t, Totals{Count: 4, Field: "high", Total: 15, Skipped: 2}, res)

	res = Compute(highs("10", "abc"), NoNumericField)
	assert.Equal(t, Totals{Count: 2}, res)
	assert.Equal(t, "count=2", res.String())
}
