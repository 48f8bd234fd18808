package tsv

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		tok    string
		want   float64
		wantOK bool
	}{
		{"3.5", 3.5, true},
		{"3,5", 3.5, true},
		{" -1,25e-3 ", -1.25e-3, true},
		{"12", 12, true},
		{"NaN", math.NaN(), true},
		{"1e400", math.Inf(1), true},
		{"", 0, false},
		{"m28Int", 0, false},
		{"1.0.0", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			got, ok := ParseValue(tt.tok)
			assert.Equal(t, tt.wantOK, ok)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

const sample = "Instrument log\n" +
	"1\t2\t3\t4\t5\n" + // data before the header is ignored
	"time\tm28\tm29\tm30\n" +
	"\n" +
	"0\t1,5\t2.5\t3\n" +
	"a\tb\n" + // too few tokens to qualify
	"1\t2\t3\n" +
	"2\t4\tx\t6\t99\r\n"

func TestReaderRecords(t *testing.T) {
	r := NewReader(strings.NewReader(sample))

	var recs []*Record
	for r.Next() {
		recs = append(recs, r.Record())
	}
	require.NoError(t, r.Err())
	require.Len(t, recs, 3)

	assert.Equal(t, KindHeader, recs[0].Kind)
	assert.Equal(t, 3, recs[0].Line)
	assert.Equal(t, []string{"time", "m28", "m29", "m30"}, r.Header())

	assert.Equal(t, KindData, recs[1].Kind)
	assert.Equal(t, 5, recs[1].Line)
	assert.Equal(t, []float64{0, 1.5, 2.5, 3}, recs[1].Values)
	assert.Empty(t, recs[1].Missing)

	// extra tokens beyond the header are dropped
	assert.Equal(t, KindData, recs[2].Kind)
	assert.Equal(t, 8, recs[2].Line)
	require.Len(t, recs[2].Values, 4)
	assert.True(t, math.IsNaN(recs[2].Values[2]))
	assert.Equal(t, []int{2}, recs[2].Missing)
	assert.Equal(t, 6.0, recs[2].Values[3])
}

func TestReaderShortRow(t *testing.T) {
	input := "a\tb\tc\td\te\n1\t2\t3\t4\n1\t2\t3\t4\t5\n"
	r := NewReader(strings.NewReader(input))

	var kinds []Kind
	for r.Next() {
		kinds = append(kinds, r.Record().Kind)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []Kind{KindHeader, KindShort, KindData}, kinds)
}

func TestReadHeader(t *testing.T) {
	header, line, err := ReadHeader(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, 3, line)
	assert.Equal(t, []string{"time", "m28", "m29", "m30"}, header)

	_, _, err = ReadHeader(strings.NewReader("1\t2\t3\t4\n"))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "header", KindHeader.String())
	assert.Equal(t, "short", KindShort.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
