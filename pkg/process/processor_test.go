package process

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/MassDecomposer/pkg/core"
	"github.com/ChrisMcGann/MassDecomposer/pkg/decompose"
	"github.com/ChrisMcGann/MassDecomposer/pkg/reader/tsv"
)

func abModel() *core.Model {
	return &core.Model{Molecules: []core.Molecule{
		{Name: "A", Peaks: map[string]float64{"p1": 1.0}},
		{Name: "B", Peaks: map[string]float64{"p2": 1.0}},
	}}
}

type fakeStore struct {
	runs    []*core.Run
	results []*core.Result
	ended   []error
}

func (s *fakeStore) BeginRun(run *core.Run) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) WriteResult(res *core.Result) error {
	s.results = append(s.results, res)
	return nil
}

func (s *fakeStore) EndRun(runErr error) error {
	s.ended = append(s.ended, runErr)
	return nil
}

func newTestProcessor(model *core.Model, opts Options) (*Processor, *bytes.Buffer) {
	var logs bytes.Buffer
	return New(model, zerolog.New(&logs), opts), &logs
}

// parseOutput splits output lines into header tokens and numeric rows.
func parseOutput(t *testing.T, out string) ([]string, [][]float64) {
	t.Helper()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.NotEmpty(t, lines)

	var rows [][]float64
	for _, line := range lines[1:] {
		var row []float64
		for _, tok := range strings.Split(line, "\t") {
			v, ok := tsv.ParseValue(tok)
			require.True(t, ok, "token %q", tok)
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return strings.Split(lines[0], "\t"), rows
}

func TestProcessTwoMolecules(t *testing.T) {
	p, _ := newTestProcessor(abModel(), Options{})
	input := "# run 7\np1\tp2\tt1\tt2\n3\t4\t10\t11\n6,5\t1\t12\t13\n"

	var out bytes.Buffer
	sum, err := p.Process(context.Background(), "run7.txt", strings.NewReader(input), &out, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.HeaderLine)
	assert.Equal(t, 2, sum.Rows)
	assert.Equal(t, 2, sum.Rank)
	assert.InDelta(t, 1.0, sum.Condition, 1e-12)

	header, rows := parseOutput(t, out.String())
	assert.Equal(t, []string{"p1", "p2", "t1", "t2", "A", "B", "rdp1", "rdp2"}, header)
	require.Len(t, rows, 2)
	assert.InDeltaSlice(t, []float64{3, 4, 10, 11, 3, 4, 0, 0}, rows[0], 1e-9)
	assert.InDeltaSlice(t, []float64{6.5, 1, 12, 13, 6.5, 1, 0, 0}, rows[1], 1e-9)
}

func TestProcessSkipsShortRows(t *testing.T) {
	p, logs := newTestProcessor(abModel(), Options{})
	input := "p1\tp2\tt1\tt2\tt3\n1\t2\t3\t4\n5\t6\t7\t8\t9\n"

	var out bytes.Buffer
	sum, err := p.Process(context.Background(), "in.txt", strings.NewReader(input), &out, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Rows)
	_, rows := parseOutput(t, out.String())
	require.Len(t, rows, 1)
	assert.InDelta(t, 5.0, rows[0][0], 1e-12)
	assert.Contains(t, logs.String(), "too few values")
}

func TestProcessConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		model   *core.Model
		wantErr error
	}{
		{
			name: "shared single peak",
			model: &core.Model{Molecules: []core.Molecule{
				{Name: "A", Peaks: map[string]float64{"p1": 1.0}},
				{Name: "B", Peaks: map[string]float64{"p1": 1.0}},
			}},
			wantErr: decompose.ErrAmbiguousModel,
		},
		{
			name: "peak not in header",
			model: &core.Model{Molecules: []core.Molecule{
				{Name: "A", Peaks: map[string]float64{"m99": 1.0}},
			}},
			wantErr: decompose.ErrUnknownPeak,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			p, _ := newTestProcessor(tt.model, Options{Store: store})

			var out bytes.Buffer
			_, err := p.Process(context.Background(), "in.txt",
				strings.NewReader("p1\tp2\tp3\tp4\n1\t2\t3\t4\n"), &out, nil)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsConfigError(err))
			assert.Empty(t, store.runs)
			assert.Empty(t, store.ended)
		})
	}
}

func TestProcessPropagatesUnparseableValues(t *testing.T) {
	p, logs := newTestProcessor(abModel(), Options{})
	input := "p1\tp2\tt1\tt2\n3\tbad\t1\t1\n"

	var out bytes.Buffer
	sum, err := p.Process(context.Background(), "in.txt", strings.NewReader(input), &out, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Rows)
	assert.Equal(t, 1, sum.InvalidValues)
	assert.Contains(t, logs.String(), "unparseable values")

	_, rows := parseOutput(t, out.String())
	require.Len(t, rows, 1)
	assert.True(t, math.IsNaN(rows[0][1]))
	assert.True(t, math.IsNaN(rows[0][5]))
}

func TestProcessDecimalSeparator(t *testing.T) {
	model := abModel()
	model.DecimalSeparator = ","
	p, _ := newTestProcessor(model, Options{})

	var out bytes.Buffer
	_, err := p.Process(context.Background(), "in.txt",
		strings.NewReader("p1\tp2\tt1\tt2\n0.5\t2.25\t1\t1\n"), &out, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "0,5\t2,25\t1\t1\t"))
	assert.NotContains(t, lines[1], ".")
}

func TestProcessWeightsAndUnusedPeaks(t *testing.T) {
	model := &core.Model{
		Molecules: []core.Molecule{
			{Name: "A", Peaks: map[string]float64{"p1": 1.0, "p3": 0.5}},
			{Name: "B", Peaks: map[string]float64{"p2": 1.0, "p3": 0.5}},
		},
		Weights: map[string]float64{"p3": 0, "m99": 2},
	}
	p, logs := newTestProcessor(model, Options{})

	var out bytes.Buffer
	sum, err := p.Process(context.Background(), "in.txt",
		strings.NewReader("time\tp1\tp2\tp3\n1\t2\t5\t100\n"), &out, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"m99"}, sum.Unmatched)
	assert.Contains(t, logs.String(), "weight override does not match")

	header, rows := parseOutput(t, out.String())
	assert.Equal(t, []string{"time", "p1", "p2", "p3", "A", "B", "rdp1", "rdp2", "rdp3"}, header)
	assert.InDeltaSlice(t, []float64{1, 2, 5, 100, 2, 5, 0, 0, 96.5}, rows[0], 1e-9)
}

func TestProcessStore(t *testing.T) {
	store := &fakeStore{}
	p, _ := newTestProcessor(abModel(), Options{Store: store})

	var out bytes.Buffer
	_, err := p.Process(context.Background(), "in.txt",
		strings.NewReader("p1\tp2\tt1\tt2\n3\t4\t0\t0\nx\t1\t0\t0\n"), &out, nil)
	require.NoError(t, err)

	require.Len(t, store.runs, 1)
	assert.Equal(t, "in.txt", store.runs[0].SourceFile)
	assert.Equal(t, []string{"p1", "p2"}, store.runs[0].UsedPeaks)
	require.Len(t, store.results, 2)
	assert.Equal(t, 2, store.results[0].Line)
	assert.InDeltaSlice(t, []float64{3, 4}, store.results[0].Abundances, 1e-9)
	assert.Equal(t, []string{"p1"}, store.results[1].Missing)
	assert.Equal(t, []error{nil}, store.ended)
}

func TestProcessCancelled(t *testing.T) {
	store := &fakeStore{}
	p, _ := newTestProcessor(abModel(), Options{Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := p.Process(ctx, "in.txt", strings.NewReader("p1\tp2\tt1\tt2\n3\t4\t0\t0\n"), &out, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsConfigError(err))
	assert.Empty(t, store.runs)
}

func TestProcessNoHeader(t *testing.T) {
	p, _ := newTestProcessor(abModel(), Options{})

	var out bytes.Buffer
	_, err := p.Process(context.Background(), "in.txt", strings.NewReader("1\t2\t3\t4\n"), &out, nil)
	assert.ErrorIs(t, err, tsv.ErrNoHeader)
}

func TestProcessDiagnostics(t *testing.T) {
	p, _ := newTestProcessor(abModel(), Options{})

	var out, diagOut bytes.Buffer
	_, err := p.Process(context.Background(), "in.txt",
		strings.NewReader("p1\tp2\tt1\tt2\n3\t4\t0\t0\n"), &out, &diagOut)
	require.NoError(t, err)

	assert.Contains(t, diagOut.String(), "condition value = ")
	assert.Contains(t, diagOut.String(), "inverse matrix\n")
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "run.txt")
	outPath := filepath.Join(dir, "run_proc.txt")
	require.NoError(t, os.WriteFile(in, []byte("p1\tp2\tt1\tt2\n3\t4\t0\t0\n1\t2\n"), 0644))

	p, _ := newTestProcessor(abModel(), Options{Diagnostics: true})
	sum, err := p.ProcessFile(context.Background(), in, outPath)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Rows)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	_, rows := parseOutput(t, string(data))
	assert.Len(t, rows, 1)

	_, err = os.Stat(filepath.Join(dir, "run_proc_matrix.txt"))
	assert.NoError(t, err)
}

func TestProcessFileConfigErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "run.txt")
	outPath := filepath.Join(dir, "run_proc.txt")
	require.NoError(t, os.WriteFile(in, []byte("p1\tq2\tt1\tt2\n3\t4\t0\t0\n"), 0644))

	p, _ := newTestProcessor(abModel(), Options{Diagnostics: true})
	_, err := p.ProcessFile(context.Background(), in, outPath)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	_, err = os.Stat(outPath)
	assert.True(t, os.IsNotExist(err))
}

func TestCheck(t *testing.T) {
	p, _ := newTestProcessor(core.DefaultModel(), Options{})
	header := "time\tm28Int\tm29Int\tm30Int\tm31Int\tm44Int\tm45Int\tm46Int\tm47Int\n"

	sum, err := p.Check("in.txt", strings.NewReader("log line\n"+header))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.HeaderLine)
	assert.Equal(t, 6, sum.Rank)
	assert.Greater(t, sum.Condition, 1.0)

	_, err = p.Check("in.txt", strings.NewReader("time\tm28Int\tm29Int\tm30Int\n"))
	assert.True(t, IsConfigError(err))
}

func TestProcessWarnsOnRankDeficientWeights(t *testing.T) {
	model := abModel()
	model.Weights = map[string]float64{"p2": 0}
	p, logs := newTestProcessor(model, Options{})

	var out bytes.Buffer
	sum, err := p.Process(context.Background(), "in.txt",
		strings.NewReader("p1\tp2\tt1\tt2\n3\t4\t0\t0\n"), &out, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Rank)
	assert.Equal(t, 1, sum.WeightedRank)
	assert.Greater(t, sum.Condition, 1e12)
	assert.Contains(t, logs.String(), "rank-deficient")

	_, rows := parseOutput(t, out.String())
	require.Len(t, rows, 1)
	assert.InDeltaSlice(t, []float64{3, 4, 0, 0, 3, 0, 0, 4}, rows[0], 1e-9)
}

func TestProcessFullRankWeightsDoNotWarn(t *testing.T) {
	p, logs := newTestProcessor(abModel(), Options{})

	var out bytes.Buffer
	sum, err := p.Process(context.Background(), "in.txt",
		strings.NewReader("p1\tp2\tt1\tt2\n3\t4\t0\t0\n"), &out, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.WeightedRank)
	assert.NotContains(t, logs.String(), "rank-deficient")
}

// outputCheckingStore records whether the output file existed when the run
// was committed.
type outputCheckingStore struct {
	fakeStore
	outPath string
	existed []bool
}

func (s *outputCheckingStore) EndRun(runErr error) error {
	_, err := os.Stat(s.outPath)
	s.existed = append(s.existed, err == nil)
	return s.fakeStore.EndRun(runErr)
}

func TestProcessFileCommitsAfterOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "run.txt")
	require.NoError(t, os.WriteFile(in, []byte("p1\tp2\tt1\tt2\n3\t4\t0\t0\n"), 0644))

	t.Run("output written before commit", func(t *testing.T) {
		outPath := filepath.Join(dir, "run_proc.txt")
		store := &outputCheckingStore{outPath: outPath}
		p, _ := newTestProcessor(abModel(), Options{Store: store})

		_, err := p.ProcessFile(context.Background(), in, outPath)
		require.NoError(t, err)
		require.Len(t, store.ended, 1)
		assert.NoError(t, store.ended[0])
		assert.Equal(t, []bool{true}, store.existed)
	})

	t.Run("failed output write rolls back", func(t *testing.T) {
		outPath := filepath.Join(dir, "missing", "run_proc.txt")
		store := &outputCheckingStore{outPath: outPath}
		p, _ := newTestProcessor(abModel(), Options{Store: store})

		_, err := p.ProcessFile(context.Background(), in, outPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to write output file")
		require.Len(t, store.runs, 1)
		require.Len(t, store.ended, 1)
		assert.Error(t, store.ended[0])
	})
}
