package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/resource"
)

type pagedColleges struct {
	rows  []resource.College
	calls []api.Query
	err   error
}

func (p *pagedColleges) List(_ context.Context, q api.Query) (*api.Page[resource.College], error) {
	p.calls = append(p.calls, q)
	if p.err != nil {
		return nil, p.err
	}
	start := min((q.Page-1)*q.PageSize, len(p.rows))
	end := min(start+q.PageSize, len(p.rows))
	return &api.Page[resource.College]{
		Items:      p.rows[start:end],
		TotalItems: len(p.rows),
		TotalPages: (len(p.rows) + q.PageSize - 1) / q.PageSize,
	}, nil
}

func colleges(n int) []resource.College {
	out := make([]resource.College, n)
	for i := range out {
		out[i] = resource.College{Code: "C" + string(rune('A'+i%26)) + string(rune('A'+i/26)), Name: "College"}
	}
	return out
}

func TestCollect_WalksEveryPage(t *testing.T) {
	src := &pagedColleges{rows: colleges(250)}
	q := api.Query{Search: "x", Page: 3, PageSize: 10}

	rows, err := Collect[resource.College](context.Background(), src, q)
	require.NoError(t, err)
	assert.Len(t, rows, 250)
	require.Len(t, src.calls, 3)
	for i, call := range src.calls {
		assert.Equal(t, i+1, call.Page)
		assert.Equal(t, BatchSize, call.PageSize)
		assert.Equal(t, "x", call.Search)
	}
	assert.Equal(t, 3, q.Page, "caller's query is untouched")
}

func TestCollect_Empty(t *testing.T) {
	src := &pagedColleges{}
	rows, err := Collect[resource.College](context.Background(), src, api.Query{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Len(t, src.calls, 1)
}

func TestCollect_Error(t *testing.T) {
	src := &pagedColleges{err: errors.New("boom")}
	_, err := Collect[resource.College](context.Background(), src, api.Query{})
	assert.ErrorContains(t, err, "boom")
}

func TestWriteXLSX(t *testing.T) {
	rows := []resource.College{
		{Code: "CCS", Name: "College of Computer Studies", ProgramCount: 3},
		{Code: "COE", Name: "College of Engineering"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, resource.Colleges, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Colleges"}, f.GetSheetList())
	got, err := f.GetRows("Colleges")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, resource.Colleges.Columns, got[0])
	assert.Equal(t, resource.Colleges.Row(rows[0]), got[1])
	assert.Equal(t, "COE", got[2][0])
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "students_20250102_150405.xlsx", Filename(resource.Students, now))
}
