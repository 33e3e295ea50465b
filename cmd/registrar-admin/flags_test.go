package main

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/resource"
)

func TestParseFlags(t *testing.T) {
	fs := parseFlags([]string{"CCS", "--name", "College of Computing", "--year-level=3", "-o", "out.xlsx", "--verbose"},
		map[string]string{"-o": "output"})

	assert.Equal(t, []string{"CCS"}, fs.positional)
	assert.Equal(t, "College of Computing", fs.get("name"))
	assert.Equal(t, "3", fs.get("year_level"))
	assert.Equal(t, "out.xlsx", fs.get("output"))
	assert.Equal(t, "true", fs.get("verbose"))

	n, err := fs.intValue("year_level", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = fs.intValue("name", 0)
	assert.ErrorContains(t, err, "--name must be a number")

	assert.ErrorContains(t, fs.unknown("name", "year_level", "output"), "--verbose")
}

func TestQueryFromFlags(t *testing.T) {
	rc := recordCommands[resource.Student]{desc: resource.Students}

	fs := parseFlags([]string{"--search", "santos", "--sort", "last_name:desc", "--page", "2", "--gender", "Female"}, nil)
	q, err := rc.queryFromFlags(fs, 10)
	require.NoError(t, err)
	assert.Equal(t, "santos", q.Search)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 10, q.PageSize)
	assert.Equal(t, &api.Sort{Key: "last_name", Direction: api.SortDesc}, q.Sort)
	assert.Equal(t, map[string]string{"gender": "Female"}, q.Filters)

	_, err = rc.queryFromFlags(parseFlags([]string{"--college_code", "CCS"}, nil), 10)
	assert.ErrorContains(t, err, "unknown flag --college-code")
}

func TestStudentFieldsFromFlags(t *testing.T) {
	rc := studentCommands(&app{})
	fs := parseFlags([]string{"--id", "2024-0001", "--year", "2", "--program", "bscs"}, nil)

	var s resource.Student
	require.NoError(t, rc.set(fs, &s))
	assert.Equal(t, "2024-0001", s.ID)
	assert.Equal(t, 2, s.YearLevel)
	assert.Equal(t, "bscs", s.ProgramCode)
}

func TestLineReader(t *testing.T) {
	lr := &lineReader{r: bufio.NewReader(strings.NewReader(" yes \nlast"))}

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.True(t, isYes(line))

	line, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}
