// ABOUTME: Per-resource descriptors for the generic client and paged controller
// ABOUTME: Holds keys, sort/filter whitelists, confirmation copy and table layout

package resource

import (
	"fmt"
	"slices"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/apierr"
)

// Descriptor captures what differs between the managed collections.
type Descriptor[T any] struct {
	Endpoint api.Endpoint
	// Title is the display name of the collection ("Colleges").
	Title string
	// KeyLabel names the natural key in confirmation copy ("Code", "ID").
	KeyLabel string
	KeyOf    func(T) string

	// Prepare normalizes the record in place and runs local validation.
	Prepare func(*T) error

	SortKeys    []string
	DefaultSort api.Sort
	FilterKeys  []string

	// DeleteMessage is the single-delete confirmation text.
	DeleteMessage string
	// BulkDeleteMessage builds the bulk confirmation text for n records.
	BulkDeleteMessage func(n int) string

	Columns []string
	Row     func(T) []string
}

// Validate normalizes and checks item before it is sent anywhere.
func (d *Descriptor[T]) Validate(item *T) error {
	if d.Prepare == nil {
		return nil
	}
	return d.Prepare(item)
}

// CheckSort rejects sort keys the backend does not whitelist.
func (d *Descriptor[T]) CheckSort(key string) error {
	if slices.Contains(d.SortKeys, key) {
		return nil
	}
	return apierr.NewValidationError(map[string]string{
		"sort_by": fmt.Sprintf("Cannot sort %s by %q", d.Endpoint.Plural, key),
	})
}

// CheckFilter rejects filter keys the backend does not understand.
func (d *Descriptor[T]) CheckFilter(key string) error {
	if slices.Contains(d.FilterKeys, key) {
		return nil
	}
	return apierr.NewValidationError(map[string]string{
		key: fmt.Sprintf("Cannot filter %s by %q", d.Endpoint.Plural, key),
	})
}

// Colleges describes the college collection.
var Colleges = &Descriptor[College]{
	Endpoint: api.Endpoint{
		Path:      "/colleges",
		BulkField: "codes",
		Singular:  "college",
		Plural:    "colleges",
	},
	Title:       "Colleges",
	KeyLabel:    "Code",
	KeyOf:       func(c College) string { return c.Code },
	Prepare:     prepareCollege,
	SortKeys:    []string{"code", "name", "program_count"},
	DefaultSort: api.Sort{Key: "code", Direction: api.SortAsc},
	DeleteMessage: "Are you sure you want to delete this college? " +
		"This will also delete all associated programs and students.",
	BulkDeleteMessage: func(n int) string {
		return fmt.Sprintf("Delete %d colleges? This will also delete all associated programs and students.", n)
	},
	Columns: []string{"CODE", "NAME", "PROGRAMS"},
	Row: func(c College) []string {
		return []string{c.Code, c.Name, itoa(c.ProgramCount)}
	},
}

// Programs describes the program collection.
var Programs = &Descriptor[Program]{
	Endpoint: api.Endpoint{
		Path:      "/programs",
		BulkField: "codes",
		Singular:  "program",
		Plural:    "programs",
	},
	Title:         "Programs",
	KeyLabel:      "Code",
	KeyOf:         func(p Program) string { return p.Code },
	Prepare:       prepareProgram,
	SortKeys:      []string{"code", "name", "college_code", "college_name"},
	DefaultSort:   api.Sort{Key: "code", Direction: api.SortAsc},
	FilterKeys:    []string{"college_code"},
	DeleteMessage: "Are you sure you want to delete this program? This will also delete all associated students.",
	BulkDeleteMessage: func(n int) string {
		return fmt.Sprintf("Delete %d programs? This will also delete all associated students.", n)
	},
	Columns: []string{"CODE", "NAME", "COLLEGE", "STUDENTS"},
	Row: func(p Program) []string {
		return []string{p.Code, p.Name, p.CollegeCode, itoa(p.StudentCount)}
	},
}

// Students describes the student collection.
var Students = &Descriptor[Student]{
	Endpoint: api.Endpoint{
		Path:      "/students",
		BulkField: "ids",
		Singular:  "student",
		Plural:    "students",
	},
	Title:    "Students",
	KeyLabel: "ID",
	KeyOf:    func(s Student) string { return s.ID },
	Prepare:  prepareStudent,
	SortKeys: []string{
		"id", "first_name", "last_name", "year_level", "gender",
		"program_code", "program_name", "college_code", "college_name",
	},
	DefaultSort:   api.Sort{Key: "id", Direction: api.SortAsc},
	FilterKeys:    []string{"program_code", "year_level", "gender"},
	DeleteMessage: "Are you sure you want to delete this student?",
	BulkDeleteMessage: func(n int) string {
		return fmt.Sprintf("Delete %d students?", n)
	},
	Columns: []string{"ID", "NAME", "YEAR", "GENDER", "PROGRAM", "COLLEGE"},
	Row: func(s Student) []string {
		return []string{
			s.ID, s.FirstName + " " + s.LastName, itoa(s.YearLevel),
			s.Gender, s.ProgramCode, s.CollegeCode,
		}
	},
}
