// ABOUTME: In-memory colleges, programs, students and users with cascading deletes
// ABOUTME: Mirrors the backend's validation messages, search, sort whitelists and paging

package fakeapi

import (
	"cmp"
	"math"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/resource"
)

// Paging limits, matching the production backend.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

var studentIDPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

// Error is a request failure and the status it is served with.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(msg string) *Error { return &Error{Status: http.StatusBadRequest, Message: msg} }
func notFound(msg string) *Error   { return &Error{Status: http.StatusNotFound, Message: msg} }

// ListParams are the decoded list query parameters.
type ListParams struct {
	Search    string
	Page      int
	PerPage   int
	SortBy    string
	SortOrder string
	Filters   map[string]string
}

// ListResult is the list response envelope.
type ListResult[T any] struct {
	Data []T     `json:"data"`
	Meta api.Meta `json:"meta"`
}

// Store holds every record. The zero value is not usable; use NewStore.
type Store struct {
	mu       sync.RWMutex
	colleges map[string]resource.College
	programs map[string]resource.Program
	students map[string]resource.Student
	users    map[int64]*userRecord
	nextUser int64
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		colleges: make(map[string]resource.College),
		programs: make(map[string]resource.Program),
		students: make(map[string]resource.Student),
		users:    make(map[int64]*userRecord),
		nextUser: 1,
		now:      time.Now,
	}
}

func normKey(k string) string {
	return strings.ToUpper(strings.TrimSpace(k))
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// ---- colleges ----

var collegeSorts = map[string]func(a, b resource.College) int{
	"code":          func(a, b resource.College) int { return strings.Compare(a.Code, b.Code) },
	"name":          func(a, b resource.College) int { return strings.Compare(a.Name, b.Name) },
	"program_count": func(a, b resource.College) int { return cmp.Compare(a.ProgramCount, b.ProgramCount) },
}

// ListColleges searches code and name.
func (s *Store) ListColleges(p ListParams) ListResult[resource.College] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]resource.College, 0, len(s.colleges))
	for _, c := range s.colleges {
		if matches(p.Search, c.Code, c.Name) {
			rows = append(rows, s.decorateCollege(c))
		}
	}
	sortRows(rows, collegeSorts, p, "code")
	return pageOf(rows, p)
}

// CreateCollege adds a college.
func (s *Store) CreateCollege(in resource.College) (resource.College, error) {
	code := normKey(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return resource.College{}, badRequest("Code and name are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.colleges[code]; exists {
		return resource.College{}, badRequest("College code already exists")
	}
	c := resource.College{Code: code, Name: name, CreatedAt: s.stamp()}
	s.colleges[code] = c
	return s.decorateCollege(c), nil
}

// UpdateCollege replaces a college. A new code is carried to its programs.
func (s *Store) UpdateCollege(key string, in resource.College) (resource.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.colleges[normKey(key)]
	if !ok {
		return resource.College{}, notFound("College not found")
	}

	updated := old
	if code := normKey(in.Code); code != "" {
		updated.Code = code
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		updated.Name = name
	}

	if updated.Code != old.Code {
		if _, exists := s.colleges[updated.Code]; exists {
			return resource.College{}, badRequest("College code already exists")
		}
		delete(s.colleges, old.Code)
		for code, p := range s.programs {
			if p.CollegeCode == old.Code {
				p.CollegeCode = updated.Code
				s.programs[code] = p
			}
		}
	}
	s.colleges[updated.Code] = updated
	return s.decorateCollege(updated), nil
}

// DeleteCollege removes a college, its programs and their students.
func (s *Store) DeleteCollege(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := normKey(key)
	if _, ok := s.colleges[code]; !ok {
		return notFound("College not found")
	}
	s.deleteCollegeLocked(code)
	return nil
}

// BulkDeleteColleges removes every listed college that exists.
func (s *Store) BulkDeleteColleges(codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, badRequest("No codes provided")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, k := range codes {
		code := normKey(k)
		if _, ok := s.colleges[code]; ok {
			s.deleteCollegeLocked(code)
			n++
		}
	}
	return n, nil
}

func (s *Store) deleteCollegeLocked(code string) {
	delete(s.colleges, code)
	for pc, p := range s.programs {
		if p.CollegeCode == code {
			s.deleteProgramLocked(pc)
		}
	}
}

func (s *Store) decorateCollege(c resource.College) resource.College {
	c.ProgramCount = 0
	for _, p := range s.programs {
		if p.CollegeCode == c.Code {
			c.ProgramCount++
		}
	}
	return c
}

// ---- programs ----

var programSorts = map[string]func(a, b resource.Program) int{
	"code":         func(a, b resource.Program) int { return strings.Compare(a.Code, b.Code) },
	"name":         func(a, b resource.Program) int { return strings.Compare(a.Name, b.Name) },
	"college_code": func(a, b resource.Program) int { return strings.Compare(a.CollegeCode, b.CollegeCode) },
	"college_name": func(a, b resource.Program) int { return strings.Compare(a.CollegeName, b.CollegeName) },
}

// ListPrograms searches code and name and filters by college_code.
func (s *Store) ListPrograms(p ListParams) ListResult[resource.Program] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	college := normKey(p.Filters["college_code"])
	rows := make([]resource.Program, 0, len(s.programs))
	for _, pr := range s.programs {
		if college != "" && pr.CollegeCode != college {
			continue
		}
		if matches(p.Search, pr.Code, pr.Name) {
			rows = append(rows, s.decorateProgram(pr))
		}
	}
	sortRows(rows, programSorts, p, "code")
	return pageOf(rows, p)
}

// CreateProgram adds a program under an existing college.
func (s *Store) CreateProgram(in resource.Program) (resource.Program, error) {
	code := normKey(in.Code)
	name := strings.TrimSpace(in.Name)
	college := normKey(in.CollegeCode)
	if code == "" || name == "" || college == "" {
		return resource.Program{}, badRequest("Code, name, and college are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.programs[code]; exists {
		return resource.Program{}, badRequest("Program code already exists")
	}
	if _, ok := s.colleges[college]; !ok {
		return resource.Program{}, badRequest("College does not exist")
	}
	p := resource.Program{Code: code, Name: name, CollegeCode: college, CreatedAt: s.stamp()}
	s.programs[code] = p
	return s.decorateProgram(p), nil
}

// UpdateProgram replaces a program. A new code is carried to its students.
func (s *Store) UpdateProgram(key string, in resource.Program) (resource.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.programs[normKey(key)]
	if !ok {
		return resource.Program{}, notFound("Program not found")
	}

	updated := old
	if code := normKey(in.Code); code != "" {
		updated.Code = code
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		updated.Name = name
	}
	if college := normKey(in.CollegeCode); college != "" {
		if _, ok := s.colleges[college]; !ok {
			return resource.Program{}, badRequest("College does not exist")
		}
		updated.CollegeCode = college
	}

	if updated.Code != old.Code {
		if _, exists := s.programs[updated.Code]; exists {
			return resource.Program{}, badRequest("Program code already exists")
		}
		delete(s.programs, old.Code)
		for id, st := range s.students {
			if st.ProgramCode == old.Code {
				st.ProgramCode = updated.Code
				s.students[id] = st
			}
		}
	}
	s.programs[updated.Code] = updated
	return s.decorateProgram(updated), nil
}

// DeleteProgram removes a program and its students.
func (s *Store) DeleteProgram(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := normKey(key)
	if _, ok := s.programs[code]; !ok {
		return notFound("Program not found")
	}
	s.deleteProgramLocked(code)
	return nil
}

// BulkDeletePrograms removes every listed program that exists.
func (s *Store) BulkDeletePrograms(codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, badRequest("No codes provided")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, k := range codes {
		code := normKey(k)
		if _, ok := s.programs[code]; ok {
			s.deleteProgramLocked(code)
			n++
		}
	}
	return n, nil
}

func (s *Store) deleteProgramLocked(code string) {
	delete(s.programs, code)
	for id, st := range s.students {
		if st.ProgramCode == code {
			delete(s.students, id)
		}
	}
}

func (s *Store) decorateProgram(p resource.Program) resource.Program {
	p.CollegeName = s.colleges[p.CollegeCode].Name
	p.StudentCount = 0
	for _, st := range s.students {
		if st.ProgramCode == p.Code {
			p.StudentCount++
		}
	}
	return p
}

// ---- students ----

var studentSorts = map[string]func(a, b resource.Student) int{
	"id":           func(a, b resource.Student) int { return strings.Compare(a.ID, b.ID) },
	"first_name":   func(a, b resource.Student) int { return strings.Compare(a.FirstName, b.FirstName) },
	"last_name":    func(a, b resource.Student) int { return strings.Compare(a.LastName, b.LastName) },
	"year_level":   func(a, b resource.Student) int { return cmp.Compare(a.YearLevel, b.YearLevel) },
	"gender":       func(a, b resource.Student) int { return strings.Compare(a.Gender, b.Gender) },
	"program_code": func(a, b resource.Student) int { return strings.Compare(a.ProgramCode, b.ProgramCode) },
	"program_name": func(a, b resource.Student) int { return strings.Compare(a.ProgramName, b.ProgramName) },
	"college_code": func(a, b resource.Student) int { return strings.Compare(a.CollegeCode, b.CollegeCode) },
	"college_name": func(a, b resource.Student) int { return strings.Compare(a.CollegeName, b.CollegeName) },
}

// ListStudents searches id and names and filters by program_code,
// year_level and gender.
func (s *Store) ListStudents(p ListParams) ListResult[resource.Student] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	program := normKey(p.Filters["program_code"])
	gender := p.Filters["gender"]
	year, _ := strconv.Atoi(p.Filters["year_level"])

	rows := make([]resource.Student, 0, len(s.students))
	for _, st := range s.students {
		if program != "" && st.ProgramCode != program {
			continue
		}
		if year != 0 && st.YearLevel != year {
			continue
		}
		if gender != "" && !strings.EqualFold(st.Gender, gender) {
			continue
		}
		if matches(p.Search, st.ID, st.FirstName, st.LastName) {
			rows = append(rows, s.decorateStudent(st))
		}
	}
	sortRows(rows, studentSorts, p, "id")
	return pageOf(rows, p)
}

func normalizeStudent(in resource.Student) (resource.Student, error) {
	st := resource.Student{
		ID:          normKey(in.ID),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		YearLevel:   in.YearLevel,
		Gender:      strings.TrimSpace(in.Gender),
		ProgramCode: normKey(in.ProgramCode),
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
	}

	required := []struct {
		field   string
		missing bool
	}{
		{"id", st.ID == ""},
		{"first_name", st.FirstName == ""},
		{"last_name", st.LastName == ""},
		{"year_level", st.YearLevel == 0},
		{"gender", st.Gender == ""},
		{"program_code", st.ProgramCode == ""},
	}
	for _, r := range required {
		if r.missing {
			return resource.Student{}, badRequest("Missing required field: " + r.field)
		}
	}
	if !studentIDPattern.MatchString(st.ID) {
		return resource.Student{}, badRequest("Student ID must follow the format NNNN-NNNN (e.g., 2021-0001)")
	}
	return st, nil
}

// CreateStudent enrolls a student in an existing program.
func (s *Store) CreateStudent(in resource.Student) (resource.Student, error) {
	st, err := normalizeStudent(in)
	if err != nil {
		return resource.Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.students[st.ID]; exists {
		return resource.Student{}, badRequest("Student ID already exists")
	}
	if _, ok := s.programs[st.ProgramCode]; !ok {
		return resource.Student{}, badRequest("Program does not exist")
	}
	st.CreatedAt = s.stamp()
	s.students[st.ID] = st
	return s.decorateStudent(st), nil
}

// UpdateStudent replaces a student, allowing the id itself to change.
func (s *Store) UpdateStudent(key string, in resource.Student) (resource.Student, error) {
	st, err := normalizeStudent(in)
	if err != nil {
		return resource.Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.students[normKey(key)]
	if !ok {
		return resource.Student{}, notFound("Student not found")
	}
	if st.ID != old.ID {
		if _, exists := s.students[st.ID]; exists {
			return resource.Student{}, badRequest("Student ID already exists")
		}
	}
	if _, ok := s.programs[st.ProgramCode]; !ok {
		return resource.Student{}, badRequest("Program does not exist")
	}

	st.CreatedAt = old.CreatedAt
	delete(s.students, old.ID)
	s.students[st.ID] = st
	return s.decorateStudent(st), nil
}

// DeleteStudent removes a student.
func (s *Store) DeleteStudent(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := normKey(key)
	if _, ok := s.students[id]; !ok {
		return notFound("Student not found")
	}
	delete(s.students, id)
	return nil
}

// BulkDeleteStudents removes every listed student that exists.
func (s *Store) BulkDeleteStudents(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, badRequest("No ids provided")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, k := range ids {
		id := normKey(k)
		if _, ok := s.students[id]; ok {
			delete(s.students, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) decorateStudent(st resource.Student) resource.Student {
	st.FullName = st.FirstName + " " + st.LastName
	p := s.programs[st.ProgramCode]
	st.ProgramName = p.Name
	st.CollegeCode = p.CollegeCode
	st.CollegeName = s.colleges[p.CollegeCode].Name
	return st
}

// Statistics counts every collection.
func (s *Store) Statistics() api.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return api.Statistics{
		TotalStudents: len(s.students),
		TotalPrograms: len(s.programs),
		TotalColleges: len(s.colleges),
	}
}

// ---- list helpers ----

// matches is a case-insensitive substring match over any field.
func matches(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// sortRows orders by the requested whitelisted key, falling back to def.
// Ties are broken by def so pages are stable.
func sortRows[T any](rows []T, sorts map[string]func(a, b T) int, p ListParams, def string) {
	by, ok := sorts[p.SortBy]
	if !ok {
		by = sorts[def]
	}
	tie := sorts[def]
	desc := p.SortOrder == "desc"

	slices.SortStableFunc(rows, func(a, b T) int {
		c := by(a, b)
		if c == 0 {
			c = tie(a, b)
		}
		if desc {
			return -c
		}
		return c
	})
}

// pageOf slices one page. Pages past the end are empty but still report
// the real totals.
func pageOf[T any](rows []T, p ListParams) ListResult[T] {
	total := len(rows)
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.PerPage)))
	}

	start := min((p.Page-1)*p.PerPage, total)
	end := min(start+p.PerPage, total)
	data := slices.Clone(rows[start:end])
	if data == nil {
		data = []T{}
	}

	return ListResult[T]{
		Data: data,
		Meta: api.Meta{
			Page:       p.Page,
			PerPage:    p.PerPage,
			TotalPages: totalPages,
			TotalItems: total,
		},
	}
}
