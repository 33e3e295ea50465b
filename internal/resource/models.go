// ABOUTME: College, Program and Student record types with local normalization
// ABOUTME: Validation tags mirror the backend's required fields and formats

package resource

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/2389/registrar/internal/validate"
)

// College is a top-level academic unit keyed by code.
type College struct {
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required"`
	ProgramCount int    `json:"program_count,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Normalize trims input and upper-cases the code.
func (c *College) Normalize() {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Name = strings.TrimSpace(c.Name)
}

// Program belongs to a college and is keyed by code.
type Program struct {
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required"`
	CollegeCode  string `json:"college_code" validate:"required"`
	CollegeName  string `json:"college_name,omitempty"`
	StudentCount int    `json:"student_count,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Normalize trims input and upper-cases codes.
func (p *Program) Normalize() {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.Name = strings.TrimSpace(p.Name)
	p.CollegeCode = strings.ToUpper(strings.TrimSpace(p.CollegeCode))
}

// Student is enrolled in a program and keyed by a NNNN-NNNN id.
type Student struct {
	ID          string `json:"id" validate:"required,studentid"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	YearLevel   int    `json:"year_level" validate:"required,min=1,max=5"`
	Gender      string `json:"gender" validate:"required"`
	ProgramCode string `json:"program_code" validate:"required"`
	PhotoURL    string `json:"photo_url,omitempty"`

	// Server-computed, ignored on write
	FullName    string `json:"full_name,omitempty"`
	ProgramName string `json:"program_name,omitempty"`
	CollegeCode string `json:"college_code,omitempty"`
	CollegeName string `json:"college_name,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Normalize trims input and upper-cases the id and program code.
func (s *Student) Normalize() {
	s.ID = strings.ToUpper(strings.TrimSpace(s.ID))
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Gender = strings.TrimSpace(s.Gender)
	s.ProgramCode = strings.ToUpper(strings.TrimSpace(s.ProgramCode))
}

// PhotoUploader stores an image and returns its public URL.
type PhotoUploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)
}

// AttachPhoto uploads a new photo and points the record at it. Call it
// before submitting the student so the create/update carries the URL.
func (s *Student) AttachPhoto(ctx context.Context, up PhotoUploader, r io.Reader, filename string) error {
	url, err := up.Upload(ctx, r, filename)
	if err != nil {
		return fmt.Errorf("uploading photo: %w", err)
	}
	s.PhotoURL = url
	return nil
}

func prepareCollege(c *College) error {
	c.Normalize()
	return validate.Struct(c)
}

func prepareProgram(p *Program) error {
	p.Normalize()
	return validate.Struct(p)
}

func prepareStudent(s *Student) error {
	s.Normalize()
	return validate.Struct(s)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
