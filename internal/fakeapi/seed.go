// ABOUTME: Sample colleges, programs, students and an admin account
// ABOUTME: Gives the devserver and end-to-end tests a realistic starting dataset

package fakeapi

import (
	"fmt"

	"github.com/2389/registrar/internal/api"
	"github.com/2389/registrar/internal/resource"
)

// Seeded admin credentials.
const (
	SeedAdminUsername = "admin"
	SeedAdminPassword = "admin123"
)

var seedColleges = []resource.College{
	{Code: "CCS", Name: "College of Computer Studies"},
	{Code: "COE", Name: "College of Engineering"},
	{Code: "CAS", Name: "College of Arts and Sciences"},
	{Code: "CBA", Name: "College of Business Administration"},
	{Code: "CED", Name: "College of Education"},
}

var seedPrograms = []resource.Program{
	{Code: "BSCS", Name: "Bachelor of Science in Computer Science", CollegeCode: "CCS"},
	{Code: "BSIT", Name: "Bachelor of Science in Information Technology", CollegeCode: "CCS"},
	{Code: "BSIS", Name: "Bachelor of Science in Information Systems", CollegeCode: "CCS"},
	{Code: "BSCE", Name: "Bachelor of Science in Civil Engineering", CollegeCode: "COE"},
	{Code: "BSEE", Name: "Bachelor of Science in Electrical Engineering", CollegeCode: "COE"},
	{Code: "BSME", Name: "Bachelor of Science in Mechanical Engineering", CollegeCode: "COE"},
	{Code: "BSBIO", Name: "Bachelor of Science in Biology", CollegeCode: "CAS"},
	{Code: "BAPSY", Name: "Bachelor of Arts in Psychology", CollegeCode: "CAS"},
	{Code: "BSA", Name: "Bachelor of Science in Accountancy", CollegeCode: "CBA"},
	{Code: "BSBA", Name: "Bachelor of Science in Business Administration", CollegeCode: "CBA"},
	{Code: "BEED", Name: "Bachelor of Elementary Education", CollegeCode: "CED"},
	{Code: "BSED", Name: "Bachelor of Secondary Education", CollegeCode: "CED"},
}

var (
	seedFirstNames = []string{"Maria", "Jose", "Ana", "Juan", "Carmen", "Miguel", "Rosa", "Pedro", "Luz", "Carlos"}
	seedLastNames  = []string{"Santos", "Reyes", "Cruz", "Bautista", "Garcia", "Mendoza", "Torres", "Flores", "Ramos", "Rivera"}
	seedGenders    = []string{"Female", "Male", "Female", "Male", "Female", "Male", "Female", "Male", "Female", "Male"}
)

// Seed loads the sample dataset into an empty store. Students are spread
// deterministically across programs and year levels.
func Seed(s *Store, bcryptCost int) error {
	if _, err := s.Register(api.Registration{
		Username: SeedAdminUsername,
		Email:    "admin@registrar.local",
		Password: SeedAdminPassword,
		FullName: "Registrar Administrator",
		Role:     api.RoleAdmin,
	}, bcryptCost); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}

	for _, c := range seedColleges {
		if _, err := s.CreateCollege(c); err != nil {
			return fmt.Errorf("seeding college %s: %w", c.Code, err)
		}
	}
	for _, p := range seedPrograms {
		if _, err := s.CreateProgram(p); err != nil {
			return fmt.Errorf("seeding program %s: %w", p.Code, err)
		}
	}

	for i := range 60 {
		st := resource.Student{
			ID:          fmt.Sprintf("%d-%04d", 2021+i%4, i+1),
			FirstName:   seedFirstNames[i%len(seedFirstNames)],
			LastName:    seedLastNames[(i/len(seedFirstNames))%len(seedLastNames)],
			YearLevel:   i%4 + 1,
			Gender:      seedGenders[i%len(seedGenders)],
			ProgramCode: seedPrograms[i%len(seedPrograms)].Code,
		}
		if _, err := s.CreateStudent(st); err != nil {
			return fmt.Errorf("seeding student %s: %w", st.ID, err)
		}
	}
	return nil
}
