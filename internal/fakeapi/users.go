// ABOUTME: User accounts for the fake API with bcrypt-hashed passwords
// ABOUTME: Registration, credential checks and password changes

package fakeapi

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/registrar/internal/api"
)

type userRecord struct {
	user api.User
	hash []byte
}

// Register creates an account. Role defaults to user.
func (s *Store) Register(reg api.Registration, cost int) (api.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.FullName = strings.TrimSpace(reg.FullName)

	required := []struct{ field, value string }{
		{"username", reg.Username},
		{"email", reg.Email},
		{"password", reg.Password},
		{"full_name", reg.FullName},
	}
	for _, r := range required {
		if r.value == "" {
			return api.User{}, badRequest(r.field + " is required")
		}
	}

	role := reg.Role
	if role != api.RoleAdmin {
		role = api.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), cost)
	if err != nil {
		return api.User{}, &Error{Status: http.StatusInternalServerError, Message: "Registration failed"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.user.Username, reg.Username) {
			return api.User{}, badRequest("Username already exists")
		}
		if strings.EqualFold(u.user.Email, reg.Email) {
			return api.User{}, badRequest("Email already exists")
		}
	}

	user := api.User{
		ID:        s.nextUser,
		Username:  reg.Username,
		Email:     reg.Email,
		FullName:  reg.FullName,
		Role:      role,
		CreatedAt: s.stamp(),
	}
	s.nextUser++
	s.users[user.ID] = &userRecord{user: user, hash: hash}
	return user, nil
}

// Authenticate checks a username and password.
func (s *Store) Authenticate(username, password string) (api.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return api.User{}, badRequest("Username and password are required")
	}

	s.mu.RLock()
	var (
		user  api.User
		hash  []byte
		found bool
	)
	for _, u := range s.users {
		if strings.EqualFold(u.user.Username, strings.TrimSpace(username)) {
			user, hash, found = u.user, u.hash, true
			break
		}
	}
	s.mu.RUnlock()

	if !found || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return api.User{}, &Error{Status: http.StatusUnauthorized, Message: "Invalid username or password"}
	}
	return user, nil
}

// User looks up an account by id.
func (s *Store) User(id int64) (api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return api.User{}, notFound("User not found")
	}
	return rec.user, nil
}

// ChangePassword replaces a password after checking the current one.
func (s *Store) ChangePassword(id int64, change api.PasswordChange, cost int) error {
	if change.OldPassword == "" || change.NewPassword == "" {
		return badRequest("Old and new passwords are required")
	}

	s.mu.RLock()
	rec, ok := s.users[id]
	var current []byte
	if ok {
		current = rec.hash
	}
	s.mu.RUnlock()
	if !ok {
		return notFound("User not found")
	}
	if bcrypt.CompareHashAndPassword(current, []byte(change.OldPassword)) != nil {
		return &Error{Status: http.StatusUnauthorized, Message: "Current password is incorrect"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(change.NewPassword), cost)
	if err != nil {
		return &Error{Status: http.StatusInternalServerError, Message: "Failed to change password"}
	}

	s.mu.Lock()
	rec.hash = hash
	s.mu.Unlock()
	return nil
}
