// ABOUTME: Authentication and statistics endpoints of the registrar API
// ABOUTME: Login, registration, current-user lookup, password change and dashboard counts

package api

import (
	"context"
	"net/http"
)

// Role is the authorization level of a user account.
type Role string

// Known roles.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is the identity summary returned by the auth endpoints.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FullName  string `json:"full_name"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the login response body.
type LoginResponse struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// Registration is the profile submitted to create an account.
type Registration struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Role     Role   `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}

// registerResponse wraps the created user.
type registerResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// PasswordChange is the change-password request body.
type PasswordChange struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// Statistics are the dashboard totals.
type Statistics struct {
	TotalStudents int `json:"total_students"`
	TotalPrograms int `json:"total_programs"`
	TotalColleges int `json:"total_colleges"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     creds,
		fallback: "Login failed",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a user account and returns it.
func (c *Client) Register(ctx context.Context, reg Registration) (*User, error) {
	var out registerResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/register",
		body:     reg,
		fallback: "Registration failed",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/auth/me",
		fallback: "Failed to fetch current user",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the current user's password.
func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/change-password",
		body:     change,
		fallback: "Failed to change password",
	}, nil)
}

// Statistics returns the record counts shown on the dashboard.
func (c *Client) Statistics(ctx context.Context) (*Statistics, error) {
	var out Statistics
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/statistics",
		fallback: "Failed to fetch statistics",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
