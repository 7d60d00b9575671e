package server

import (
	"fmt"
	"regexp"
	"strings"
)

// Field constraints owned by the request-shaping layer. The graph core
// assumes these have been applied before any mutation reaches it.
const (
	nameMaxLen     = 50
	usernameMinLen = 3
	usernameMaxLen = 20
	bioMaxLen      = 160
	postMaxLen     = 280
	avatarCount    = 10
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var validAvatars = func() map[string]struct{} {
	m := make(map[string]struct{}, avatarCount)
	for i := 1; i <= avatarCount; i++ {
		m[fmt.Sprintf("avatar_%d", i)] = struct{}{}
	}
	return m
}()

// ProfileRequest is the body for onboarding and profile updates
type ProfileRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar" binding:"required"`
}

// Validate applies the profile field constraints and trims the name.
// Returns the first violation found.
func (r *ProfileRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if len(r.Name) < 1 {
		return fmt.Errorf("name must be at least 1 character")
	}
	if len(r.Name) > nameMaxLen {
		return fmt.Errorf("name must be at most %d characters", nameMaxLen)
	}

	if len(r.Username) < usernameMinLen {
		return fmt.Errorf("username must be at least %d characters", usernameMinLen)
	}
	if len(r.Username) > usernameMaxLen {
		return fmt.Errorf("username must be at most %d characters", usernameMaxLen)
	}
	if !usernamePattern.MatchString(r.Username) {
		return fmt.Errorf("username can only contain letters, numbers, and underscores")
	}

	if len(r.Bio) > bioMaxLen {
		return fmt.Errorf("bio must be at most %d characters", bioMaxLen)
	}

	if _, ok := validAvatars[r.Avatar]; !ok {
		return fmt.Errorf("avatar must be one of avatar_1 through avatar_%d", avatarCount)
	}

	return nil
}

// PostRequest is the body for creating a post
type PostRequest struct {
	Content string `json:"content" binding:"required"`
}

// Validate applies the post content constraints
func (r *PostRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content must not be empty")
	}
	if len(r.Content) > postMaxLen {
		return fmt.Errorf("content must be at most %d characters", postMaxLen)
	}
	return nil
}
