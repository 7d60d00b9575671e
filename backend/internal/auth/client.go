package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"flock/backend/pkg/logger"
)

const clerkAPIBaseURL = "https://api.clerk.com/v1"

// Client talks to the Clerk backend API. It is only used by the
// onboarding flow; profile content lives in the graph, Clerk owns just
// the identity and the onboarded flag.
type Client struct {
	rest   *resty.Client
	logger *zap.Logger
}

// NewClient creates a Clerk backend API client authenticated with the
// instance secret key
func NewClient(secretKey string) *Client {
	return &Client{
		rest: resty.New().
			SetBaseURL(clerkAPIBaseURL).
			SetAuthToken(secretKey).
			SetHeader("Content-Type", "application/json").
			SetTimeout(10 * time.Second),
		logger: logger.Get(),
	}
}

// backendUser mirrors the fields of Clerk's user object we consume
type backendUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	PrimaryEmailID string `json:"primary_email_address_id"`
	EmailAddresses []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// AccountDetails is identity data fetched from Clerk for onboarding
type AccountDetails struct {
	ID       string
	Email    string
	Name     string
	ImageURL string
}

// FetchUser retrieves account details for a user from the Clerk backend API
func (c *Client) FetchUser(ctx context.Context, userID string) (*AccountDetails, error) {
	var user backendUser
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&user).
		Get("/users/" + userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Clerk user: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Clerk API returned %s for user %s", resp.Status(), userID)
	}

	details := &AccountDetails{
		ID:       user.ID,
		Name:     joinName(user.FirstName, user.LastName),
		ImageURL: user.ImageURL,
	}
	for _, addr := range user.EmailAddresses {
		if addr.ID == user.PrimaryEmailID {
			details.Email = addr.EmailAddress
			break
		}
	}
	if details.Email == "" && len(user.EmailAddresses) > 0 {
		details.Email = user.EmailAddresses[0].EmailAddress
	}

	return details, nil
}

// SetOnboarded marks the user's onboarding status in Clerk public
// metadata. Best-effort from the caller's perspective: the graph is the
// source of truth for the profile, so onboarding must not fail on a
// metadata write.
func (c *Client) SetOnboarded(ctx context.Context, userID string, onboarded bool) error {
	payload := map[string]interface{}{
		"public_metadata": map[string]interface{}{
			"onboarded": onboarded,
		},
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(payload).
		Patch("/users/" + userID + "/metadata")
	if err != nil {
		return fmt.Errorf("failed to update Clerk metadata: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("Clerk metadata update returned %s for user %s", resp.Status(), userID)
	}

	c.logger.Debug("Clerk onboarded metadata updated",
		zap.String("user_id", userID),
		zap.Bool("onboarded", onboarded),
	)
	return nil
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
