// Package auth provides the Google OAuth2 session for fiscal-fetch.
//
// It loads credentials.json and token.json from the configured
// credentials directory and returns an authenticated Gmail service
// along with the operator's own address, which the query builder needs
// for its not-from-self filter.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/diasulisses/fiscal-fetch/internal/display"
)

// Scopes requested from Google. The tool only ever reads mail.
var Scopes = []string{gmail.GmailReadonlyScope}

// Session is an authenticated Gmail API session.
type Session struct {
	Service *gmail.Service
	Email   string // the authenticated user's address
}

// NewSession authenticates against Gmail using credentials.json and
// token.json in credDir. Any failure here is fatal to the run: nothing
// is fetched or written without a usable session.
func NewSession(ctx context.Context, credDir string) (*Session, error) {
	config, err := loadOAuthConfig(filepath.Join(credDir, "credentials.json"))
	if err != nil {
		return nil, err
	}

	tokenPath := filepath.Join(credDir, "token.json")
	token, err := loadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("load token from %s: %w", tokenPath, err)
	}

	// Refresh through a token source and persist the result so the
	// next run starts from a fresh token.
	ts := config.TokenSource(ctx, token)
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if fresh.AccessToken != token.AccessToken {
		if saveErr := saveToken(tokenPath, fresh); saveErr != nil {
			display.WarnMsg("could not save refreshed token: %v", saveErr)
		}
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	prof, err := svc.Users.GetProfile("me").Do()
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}

	return &Session{Service: svc, Email: prof.EmailAddress}, nil
}

// loadOAuthConfig reads credentials.json and returns an OAuth2 config.
func loadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials from %s: %w", credentialsPath, err)
	}

	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return config, nil
}

func loadToken(tokenPath string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &token, nil
}

func saveToken(tokenPath string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(tokenPath, data, 0o600)
}
