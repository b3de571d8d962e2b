// Package firebase builds the ID token verifier behind AUTH_MODE=firebase.
package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrCredentials wraps every problem with the service account file
var ErrCredentials = errors.New("firebase credentials")

// Options select the service account and the project whose tokens are
// accepted. ProjectID may be left empty to use the one in the credentials.
type Options struct {
	CredentialsPath string
	ProjectID       string
}

type serviceAccount struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
}

// NewTokenVerifier reads the service account once and returns the auth
// client that checks ID tokens against it.
func NewTokenVerifier(ctx context.Context, opts Options, logger *slog.Logger) (*auth.Client, error) {
	creds, projectID, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	logger.Info("firebase token verifier ready", "project_id", projectID)
	return client, nil
}

// loadCredentials returns the service account JSON and the project to verify
// tokens for.
func loadCredentials(opts Options) ([]byte, string, error) {
	if opts.CredentialsPath == "" {
		return nil, "", fmt.Errorf("%w: path not provided", ErrCredentials)
	}
	data, err := os.ReadFile(opts.CredentialsPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrCredentials, err)
	}

	var sa serviceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, "", fmt.Errorf("%w: %s is not JSON: %w", ErrCredentials, opts.CredentialsPath, err)
	}
	if sa.Type != "service_account" {
		return nil, "", fmt.Errorf("%w: %s has type %q, want service_account", ErrCredentials, opts.CredentialsPath, sa.Type)
	}

	projectID := opts.ProjectID
	if projectID == "" {
		projectID = sa.ProjectID
	}
	if projectID == "" {
		return nil, "", fmt.Errorf("%w: no project id in %s or FIREBASE_PROJECT_ID", ErrCredentials, opts.CredentialsPath)
	}
	return data, projectID, nil
}
