package secrets

import (
	"context"
	"fmt"

	"app/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// Loader reads configuration secrets from GCP Secret Manager.
type Loader struct {
	client    *secretmanager.Client
	projectID string
}

// NewLoader creates a Loader for the given project. Extra client options are
// forwarded to the Secret Manager client (used in tests for fake transports).
func NewLoader(ctx context.Context, projectID string, opts ...option.ClientOption) (*Loader, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &Loader{client: client, projectID: projectID}, nil
}

func (l *Loader) Close() error {
	return l.client.Close()
}

// Get accesses the latest version of the named secret.
func (l *Loader) Get(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", l.projectID, name)
	result, err := l.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return string(result.Payload.Data), nil
}

// Overlay replaces the secret-backed config fields in place. It is a no-op
// when no GCP project is configured.
func Overlay(ctx context.Context, cfg *config.Config) error {
	if cfg.GCPProjectID == "" {
		return nil
	}

	loader, err := NewLoader(ctx, cfg.GCPProjectID)
	if err != nil {
		return err
	}
	defer loader.Close()

	dsn, err := loader.Get(ctx, cfg.DBSecretName)
	if err != nil {
		return err
	}
	cfg.DBConnectionString = dsn

	apiKey, err := loader.Get(ctx, cfg.AuthAPIKeySecretName)
	if err != nil {
		return err
	}
	cfg.AuthAPIKey = apiKey

	return nil
}
