package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptionsFromEnv resolves credentials the same way for every GCP
// client. Explicit JSON wins over a credentials file path; with neither
// set we fall back to application default credentials.
func ClientOptionsFromEnv() []option.ClientOption {
	if raw := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}
