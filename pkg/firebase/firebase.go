// Package firebase initialises the Firebase Admin SDK from service account credentials held in
// the environment.
package firebase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	fb "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// ErrNoCredentials is returned by ServiceAccountJSON when neither form of credentials is set.
var ErrNoCredentials = errors.New("no Firebase service account credentials configured")

// Credentials locate the service account. JSON wins over Base64.
type Credentials struct {
	ProjectID string
	JSON      string
	Base64    string
	// AllowADC falls back to Application Default Credentials when no service account is set.
	AllowADC bool
}

// NewApp creates a Firebase app for the configured project.
func NewApp(ctx context.Context, creds Credentials) (*fb.App, error) {
	var opts []option.ClientOption

	serviceJSON, err := ServiceAccountJSON(creds.JSON, creds.Base64)
	switch {
	case err == nil:
		opts = append(opts, option.WithCredentialsJSON(serviceJSON))
	case errors.Is(err, ErrNoCredentials) && creds.AllowADC:
		log.Println("No service account configured, using Application Default Credentials")
	default:
		return nil, err
	}

	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: creds.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	log.Printf("Firebase Admin initialized for project %s", creds.ProjectID)
	return app, nil
}

// ServiceAccountJSON returns the service account document with its private key normalised.
func ServiceAccountJSON(rawJSON, rawBase64 string) ([]byte, error) {
	serviceJSON := strings.TrimSpace(rawJSON)
	if serviceJSON == "" && strings.TrimSpace(rawBase64) != "" {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rawBase64))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 service account: %w", err)
		}
		serviceJSON = string(decoded)
	}
	if serviceJSON == "" {
		return nil, ErrNoCredentials
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(serviceJSON), &doc); err != nil {
		return nil, fmt.Errorf("service account is not valid JSON: %w", err)
	}
	if key, ok := doc["private_key"].(string); ok {
		doc["private_key"] = normalizePrivateKey(key)
	}
	return json.Marshal(doc)
}

// normalizePrivateKey undoes escaped newlines and CRLF line endings, ending with a single LF.
func normalizePrivateKey(key string) string {
	key = strings.ReplaceAll(key, `\r\n`, "\n")
	key = strings.ReplaceAll(key, `\n`, "\n")
	key = strings.ReplaceAll(key, "\r\n", "\n")
	return strings.TrimSpace(key) + "\n"
}
