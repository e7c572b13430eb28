package setup

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samnang/facecheck/internal/config"
)

const credentialFileName = "facecheck-service-account.json"

// CredentialPath is the fixed location where a service account payload from
// FIREBASE_SERVICE_ACCOUNT_JSON is written.
func CredentialPath() string {
	return filepath.Join(os.TempDir(), credentialFileName)
}

// decodeServiceAccount accepts a raw or base64-encoded service account JSON
// payload and returns the raw JSON bytes.
func decodeServiceAccount(payload string) ([]byte, error) {
	trimmed := strings.TrimSpace(payload)
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("payload is neither valid JSON nor base64: %w", err)
	}
	if !json.Valid(decoded) {
		return nil, fmt.Errorf("base64 payload does not decode to valid JSON")
	}
	return decoded, nil
}

// MaterializeCredentials resolves a service account credential and points
// GOOGLE_APPLICATION_CREDENTIALS at it. Resolution order follows the
// application: inline JSON payload, explicit path, an already-set
// GOOGLE_APPLICATION_CREDENTIALS, then the first *.json under the keys dir.
// Returns the resolved path and a human-readable source, or empty values when
// no credential is available (which is not an error; verification will report
// the consequences).
func MaterializeCredentials(cfg *config.FirebaseConfig) (path, source string, err error) {
	if cfg.ServiceAccountJSON != "" {
		raw, err := decodeServiceAccount(cfg.ServiceAccountJSON)
		if err != nil {
			return "", "", fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_JSON: %w", err)
		}
		dest := CredentialPath()
		if err := os.WriteFile(dest, raw, 0600); err != nil {
			return "", "", fmt.Errorf("writing credential file: %w", err)
		}
		if err := os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", dest); err != nil {
			return "", "", fmt.Errorf("setting GOOGLE_APPLICATION_CREDENTIALS: %w", err)
		}
		return dest, "FIREBASE_SERVICE_ACCOUNT_JSON", nil
	}

	if cfg.ServiceAccountPath != "" {
		if _, statErr := os.Stat(cfg.ServiceAccountPath); statErr != nil {
			return "", "", fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_PATH: %w", statErr)
		}
		if err := os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.ServiceAccountPath); err != nil {
			return "", "", fmt.Errorf("setting GOOGLE_APPLICATION_CREDENTIALS: %w", err)
		}
		return cfg.ServiceAccountPath, "FIREBASE_SERVICE_ACCOUNT_PATH", nil
	}

	if gac := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); gac != "" {
		return gac, "GOOGLE_APPLICATION_CREDENTIALS", nil
	}

	if cfg.KeysDir != "" {
		entries, readErr := os.ReadDir(cfg.KeysDir)
		if readErr == nil {
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
					continue
				}
				keyPath := filepath.Join(cfg.KeysDir, e.Name())
				if err := os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", keyPath); err != nil {
					return "", "", fmt.Errorf("setting GOOGLE_APPLICATION_CREDENTIALS: %w", err)
				}
				return keyPath, "keys directory", nil
			}
		}
	}

	return "", "", nil
}
