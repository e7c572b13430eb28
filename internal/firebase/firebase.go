// Package firebase initializes the Firebase app and exposes the Firestore
// and Cloud Storage clients used by the attendance service.
package firebase

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/samnang/facecheck/internal/config"
	"github.com/samnang/facecheck/internal/setup"
)

// App wraps the Firebase SDK app with the clients the service needs.
type App struct {
	app    *firebase.App
	bucket string
}

// NewApp initializes the Firebase app. Credentials follow the same resolution
// order as the setup command: inline JSON, explicit path, the ambient
// GOOGLE_APPLICATION_CREDENTIALS, then the keys directory.
func NewApp(ctx context.Context, cfg *config.FirebaseConfig) (*App, error) {
	credPath, _, err := setup.MaterializeCredentials(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving credentials: %w", err)
	}

	fbConfig := &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}

	var opts []option.ClientOption
	if credPath != "" {
		opts = append(opts, option.WithCredentialsFile(credPath))
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	return &App{app: app, bucket: cfg.StorageBucket}, nil
}

// Firestore returns a Firestore client.
func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := a.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return client, nil
}

// UploadEmployeePhoto stores an employee photo in the default bucket and
// returns its gs:// URI. Object names are random so re-registrations never
// overwrite older photos.
func (a *App) UploadEmployeePhoto(ctx context.Context, imageData []byte, contentType string) (string, error) {
	storageClient, err := a.app.Storage(ctx)
	if err != nil {
		return "", fmt.Errorf("creating storage client: %w", err)
	}

	bucket, err := storageClient.DefaultBucket()
	if err != nil {
		return "", fmt.Errorf("resolving default bucket: %w", err)
	}

	objectName := fmt.Sprintf("employees/%s.jpg", uuid.NewString())
	w := bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(imageData); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("uploading photo: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finishing upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

// DownloadPhoto fetches a previously uploaded photo by object name.
func (a *App) DownloadPhoto(ctx context.Context, objectName string) ([]byte, error) {
	storageClient, err := a.app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	bucket, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("resolving default bucket: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	r, err := bucket.Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening photo %s: %w", objectName, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading photo %s: %w", objectName, err)
	}
	return data, nil
}

// CredentialsConfigured reports whether any credential source is available
// without initializing the app. The keys directory only counts when it
// actually holds a key file, since it defaults to "keys" on every install.
func CredentialsConfigured(cfg *config.FirebaseConfig) bool {
	if cfg.ServiceAccountJSON != "" || cfg.ServiceAccountPath != "" {
		return true
	}
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		return true
	}
	if cfg.KeysDir == "" {
		return false
	}
	entries, err := os.ReadDir(cfg.KeysDir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			return true
		}
	}
	return false
}
