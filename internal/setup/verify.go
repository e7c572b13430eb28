package setup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	vision "cloud.google.com/go/vision/v2/apiv1"

	"github.com/samnang/facecheck/internal/config"
)

// VerifyResult reports one post-install check. The verification step is purely
// informational: it never changes the exit status of setup.
type VerifyResult struct {
	Target string
	OK     bool
	Detail string
}

// verifyTimeout bounds each individual check.
const verifyTimeout = 10 * time.Second

// VerifyClients attempts to construct each cloud client and to reach the
// encoder sidecar. Equivalent to the old script's import smoke test: it proves
// the installed dependencies and credentials are usable, nothing more.
func VerifyClients(ctx context.Context, cfg *config.Config) []VerifyResult {
	results := []VerifyResult{
		verifyFirestore(ctx, cfg),
		verifyVision(ctx),
		verifyStorage(ctx),
	}
	if cfg.Encoder.URL != "" {
		results = append(results, verifyEncoder(ctx, cfg.Encoder.URL))
	}
	return results
}

func verifyFirestore(ctx context.Context, cfg *config.Config) VerifyResult {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	projectID := cfg.Firebase.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return VerifyResult{Target: "firestore", Detail: err.Error()}
	}
	defer client.Close()
	return VerifyResult{Target: "firestore", OK: true}
}

func verifyVision(ctx context.Context) VerifyResult {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return VerifyResult{Target: "vision", Detail: err.Error()}
	}
	defer client.Close()
	return VerifyResult{Target: "vision", OK: true}
}

func verifyStorage(ctx context.Context) VerifyResult {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return VerifyResult{Target: "storage", Detail: err.Error()}
	}
	defer client.Close()
	return VerifyResult{Target: "storage", OK: true}
}

func verifyEncoder(ctx context.Context, baseURL string) VerifyResult {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	url := strings.TrimSuffix(baseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return VerifyResult{Target: "encoder", Detail: err.Error()}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return VerifyResult{Target: "encoder", Detail: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return VerifyResult{Target: "encoder", Detail: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return VerifyResult{Target: "encoder", OK: true}
}
