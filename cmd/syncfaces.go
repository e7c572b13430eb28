package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/samnang/facecheck/internal/config"
	"github.com/samnang/facecheck/internal/facematch"
	"github.com/samnang/facecheck/internal/firebase"
	"github.com/samnang/facecheck/internal/store"
	fsstore "github.com/samnang/facecheck/internal/store/firestore"
	"github.com/samnang/facecheck/internal/store/sqlstore"
)

var syncFacesCmd = &cobra.Command{
	Use:   "sync-faces",
	Short: "Verify the face index can be built from stored employees",
	Long: `Rebuild the in-memory HNSW face index from the encodings stored with
each employee and report the result. The server rebuilds the same index at
startup; run this after bulk imports to spot employees without a usable
encoding before they fail to match at the kiosk.`,
	RunE: runSyncFaces,
}

func init() {
	rootCmd.AddCommand(syncFacesCmd)
}

// openConfiguredStore opens the persistent backend without an in-memory
// fallback; syncing faces against a store that forgets them is pointless.
func openConfiguredStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Firebase.UseFirestore && firebase.CredentialsConfigured(&cfg.Firebase) {
		app, err := firebase.NewApp(ctx, &cfg.Firebase)
		if err != nil {
			return nil, fmt.Errorf("initializing firebase: %w", err)
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating firestore client: %w", err)
		}
		return fsstore.New(client), nil
	}

	if cfg.Database.URL != "" {
		return sqlstore.Open(&cfg.Database)
	}

	return nil, errors.New("no persistent backend configured (set Firebase credentials or DATABASE_URL)")
}

func runSyncFaces(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := cmd.Context()
	st, err := openConfiguredStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	employees, err := st.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("listing employees: %w", err)
	}

	bar := progressbar.NewOptions(len(employees),
		progressbar.OptionSetDescription("Indexing faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	skipped := 0
	faces := make([]facematch.KnownFace, 0, len(employees))
	for _, emp := range employees {
		_ = bar.Add(1)
		if len(emp.Encoding) == 0 {
			skipped++
			continue
		}
		faces = append(faces, facematch.KnownFace{
			EmployeeID: emp.ID,
			Name:       emp.Name,
			Encoding:   emp.Encoding,
		})
	}

	idx := facematch.NewIndex()
	if err := idx.Build(faces); err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	fmt.Printf("\nIndexed %d faces (%d employees without an encoding skipped)\n", idx.Count(), skipped)
	return nil
}
