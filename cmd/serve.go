package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samnang/facecheck/internal/attendance"
	"github.com/samnang/facecheck/internal/config"
	"github.com/samnang/facecheck/internal/encoding"
	"github.com/samnang/facecheck/internal/facematch"
	"github.com/samnang/facecheck/internal/firebase"
	"github.com/samnang/facecheck/internal/identity"
	"github.com/samnang/facecheck/internal/store"
	fsstore "github.com/samnang/facecheck/internal/store/firestore"
	"github.com/samnang/facecheck/internal/store/mock"
	"github.com/samnang/facecheck/internal/store/sqlstore"
	"github.com/samnang/facecheck/internal/vision"
	"github.com/samnang/facecheck/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the FaceCheck web server.
The server exposes the kiosk check-in endpoint and the admin API for
registration, attendance records and statistics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// initFirebase creates the Firebase app when credentials are configured.
// The app serves double duty as the Firestore backend and the photo archive.
func initFirebase(ctx context.Context, cfg *config.Config) *firebase.App {
	if !firebase.CredentialsConfigured(&cfg.Firebase) {
		return nil
	}
	app, err := firebase.NewApp(ctx, &cfg.Firebase)
	if err != nil {
		fmt.Printf("Warning: Firebase initialization failed: %v\n", err)
		return nil
	}
	return app
}

// openStore picks the persistence backend: Firestore when available, the SQL
// fallback when DATABASE_URL is set, an in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, fbApp *firebase.App) (store.Store, error) {
	if cfg.Firebase.UseFirestore && fbApp != nil {
		client, err := fbApp.Firestore(ctx)
		if err == nil {
			fmt.Println("Using Firestore backend")
			return fsstore.New(client), nil
		}
		fmt.Printf("Warning: Firestore unavailable, trying SQL fallback: %v\n", err)
	}

	if cfg.Database.URL != "" {
		st, err := sqlstore.Open(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening SQL store: %w", err)
		}
		fmt.Println("Using SQL backend")
		return st, nil
	}

	fmt.Println("Warning: no persistence configured; using in-memory store (data is lost on restart)")
	return mock.NewMockStore(), nil
}

// initIdentifier picks the face matcher. The default matches encoder-sidecar
// encodings against a local HNSW index rebuilt from the store; the
// alternative delegates to an AWS Rekognition collection.
func initIdentifier(ctx context.Context, cfg *config.Config, st store.Store) (identity.Identifier, error) {
	if cfg.Vision.Matcher == "rekognition" {
		matcher, err := vision.NewMatcher(ctx, cfg.AWS.Region, cfg.AWS.CollectionID)
		if err != nil {
			return nil, fmt.Errorf("initializing rekognition matcher: %w", err)
		}
		fmt.Printf("Using Rekognition collection %s for face matching\n", cfg.AWS.CollectionID)
		return identity.NewRekognitionIdentifier(matcher, st), nil
	}

	enc := encoding.NewEncoderClient(cfg.Encoder.URL)
	ident := identity.NewEncodingIdentifier(enc, facematch.DefaultTolerance)
	if err := ident.LoadFromStore(ctx, st); err != nil {
		fmt.Printf("Warning: failed to load face index from store: %v\n", err)
	} else {
		fmt.Printf("Face index ready with %d registered faces\n", ident.Count())
	}
	return ident, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}

	ctx := context.Background()

	fbApp := initFirebase(ctx, cfg)

	st, err := openStore(ctx, cfg, fbApp)
	if err != nil {
		return err
	}
	defer st.Close()

	detector, err := vision.NewDetector(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing face detector: %w", err)
	}
	fmt.Printf("Face detection provider: %s\n", detector.Name())

	identifier, err := initIdentifier(ctx, cfg, st)
	if err != nil {
		return err
	}

	svc, err := attendance.NewService(st, &cfg.Company)
	if err != nil {
		return err
	}

	deps := web.Deps{
		Store:      st,
		Attendance: svc,
		Detector:   detector,
		Identifier: identifier,
	}
	if fbApp != nil && cfg.Firebase.StorageBucket != "" {
		deps.Photos = fbApp
	}

	server := web.NewServer(cfg, port, host, deps)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting FaceCheck on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
