// Package bootstrap wires configuration, startup diagnostics, cloud
// clients, and the job pipeline into a runnable executor process.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/minutescript/MinScript-Backend/internal/blob"
	"github.com/minutescript/MinScript-Backend/internal/config"
	"github.com/minutescript/MinScript-Backend/internal/diagnostics"
	"github.com/minutescript/MinScript-Backend/internal/docstore"
	"github.com/minutescript/MinScript-Backend/internal/domain"
	"github.com/minutescript/MinScript-Backend/internal/executor"
	"github.com/minutescript/MinScript-Backend/internal/ledger"
	"github.com/minutescript/MinScript-Backend/internal/normalize"
	"github.com/minutescript/MinScript-Backend/internal/queue"
	"github.com/minutescript/MinScript-Backend/internal/recognize"
)

// configPathEnv overrides the settings file location.
const configPathEnv = "MINSCRIPT_CONFIG"

// App is the assembled executor process.
type App struct {
	Settings    config.Settings
	Diagnostics domain.DiagnosticReport

	consumer *queue.Consumer
	closers  []io.Closer
}

// New loads settings, runs startup diagnostics, and wires the pipeline.
// Diagnostic failures abort startup: a misconfigured executor would fail
// every job it consumed.
func New(ctx context.Context) (*App, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	report := diagnostics.NewChecker().Run(settings)
	for _, item := range report.Items {
		log.Printf("diagnostic %s: %s: %s", item.ID, item.Status, item.Message)
	}
	if report.HasFailures {
		return nil, fmt.Errorf("startup diagnostics failed")
	}

	app := &App{Settings: settings, Diagnostics: report}
	if err := app.wire(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Run consumes jobs until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.consumer.Run(ctx)
}

// Close releases all held client connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
	a.closers = nil
}

// wire constructs clients and assembles the pipeline.
func (a *App) wire(ctx context.Context) error {
	var opts []option.ClientOption
	if a.Settings.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(a.Settings.CredentialsFile))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("dial storage client: %w", err)
	}
	a.closers = append(a.closers, storageClient)
	blobs := blob.NewGCSStore(storageClient, a.Settings.Bucket)

	docs, err := a.openDocstore(ctx, opts)
	if err != nil {
		return err
	}

	recognizer, err := recognize.NewGoogleClient(ctx, opts...)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, recognizer)

	pubsubClient, err := pubsub.NewClient(ctx, a.Settings.ProjectID, opts...)
	if err != nil {
		return fmt.Errorf("dial pubsub client: %w", err)
	}
	a.closers = append(a.closers, pubsubClient)

	normalizer := normalize.New(blobs, docs, a.Settings.FFmpegPath,
		a.Settings.Bucket, a.Settings.RecordingsFolder)
	usage := ledger.NewUpdater(docs, a.Settings.AccountingMode)
	exec := executor.New(blobs, docs, recognizer, normalizer, usage,
		a.Settings.RecordingsFolder, a.Settings.WaitTimeout())

	sub := pubsubClient.Subscription(a.Settings.Subscription)
	a.consumer = queue.NewConsumer(sub, exec, a.Settings.MaxInFlight)
	return nil
}

// openDocstore opens the configured document store backend.
func (a *App) openDocstore(ctx context.Context, opts []option.ClientOption) (docstore.Store, error) {
	switch a.Settings.StoreDriver {
	case config.StoreDriverSQLite:
		store, err := docstore.OpenSQLiteStore(a.Settings.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		client, err := firestore.NewClient(ctx, a.Settings.ProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("dial firestore client: %w", err)
		}
		a.closers = append(a.closers, client)
		return docstore.NewFirestoreStore(client), nil
	}
}

// loadSettings reads the settings file from the env override or the
// default location under the user's home directory.
func loadSettings() (config.Settings, error) {
	path := os.Getenv(configPathEnv)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return config.Settings{}, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".minscript", "settings.json")
	}
	return config.NewJSONStore(path).Load()
}
