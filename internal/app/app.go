// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	gcsstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/appprofiler/internal/config"
	"github.com/JakeFAU/appprofiler/internal/hash/sha256"
	"github.com/JakeFAU/appprofiler/internal/profile"
	pubsubpublisher "github.com/JakeFAU/appprofiler/internal/publisher/pubsub"
	"github.com/JakeFAU/appprofiler/internal/settings"
	"github.com/JakeFAU/appprofiler/internal/storage"
	"github.com/JakeFAU/appprofiler/internal/storage/gcs"
	"github.com/JakeFAU/appprofiler/internal/storage/local"
	storagememory "github.com/JakeFAU/appprofiler/internal/storage/memory"
	"github.com/JakeFAU/appprofiler/internal/telemetry"
	"github.com/JakeFAU/appprofiler/internal/upload"
	"github.com/JakeFAU/appprofiler/internal/viewer"
)

// App holds the shared, long-lived services built from Config.
type App struct {
	Config      config.Config
	Logger      *zap.Logger
	Storage     storage.Provider
	Settings    *settings.Store
	Slot        *profile.Slot
	Coordinator *upload.Coordinator
	Viewer      viewer.Backend

	closers []func()
}

// Factories allows tests to replace the cloud clients.
type Factories struct {
	GCS    func(ctx context.Context) (*gcsstorage.Client, error)
	PubSub func(ctx context.Context, projectID string) (*pubsub.Client, error)
}

// DefaultFactories connects to Google Cloud with ambient credentials.
func DefaultFactories() Factories {
	return Factories{
		GCS: func(ctx context.Context) (*gcsstorage.Client, error) {
			return gcsstorage.NewClient(ctx)
		},
		PubSub: func(ctx context.Context, projectID string) (*pubsub.Client, error) {
			return pubsub.NewClient(ctx, projectID)
		},
	}
}

// New wires every service. It fails fast if a configured backend cannot start.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, f Factories) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Settings: settings.NewStore(cfg.Settings()),
		Slot:     profile.NewSlot(),
	}

	tp, err := telemetry.InitTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			a.Logger.Warn("shutdown tracer provider", zap.Error(err))
		}
	})

	store, err := a.buildStorage(ctx, f)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Storage = store

	opts := []upload.Option{upload.WithProfiler(a.Slot)}
	if cfg.Notify.Enabled() {
		pub, err := a.buildPublisher(ctx, f)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, upload.WithPublisher(pub, cfg.Notify.PubSubTopic))
	}
	a.Coordinator = upload.NewCoordinator(store, a.Settings, logger.Named("upload"), opts...)
	a.Viewer = a.buildViewer()

	logger.Info("application services initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("viewer", cfg.Viewer.Backend),
		zap.Bool("notify", cfg.Notify.Enabled()),
	)
	return a, nil
}

func (a *App) buildStorage(ctx context.Context, f Factories) (storage.Provider, error) {
	sc := a.Config.Storage
	switch sc.Backend {
	case config.BackendMemory:
		return storagememory.NewBlobStore(), nil
	case config.BackendGCS:
		if f.GCS == nil {
			return nil, fmt.Errorf("no GCS client factory")
		}
		client, err := f.GCS(ctx)
		if err != nil {
			return nil, fmt.Errorf("create GCS client: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.Logger.Warn("close GCS client", zap.Error(err))
			}
		})
		store, err := gcs.New(client, gcs.Config{
			Bucket:        sc.GCSBucket,
			Prefix:        sc.Prefix,
			PublicBaseURL: sc.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init GCS store: %w", err)
		}
		return store, nil
	case config.BackendLocal:
		store, err := local.New(local.Config{BaseDir: sc.ProfileRoot})
		if err != nil {
			return nil, fmt.Errorf("init local store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", sc.Backend)
	}
}

func (a *App) buildPublisher(ctx context.Context, f Factories) (upload.Publisher, error) {
	if f.PubSub == nil {
		return nil, fmt.Errorf("no Pub/Sub client factory")
	}
	client, err := f.PubSub(ctx, a.Config.Notify.PubSubProject)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	pub := pubsubpublisher.New(client.Topic(a.Config.Notify.PubSubTopic))
	a.closers = append(a.closers, func() {
		pub.Stop()
		if err := client.Close(); err != nil {
			a.Logger.Warn("close pubsub client", zap.Error(err))
		}
	})
	return pub, nil
}

func (a *App) buildViewer() viewer.Backend {
	vc := a.Config.Viewer
	switch vc.Backend {
	case config.ViewerRaw:
		return viewer.NewRawBackend(a.Storage, sha256.New())
	case config.ViewerRemote:
		return viewer.NewRemoteBackend(vc.RemoteURL, vc.ProfileURLPrefix, a.Storage)
	default:
		return viewer.Unconfigured{}
	}
}

// Close releases cloud clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
