package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"groupchat/pkg/config"
	"groupchat/pkg/logger"
)

// Clients bundles the Firebase services the chat uses.
type Clients struct {
	App       *fbapp.App
	Auth      *auth.Client
	Firestore *firestore.Client
	Database  *db.Client
	Option    option.ClientOption
}

// CredentialOption prefers inline service account JSON, then a key file.
// It returns nil when neither is configured so application default
// credentials are used.
func CredentialOption(cfg *config.Config) (option.ClientOption, error) {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)), nil
	}

	if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		return option.WithCredentialsFile(cfg.ServiceAccountPath), nil
	}

	logger.Warn("No Firebase service account configured, using application default credentials")
	return nil, nil
}

func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	opt, err := CredentialOption(cfg)
	if err != nil {
		return nil, err
	}
	var opts []option.ClientOption
	if opt != nil {
		opts = append(opts, opt)
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:   cfg.FirebaseProject,
		DatabaseURL: cfg.FirebaseDatabaseURL,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase Auth: %w", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	database, err := app.Database(ctx)
	if err != nil {
		firestoreClient.Close()
		return nil, fmt.Errorf("failed to initialize Realtime Database: %w", err)
	}

	return &Clients{
		App:       app,
		Auth:      authClient,
		Firestore: firestoreClient,
		Database:  database,
		Option:    opt,
	}, nil
}

func (c *Clients) Close() error {
	return c.Firestore.Close()
}
