package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"groupchat/internal/adapter/api"
	"groupchat/internal/adapter/api/handler"
	apimiddleware "groupchat/internal/adapter/api/middleware"
	"groupchat/internal/adapter/api/router"
	"groupchat/internal/adapter/repository"
	domainrepo "groupchat/internal/domain/repository"
	"groupchat/internal/domain/service"
	"groupchat/internal/infrastructure/content"
	"groupchat/internal/infrastructure/firebase"
	"groupchat/internal/infrastructure/ratelimit"
	"groupchat/internal/infrastructure/storage"
	"groupchat/internal/infrastructure/websocket"
	"groupchat/internal/usecase"
	"groupchat/pkg/config"
	"groupchat/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterSweep    = 10 * time.Minute
)

// backend is the storage and identity wiring chosen by STORE_BACKEND.
type backend struct {
	messages domainrepo.MessageRepository
	groups   domainrepo.GroupRepository
	presence domainrepo.PresenceRepository
	typing   domainrepo.TypingRepository
	verifier usecase.TokenVerifier
	uploader service.MediaUploadService
	devToken *firebase.DevTokenVerifier
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetDebug(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	be, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()

	contentClient := content.NewClient(content.Options{
		Endpoints:   content.DefaultEndpoints(),
		Timeout:     cfg.Bot.Timeout,
		RPS:         cfg.Bot.RPS,
		GiphyAPIKey: cfg.Bot.GiphyAPIKey,
		HFAPIToken:  cfg.Bot.HFAPIToken,
		HFModel:     cfg.Bot.HFModel,
	})
	limiter := ratelimit.NewRateLimiter()

	authUseCase := usecase.NewAuthUseCase(be.verifier, cfg.Bot.Name)
	bot := usecase.NewBotDispatcher(contentClient, cfg.Bot.Name)
	chatUseCase := usecase.NewChatUseCase(be.messages, bot, cfg.Bot.Name)
	groupUseCase := usecase.NewGroupUseCase(be.groups)

	deps := usecase.SessionDeps{
		Auth:       authUseCase,
		Chat:       chatUseCase,
		Groups:     groupUseCase,
		Content:    contentClient,
		Messages:   be.messages,
		GroupRepo:  be.groups,
		Presence:   be.presence,
		Typing:     be.typing,
		Classifier: service.NewProfanityFilter(),
		Limiter:    limiter,
		Quota:      ratelimit.NewQuotaLedger(),
		Policy:     cfg.Chat,
	}

	wsManager := websocket.NewManager()

	handler.Setup(chatUseCase, groupUseCase, be.presence, cfg.Chat.PresenceFreshness)
	handler.SetupHealthHandler(cfg.StoreBackend, wsManager)
	if be.uploader != nil {
		handler.SetupFileHandler(be.uploader)
	}
	if be.devToken != nil && cfg.IsDevelopment() {
		handler.SetupDevTokenHandler(be.devToken)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authUseCase)
	wsHandler := handler.NewWebSocketHandler(ctx, wsManager, deps, cfg.AllowedOrigins)

	router.Setup(e, authMiddleware, limiter)
	router.SetupDevRouter(e)
	router.SetupWebSocketRouter(e, wsHandler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return wsManager.Run(gctx)
	})

	g.Go(func() error {
		return limiter.Run(gctx, limiterSweep)
	})

	g.Go(func() error {
		logger.Info("Starting server on port %s (backend=%s)...", cfg.ServerPort, cfg.StoreBackend)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.StoreBackend == "memory" {
		logger.Warn("Using in-memory store; data is lost on restart and only dev tokens are accepted")
		store := repository.NewMemoryStore()
		tokens := firebase.NewDevTokenVerifier()
		return &backend{
			messages: store.Messages(),
			groups:   store.Groups(),
			presence: store.Presence(),
			typing:   store.Typing(),
			verifier: tokens,
			devToken: tokens,
			close:    func() {},
		}, nil
	}

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		return nil, err
	}

	be := &backend{
		messages: repository.NewFirestoreMessageRepository(clients.Firestore),
		groups:   repository.NewFirestoreGroupRepository(clients.Firestore),
		presence: repository.NewRTDBPresenceRepository(clients.Database, cfg.Chat.PresencePollInterval),
		typing:   repository.NewRTDBTypingRepository(clients.Database, cfg.Chat.PresencePollInterval),
		verifier: firebase.NewFirebaseAuthClient(clients.Auth),
	}

	var storageClient *storage.CloudStorageClient
	if cfg.StorageBucket != "" {
		var opts []option.ClientOption
		if clients.Option != nil {
			opts = append(opts, clients.Option)
		}
		storageClient, err = storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			clients.Close()
			return nil, err
		}
		be.uploader = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET not set; image uploads are disabled")
	}

	be.close = func() {
		if storageClient != nil {
			storageClient.Close()
		}
		clients.Close()
	}
	return be, nil
}
