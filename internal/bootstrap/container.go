package bootstrap

import (
	"context"
	"time"

	"vibez-studio/internal/config"
	"vibez-studio/internal/controller"
	"vibez-studio/internal/handler"
	"vibez-studio/internal/pkg/logger"
	"vibez-studio/internal/pkg/mailer"
	"vibez-studio/internal/pkg/serverutils"
	"vibez-studio/internal/repository/cache"
	"vibez-studio/internal/repository/implementation"
	"vibez-studio/internal/repository/memory"
	"vibez-studio/internal/service"
	"vibez-studio/internal/websocket"
	pktNats "vibez-studio/pkg/nats"
	"vibez-studio/pkg/vibeapi"
	"vibez-studio/pkg/workspace"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger *logger.ZapLogger

	// Controllers
	AuthController      controller.IAuthController
	WorkspaceController controller.IWorkspaceController
	ViewStreamHandler   *handler.ViewStreamHandler

	// Background workers (run by main.go)
	WebSocketHub    *websocket.Hub
	ViewRelay       service.IViewRelay
	ActivityService service.IActivityService

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger *logger.ZapLogger) *Container {
	c := &Container{Logger: sysLogger}

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
		sysLogger,
	)

	// In-process bus for workspace views
	viewBus := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = viewBus.Close() })

	// NATS
	var publisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("Container", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
	} else {
		publisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("Container", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	// Redis
	rdb := connectRedis(cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	denylist := cache.NewTokenDenylist(rdb)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/ws.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	chartAPI := vibeapi.NewClient(cfg.ChartAPI.BaseURL, cfg.ChartAPI.Timeout)
	workspaceRepo := memory.NewWorkspaceRepository(cfg.App.WorkspaceIdleTTL, func(userID string, _ *workspace.Workspace) {
		sysLogger.Info("Container", "Workspace expired", map[string]interface{}{"user_id": userID})
	})

	workspaceService := service.NewWorkspaceService(chartAPI, workspaceRepo, viewBus, publisher, sysLogger)
	authService := service.NewAuthService(
		implementation.NewUserRepository(db),
		emailService,
		denylist,
		workspaceService,
		publisher,
		sysLogger,
		service.AuthOptions{
			JWTSecret: cfg.App.JWTSecret,
			TokenTTL:  cfg.App.TokenTTL,
			Google:    service.GoogleOAuthConfig(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL),
		},
	)

	c.ViewRelay = service.NewViewRelay(viewBus, c.WebSocketHub, cfg.App.WorkspaceIdleTTL, wsLogger)
	if natsSub != nil {
		c.ActivityService = service.NewActivityService(natsSub, c.WebSocketHub, logger.NewIsolatedLogger("logs/activity.log"))
	}

	jwtMiddleware := serverutils.NewJwtMiddleware(cfg.App.JWTSecret, denylist)

	c.AuthController = controller.NewAuthController(authService, jwtMiddleware, cfg.App.ClientURL)
	c.WorkspaceController = controller.NewWorkspaceController(workspaceService, jwtMiddleware)
	c.ViewStreamHandler = handler.NewViewStreamHandler(workspaceService, c.WebSocketHub, cfg.App.JWTSecret, denylist, wsLogger)

	return c
}

// connectRedis returns nil when redis is unreachable; the hub then stays
// local and sign-out revocation is disabled.
func connectRedis(url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Container", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Container", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
