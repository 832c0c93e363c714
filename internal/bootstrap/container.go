package bootstrap

import (
	"context"

	"context-retriever-be/internal/config"
	"context-retriever-be/internal/controller"
	"context-retriever-be/internal/handler"
	"context-retriever-be/internal/service"
	"context-retriever-be/internal/websocket"
	"context-retriever-be/pkg/events"
	pktNats "context-retriever-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	*Core

	// Controllers
	RetrieverController controller.IRetrieverController
	DocumentController  controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	IngestionService service.IIngestionService

	// WebSockets
	ChatHandler  *handler.ChatHandler
	WebSocketHub *websocket.Hub

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
}

func NewContainer(core *Core, cfg *config.Config) *Container {
	log := core.Logger

	// 1. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 16},
		watermill.NewStdLogger(false, false),
	)

	var (
		eventPublisher events.Publisher = events.NopPublisher{}
		natsPub        *pktNats.Publisher
	)
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Warn("Bootstrap", "Failed to connect to NATS Publisher, events disabled", map[string]interface{}{"error": err.Error()})
		} else {
			natsPub = pub
			eventPublisher = pub
		}
	}

	// 2. WebSocket Hub, fanned out across instances through the session Redis
	wsHub := websocket.NewHub(core.Redis, log)

	// 3. Services
	retrieverService := service.NewRetrieverService(core.Orchestrator, eventPublisher, wsHub, log)
	ingestionService := service.NewIngestionService(
		pubSub,
		pubSub,
		cfg.Ingest.UploadTopic,
		core.Pipeline,
		eventPublisher,
		log,
	)
	documentService := service.NewDocumentService(core.UowFactory, core.Indexed)

	// 4. Controllers
	return &Container{
		Core:                core,
		RetrieverController: controller.NewRetrieverController(retrieverService, cfg.App.JWTSecret, cfg.App.DefaultUserID),
		DocumentController:  controller.NewDocumentController(ingestionService, documentService, cfg.App.JWTSecret),
		IngestionService:    ingestionService,
		ChatHandler:         handler.NewChatHandler(retrieverService, wsHub, cfg.App.JWTSecret, cfg.App.DefaultUserID, log),
		WebSocketHub:        wsHub,
		pubSub:              pubSub,
		natsPub:             natsPub,
	}
}

// Health reports "ok" or an error string per dependency.
func (c *Container) Health(ctx context.Context) map[string]string {
	status := map[string]string{"database": "ok"}

	sqlDB, err := c.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status["database"] = err.Error()
	}

	if c.Redis != nil {
		status["redis"] = "ok"
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
		}
	}
	return status
}

func (c *Container) Close() {
	_ = c.pubSub.Close()
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	c.Core.Close()
}
