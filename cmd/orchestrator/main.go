package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/sethvargo/go-envconfig"

	a2a "github.com/inference-gateway/capability-orchestrator/a2a"
	api "github.com/inference-gateway/capability-orchestrator/api"
	middlewares "github.com/inference-gateway/capability-orchestrator/api/middlewares"
	capability "github.com/inference-gateway/capability-orchestrator/capability"
	config "github.com/inference-gateway/capability-orchestrator/config"
	connector "github.com/inference-gateway/capability-orchestrator/connector"
	delegation "github.com/inference-gateway/capability-orchestrator/delegation"
	engine "github.com/inference-gateway/capability-orchestrator/engine"
	l "github.com/inference-gateway/capability-orchestrator/logger"
	mcp "github.com/inference-gateway/capability-orchestrator/mcp"
	orchestrator "github.com/inference-gateway/capability-orchestrator/orchestrator"
	otel "github.com/inference-gateway/capability-orchestrator/otel"
	session "github.com/inference-gateway/capability-orchestrator/session"
)

func main() {
	var defaults config.Config
	cfg, err := defaults.Load(envconfig.OsLookuper())
	if err != nil {
		log.Printf("Config load error: %v", err)
		return
	}

	var logger l.Logger
	logger, err = l.NewLogger(cfg.Environment)
	if err != nil {
		log.Printf("Logger init error: %v", err)
		return
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", err)
		return
	}

	var telemetry otel.OpenTelemetry = otel.Noop{}
	if cfg.EnableTelemetry {
		otelImpl := &otel.OpenTelemetryImpl{}
		if err := otelImpl.Init(cfg); err != nil {
			logger.Error("OpenTelemetry init error", err)
			return
		}
		telemetry = otelImpl
	}

	descriptors, err := config.LoadCapabilities(cfg.CapabilitiesFile)
	if err != nil {
		logger.Fatal("failed to load capabilities", err, "path", cfg.CapabilitiesFile)
		return
	}

	a2aOptions := a2a.Options{
		HTTPClient: &http.Client{Timeout: cfg.A2A.RequestTimeout},
		CardPath:   cfg.A2A.CardPath,
	}
	registry, err := capability.NewRegistry(a2a.NewCardFetcher(a2aOptions, logger.Named("cards")), logger.Named("registry"), descriptors...)
	if err != nil {
		logger.Fatal("invalid capability configuration", err)
		return
	}

	conn := connector.NewConnector(
		registry,
		connector.MCPDialer(mcp.ClientOptions{ClientName: cfg.MCP.ClientName, ConnectTimeout: cfg.MCP.ConnectTimeout}, logger.Named("mcp")),
		telemetry,
		logger.Named("connector"),
		connector.Options{HealthcheckInterval: cfg.MCP.HealthcheckInterval, ConnectTimeout: cfg.MCP.ConnectTimeout},
	)
	toolKind := capability.KindTool
	for _, id := range registry.IDs(&toolKind) {
		if err := conn.Connect(context.Background(), id); err != nil {
			logger.Warn("tool server unavailable at startup, it will be retried on use", "id", id, "error", err)
		}
	}

	router := delegation.NewRouter(
		registry,
		delegation.A2AClientFactory(a2aOptions, logger.Named("a2a")),
		telemetry,
		logger.Named("delegation"),
		delegation.Options{HealthcheckInterval: cfg.A2A.HealthcheckInterval, RequestTimeout: cfg.A2A.RequestTimeout},
	)

	orch := orchestrator.NewOrchestrator(
		engine.NewOpenAIEngine(cfg.Engine, logger.Named("engine")),
		registry,
		router,
		conn,
		session.NewMemoryStore(),
		telemetry,
		logger.Named("orchestrator"),
		orchestrator.Options{MaxIterations: cfg.Engine.MaxIterations},
	)

	discoveryCtx, stopDiscovery := context.WithCancel(context.Background())
	defer stopDiscovery()
	if cfg.A2A.ServiceDiscoveryEnable {
		discovery, err := a2a.NewKubernetesServiceDiscovery(cfg.A2A, logger.Named("discovery"))
		if err != nil {
			logger.Error("kubernetes service discovery disabled", err)
		} else {
			logger.Info("watching kubernetes services for agents",
				"namespace", discovery.GetNamespace(),
				"label_selector", discovery.GetLabelSelector())
			go discovery.Run(discoveryCtx, registry)
		}
	}

	loggerMiddleware, err := middlewares.NewLoggerMiddleware(logger)
	if err != nil {
		logger.Error("Failed to initialize logger middleware", err)
		return
	}

	telemetryMiddleware, err := middlewares.NewTelemetryMiddleware(telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry middleware", err)
		return
	}

	oidcAuthenticator, err := middlewares.NewOIDCAuthenticatorMiddleware(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize OIDC authenticator", err)
		return
	}

	r := gin.New()
	r.Use(loggerMiddleware.Middleware())
	if cfg.EnableTelemetry {
		r.Use(telemetryMiddleware.Middleware())
		r.GET("/metrics", gin.WrapH(telemetry.Handler()))
	}
	r.Use(oidcAuthenticator.Middleware())

	api.Register(r, api.NewRouter(cfg, logger, registry, orch, router, conn))

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Server.TLSCertPath != "" && cfg.Server.TLSKeyPath != "" {
		go func() {
			logger.Info("Starting capability orchestrator with TLS", "port", cfg.Server.Port)

			if err := server.ListenAndServeTLS(cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath); err != nil && err != http.ErrServerClosed {
				logger.Error("ListenAndServeTLS error", err)
			}
		}()
	} else {
		go func() {
			logger.Info("Starting capability orchestrator", "port", cfg.Server.Port, "capabilities", len(descriptors))

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("ListenAndServe error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stopDiscovery()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("Server Shutdown error", err)
	} else {
		logger.Info("Server gracefully stopped")
	}

	if err := conn.CloseAll(); err != nil {
		logger.Warn("closing tool server connections reported errors", "error", err)
	}
	if err := router.CloseAll(); err != nil {
		logger.Warn("closing agent clients reported errors", "error", err)
	}
	if err := telemetry.Shutdown(ctxShutdown); err != nil {
		logger.Warn("telemetry shutdown error", "error", err)
	}
}
