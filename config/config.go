package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/inference-gateway/capability-orchestrator/capability"
)

// Session id policies applied when a chat request carries no session id
const (
	SessionIDPolicyRequire = "require"
	SessionIDPolicySubject = "subject"
	SessionIDPolicyShared  = "shared"
)

// Config holds the configuration for the Capability Orchestrator.
//
//go:generate go run ../cmd/generate/main.go -type=Env -output=../.env.example
//go:generate go run ../cmd/generate/main.go -type=MD -output=../Configurations.md
type Config struct {
	// General settings
	ApplicationName string `env:"APPLICATION_NAME, default=capability-orchestrator" description:"The name of the application"`
	Environment     string `env:"ENVIRONMENT, default=production" description:"The environment"`
	EnableTelemetry bool   `env:"ENABLE_TELEMETRY, default=false" description:"Enable telemetry"`
	EnableAuth      bool   `env:"ENABLE_AUTH, default=false" description:"Enable authentication"`

	// Capabilities file with the mcpServers and a2aAgents maps
	CapabilitiesFile string `env:"CAPABILITIES_FILE, default=capabilities.yaml" description:"Path to the capabilities configuration file"`

	// Auth settings
	OIDC *OIDC `env:", prefix=OIDC_" description:"OIDC configuration"`

	// Server settings
	Server *ServerConfig `env:", prefix=SERVER_" description:"Server configuration"`

	// Reasoning engine settings
	Engine *EngineConfig `env:", prefix=ENGINE_" description:"Reasoning engine configuration"`

	// A2A settings
	A2A *A2AConfig `env:", prefix=A2A_" description:"A2A configuration"`

	// MCP settings
	MCP *MCPConfig `env:", prefix=MCP_" description:"MCP configuration"`

	// Session settings
	Session *SessionConfig `env:", prefix=SESSION_" description:"Session configuration"`
}

// OIDC configuration
type OIDC struct {
	IssuerURL    string `env:"ISSUER_URL, default=http://keycloak:8080/realms/inference-gateway-realm" description:"OIDC issuer URL"`
	ClientID     string `env:"CLIENT_ID, default=capability-orchestrator-client" type:"secret" description:"OIDC client ID"`
	ClientSecret string `env:"CLIENT_SECRET" type:"secret" description:"OIDC client secret"`
}

// Server configuration
type ServerConfig struct {
	Host         string        `env:"HOST, default=0.0.0.0" description:"Server host"`
	Port         string        `env:"PORT, default=8080" description:"Server port"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s" description:"Read timeout"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=120s" description:"Write timeout"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=120s" description:"Idle timeout"`
	TLSCertPath  string        `env:"TLS_CERT_PATH" description:"TLS certificate path"`
	TLSKeyPath   string        `env:"TLS_KEY_PATH" description:"TLS key path"`
}

// EngineConfig configures the OpenAI compatible reasoning engine
type EngineConfig struct {
	URL           string        `env:"URL, default=https://api.openai.com/v1" description:"Base URL of the OpenAI compatible chat completions API"`
	APIKey        string        `env:"API_KEY" type:"secret" description:"API key of the reasoning engine"`
	Model         string        `env:"MODEL, default=gpt-4o" description:"Model used by the reasoning engine"`
	SystemPrompt  string        `env:"SYSTEM_PROMPT" description:"Optional system prompt prepended to every conversation"`
	MaxIterations int           `env:"MAX_ITERATIONS, default=10" description:"Maximum engine round trips per chat turn"`
	Timeout       time.Duration `env:"TIMEOUT, default=60s" description:"Timeout of a single engine call"`
}

// A2AConfig configures remote agent access
type A2AConfig struct {
	CardPath                      string        `env:"CARD_PATH, default=/.well-known/agent.json" description:"Well-known path of the agent card"`
	RequestTimeout                time.Duration `env:"REQUEST_TIMEOUT, default=60s" description:"Timeout of a single A2A request"`
	HealthcheckInterval           time.Duration `env:"HEALTHCHECK_INTERVAL, default=30s" description:"Minimum age of a cached agent client before it is health checked"`
	ServiceDiscoveryEnable        bool          `env:"SERVICE_DISCOVERY_ENABLE, default=false" description:"Discover A2A agents from Kubernetes services"`
	ServiceDiscoveryNamespace     string        `env:"SERVICE_DISCOVERY_NAMESPACE" description:"Namespace searched for A2A agent services"`
	ServiceDiscoveryLabelSelector string        `env:"SERVICE_DISCOVERY_LABEL_SELECTOR, default=inference-gateway.com/a2a-agent=true" description:"Label selector of A2A agent services"`
	ServiceDiscoveryInterval      time.Duration `env:"SERVICE_DISCOVERY_INTERVAL, default=60s" description:"Interval between Kubernetes discovery runs"`
}

// MCPConfig configures tool server access
type MCPConfig struct {
	ClientName          string        `env:"CLIENT_NAME, default=capability-orchestrator" description:"Client name announced during the MCP handshake"`
	ConnectTimeout      time.Duration `env:"CONNECT_TIMEOUT, default=30s" description:"Timeout of the MCP initialization handshake and the first tool listing"`
	HealthcheckInterval time.Duration `env:"HEALTHCHECK_INTERVAL, default=30s" description:"Minimum age of a cached tool client before it is health checked"`
}

// SessionConfig configures conversation sessions
type SessionConfig struct {
	IDPolicy string `env:"ID_POLICY, default=require" description:"Behavior for chats without a session id: require, subject or shared"`
}

// Load configuration
func (cfg *Config) Load(lookuper envconfig.Lookuper) (Config, error) {
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, err
	}

	switch cfg.Session.IDPolicy {
	case SessionIDPolicyRequire, SessionIDPolicySubject, SessionIDPolicyShared:
	default:
		return Config{}, fmt.Errorf("Session: IDPolicy(%q): must be one of require, subject, shared", cfg.Session.IDPolicy)
	}

	return *cfg, nil
}

// Validate reports settings the orchestrator cannot start without
func (cfg *Config) Validate() error {
	if cfg.Engine == nil || cfg.Engine.APIKey == "" {
		return fmt.Errorf("%w: ENGINE_API_KEY", capability.ErrConfigurationMissing)
	}
	if cfg.CapabilitiesFile == "" {
		return fmt.Errorf("%w: CAPABILITIES_FILE", capability.ErrConfigurationMissing)
	}
	if cfg.EnableAuth && (cfg.OIDC == nil || cfg.OIDC.IssuerURL == "") {
		return fmt.Errorf("%w: OIDC_ISSUER_URL", capability.ErrConfigurationMissing)
	}
	return nil
}
