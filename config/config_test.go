package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/config"
)

func defaultConfig() config.Config {
	return config.Config{
		ApplicationName:  "capability-orchestrator",
		Environment:      "production",
		EnableTelemetry:  false,
		EnableAuth:       false,
		CapabilitiesFile: "capabilities.yaml",
		OIDC: &config.OIDC{
			IssuerURL:    "http://keycloak:8080/realms/inference-gateway-realm",
			ClientID:     "capability-orchestrator-client",
			ClientSecret: "",
		},
		Server: &config.ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Engine: &config.EngineConfig{
			URL:           "https://api.openai.com/v1",
			Model:         "gpt-4o",
			MaxIterations: 10,
			Timeout:       60 * time.Second,
		},
		A2A: &config.A2AConfig{
			CardPath:                      "/.well-known/agent.json",
			RequestTimeout:                60 * time.Second,
			HealthcheckInterval:           30 * time.Second,
			ServiceDiscoveryLabelSelector: "inference-gateway.com/a2a-agent=true",
			ServiceDiscoveryInterval:      60 * time.Second,
		},
		MCP: &config.MCPConfig{
			ClientName:          "capability-orchestrator",
			ConnectTimeout:      30 * time.Second,
			HealthcheckInterval: 30 * time.Second,
		},
		Session: &config.SessionConfig{
			IDPolicy: "require",
		},
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		expectedCfg   func() config.Config
		expectedError string
	}{
		{
			name:        "Success_Defaults",
			env:         map[string]string{},
			expectedCfg: defaultConfig,
		},
		{
			name: "Success_AllEnvVariablesSet",
			env: map[string]string{
				"APPLICATION_NAME":                     "test-app",
				"ENABLE_TELEMETRY":                     "true",
				"ENVIRONMENT":                          "development",
				"CAPABILITIES_FILE":                    "/etc/orchestrator/capabilities.yaml",
				"SERVER_HOST":                          "localhost",
				"SERVER_PORT":                          "9090",
				"SERVER_READ_TIMEOUT":                  "60s",
				"SERVER_WRITE_TIMEOUT":                 "60s",
				"SERVER_IDLE_TIMEOUT":                  "180s",
				"ENGINE_URL":                           "http://ollama:11434/v1",
				"ENGINE_API_KEY":                       "sk-test",
				"ENGINE_MODEL":                         "llama3",
				"ENGINE_MAX_ITERATIONS":                "4",
				"A2A_CARD_PATH":                        "/agent-card",
				"A2A_SERVICE_DISCOVERY_ENABLE":         "true",
				"A2A_SERVICE_DISCOVERY_NAMESPACE":      "agents",
				"MCP_HEALTHCHECK_INTERVAL":             "5s",
				"SESSION_ID_POLICY":                    "shared",
				"A2A_SERVICE_DISCOVERY_LABEL_SELECTOR": "team=agents",
			},
			expectedCfg: func() config.Config {
				cfg := defaultConfig()
				cfg.ApplicationName = "test-app"
				cfg.EnableTelemetry = true
				cfg.Environment = "development"
				cfg.CapabilitiesFile = "/etc/orchestrator/capabilities.yaml"
				cfg.Server = &config.ServerConfig{
					Host:         "localhost",
					Port:         "9090",
					ReadTimeout:  60 * time.Second,
					WriteTimeout: 60 * time.Second,
					IdleTimeout:  180 * time.Second,
				}
				cfg.Engine.URL = "http://ollama:11434/v1"
				cfg.Engine.APIKey = "sk-test"
				cfg.Engine.Model = "llama3"
				cfg.Engine.MaxIterations = 4
				cfg.A2A.CardPath = "/agent-card"
				cfg.A2A.ServiceDiscoveryEnable = true
				cfg.A2A.ServiceDiscoveryNamespace = "agents"
				cfg.A2A.ServiceDiscoveryLabelSelector = "team=agents"
				cfg.MCP.HealthcheckInterval = 5 * time.Second
				cfg.Session.IDPolicy = "shared"
				return cfg
			},
		},
		{
			name: "Error_InvalidServerReadTimeout",
			env: map[string]string{
				"SERVER_READ_TIMEOUT": "invalid",
			},
			expectedError: "Server: ReadTimeout(\"invalid\"): time: invalid duration \"invalid\"",
		},
		{
			name: "Error_InvalidEngineTimeout",
			env: map[string]string{
				"ENGINE_TIMEOUT": "invalid",
			},
			expectedError: "Engine: Timeout(\"invalid\"): time: invalid duration \"invalid\"",
		},
		{
			name: "Error_InvalidSessionPolicy",
			env: map[string]string{
				"SESSION_ID_POLICY": "guess",
			},
			expectedError: "Session: IDPolicy(\"guess\"): must be one of require, subject, shared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			lookuper := envconfig.MapLookuper(tt.env)

			result, err := cfg.Load(lookuper)

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedCfg(), result)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		missing string
	}{
		{
			name:    "MissingEngineAPIKey",
			mutate:  func(c *config.Config) {},
			missing: "ENGINE_API_KEY",
		},
		{
			name: "MissingCapabilitiesFile",
			mutate: func(c *config.Config) {
				c.Engine.APIKey = "sk-test"
				c.CapabilitiesFile = ""
			},
			missing: "CAPABILITIES_FILE",
		},
		{
			name: "AuthWithoutIssuer",
			mutate: func(c *config.Config) {
				c.Engine.APIKey = "sk-test"
				c.EnableAuth = true
				c.OIDC.IssuerURL = ""
			},
			missing: "OIDC_ISSUER_URL",
		},
		{
			name: "Valid",
			mutate: func(c *config.Config) {
				c.Engine.APIKey = "sk-test"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.missing == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, capability.ErrConfigurationMissing)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

const capabilitiesYAML = `
a2aAgents:
  minnie:
    name: Minnie
    description: Math agent
    url: http://minnie:5001
    capabilities:
      streaming: true
    skills:
      - id: add
        name: Add
        description: Adds numbers
        tags: [math]
    versionConstraint: ">= 1.0.0"
  paperina:
    url: http://paperina:5002
    enabled: false
mcpServers:
  topolino:
    description: String tools
    transport: stdio
    command: dotnet
    args: ["run", "--project", "Topolino"]
    env:
      LOG_LEVEL: debug
  pluto:
    transport: http
    url: http://pluto:5100/mcp
    tags: [Weather]
`

func TestParseCapabilities(t *testing.T) {
	descriptors, err := config.ParseCapabilities([]byte(capabilitiesYAML))
	require.NoError(t, err)
	require.Len(t, descriptors, 4)

	ids := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"minnie", "paperina", "topolino", "pluto"}, ids)

	minnie := descriptors[0]
	assert.Equal(t, capability.KindAgent, minnie.Kind)
	assert.True(t, minnie.Enabled)
	assert.True(t, minnie.Capabilities.SupportsStreaming)
	assert.Equal(t, "http://minnie:5001", minnie.Endpoint.URL)
	assert.Equal(t, ">= 1.0.0", minnie.VersionConstraint)
	assert.Equal(t, []capability.Skill{{ID: "add", Name: "Add", Description: "Adds numbers", Tags: []string{"math"}}}, minnie.Skills)

	assert.False(t, descriptors[1].Enabled)

	topolino := descriptors[2]
	assert.Equal(t, capability.KindTool, topolino.Kind)
	assert.Equal(t, capability.TransportStdio, topolino.Transport)
	assert.Equal(t, "dotnet", topolino.Endpoint.Command)
	assert.Equal(t, []string{"run", "--project", "Topolino"}, topolino.Endpoint.Args)
	assert.Equal(t, map[string]string{"LOG_LEVEL": "debug"}, topolino.Endpoint.Env)

	assert.Equal(t, capability.TransportHTTP, descriptors[3].Transport)
}

func TestParseCapabilities_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not a mapping", yaml: "- a\n- b\n"},
		{name: "section not a mapping", yaml: "mcpServers: [a, b]\n"},
		{name: "duplicate id across sections", yaml: "mcpServers:\n  x:\n    transport: stdio\na2aAgents:\n  x:\n    url: http://x\n"},
		{name: "malformed entry", yaml: "a2aAgents:\n  x:\n    skills: nope\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.ParseCapabilities([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseCapabilities_Empty(t *testing.T) {
	descriptors, err := config.ParseCapabilities([]byte("mcpServers:\n"))
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestLoadCapabilities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capabilities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(capabilitiesYAML), 0o600))

	descriptors, err := config.LoadCapabilities(path)
	require.NoError(t, err)
	assert.Len(t, descriptors, 4)

	_, err = config.LoadCapabilities(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, capability.ErrConfigurationMissing)
}
