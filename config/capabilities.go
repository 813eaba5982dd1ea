package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-gateway/capability-orchestrator/capability"
)

// MCPServerEntry is one tool server of the mcpServers map
type MCPServerEntry struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Transport   string            `yaml:"transport"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	URL         string            `yaml:"url"`
	Env         map[string]string `yaml:"env"`
	Enabled     *bool             `yaml:"enabled"`
	Tags        []string          `yaml:"tags"`
}

// A2AAgentEntry is one remote agent of the a2aAgents map
type A2AAgentEntry struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	URL          string `yaml:"url"`
	Transport    string `yaml:"transport"`
	Capabilities struct {
		Streaming         bool `yaml:"streaming"`
		PushNotifications bool `yaml:"pushNotifications"`
	} `yaml:"capabilities"`
	Skills            []capability.Skill `yaml:"skills"`
	Enabled           *bool              `yaml:"enabled"`
	Tags              []string           `yaml:"tags"`
	VersionConstraint string             `yaml:"versionConstraint"`
}

// LoadCapabilities reads the capabilities file
func LoadCapabilities(path string) ([]capability.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: capabilities file %s: %v", capability.ErrConfigurationMissing, path, err)
	}
	return ParseCapabilities(data)
}

// ParseCapabilities converts the mcpServers and a2aAgents maps into descriptors.
// Entries keep the order in which they appear in the document.
func ParseCapabilities(data []byte) ([]capability.Descriptor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse capabilities: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse capabilities: top level must be a mapping")
	}

	var descriptors []capability.Descriptor
	seen := make(map[string]struct{})
	add := func(d capability.Descriptor) error {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", capability.ErrInvalidDescriptor, d.ID)
		}
		seen[d.ID] = struct{}{}
		descriptors = append(descriptors, d)
		return nil
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		section, body := root.Content[i].Value, root.Content[i+1]
		switch section {
		case "mcpServers":
			err := eachEntry(body, section, func(id string, node *yaml.Node) error {
				var entry MCPServerEntry
				if err := node.Decode(&entry); err != nil {
					return fmt.Errorf("mcpServers.%s: %w", id, err)
				}
				return add(entry.descriptor(id))
			})
			if err != nil {
				return nil, err
			}
		case "a2aAgents":
			err := eachEntry(body, section, func(id string, node *yaml.Node) error {
				var entry A2AAgentEntry
				if err := node.Decode(&entry); err != nil {
					return fmt.Errorf("a2aAgents.%s: %w", id, err)
				}
				return add(entry.descriptor(id))
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return descriptors, nil
}

func eachEntry(body *yaml.Node, section string, fn func(id string, node *yaml.Node) error) error {
	if body.Kind == yaml.ScalarNode && body.Tag == "!!null" {
		return nil
	}
	if body.Kind != yaml.MappingNode {
		return fmt.Errorf("parse capabilities: %s must be a mapping", section)
	}
	for i := 0; i+1 < len(body.Content); i += 2 {
		if err := fn(body.Content[i].Value, body.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (e MCPServerEntry) descriptor(id string) capability.Descriptor {
	return capability.Descriptor{
		ID:        id,
		Kind:      capability.KindTool,
		Transport: capability.Transport(e.Transport),
		Endpoint: capability.Endpoint{
			URL:     e.URL,
			Command: e.Command,
			Args:    e.Args,
			Env:     e.Env,
		},
		DisplayName: e.Name,
		Description: e.Description,
		Tags:        e.Tags,
		Enabled:     enabledOrDefault(e.Enabled),
	}
}

func (e A2AAgentEntry) descriptor(id string) capability.Descriptor {
	return capability.Descriptor{
		ID:          id,
		Kind:        capability.KindAgent,
		Transport:   capability.Transport(e.Transport),
		Endpoint:    capability.Endpoint{URL: e.URL},
		DisplayName: e.Name,
		Description: e.Description,
		Tags:        e.Tags,
		Enabled:     enabledOrDefault(e.Enabled),
		Capabilities: capability.Capabilities{
			SupportsStreaming:  e.Capabilities.Streaming,
			SupportsPushNotify: e.Capabilities.PushNotifications,
		},
		Skills:            e.Skills,
		VersionConstraint: e.VersionConstraint,
	}
}

// entries without an enabled flag are enabled
func enabledOrDefault(enabled *bool) bool {
	return enabled == nil || *enabled
}
