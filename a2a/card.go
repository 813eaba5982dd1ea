package a2a

import (
	"context"
	"fmt"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/logger"
)

var _ capability.CardFetcher = (*CardFetcher)(nil)

// CardFetcher resolves capability cards for the registry
type CardFetcher struct {
	opts   Options
	logger logger.Logger
}

func NewCardFetcher(opts Options, log logger.Logger) *CardFetcher {
	return &CardFetcher{opts: opts, logger: log}
}

// FetchCard fetches the agent card of an agent descriptor
func (f *CardFetcher) FetchCard(ctx context.Context, descriptor capability.Descriptor) (*capability.Card, error) {
	if descriptor.Endpoint.URL == "" {
		return nil, fmt.Errorf("agent %s has no url", descriptor.ID)
	}
	card, err := NewClient(descriptor.Endpoint.URL, f.opts, f.logger).GetAgentCard(ctx)
	if err != nil {
		return nil, err
	}
	return card.ToCapabilityCard(descriptor.ID), nil
}

// ToCapabilityCard maps the wire card onto the registry's card shape
func (c *AgentCard) ToCapabilityCard(id string) *capability.Card {
	skills := make([]capability.Skill, 0, len(c.Skills))
	for _, s := range c.Skills {
		skills = append(skills, capability.Skill{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Tags:        s.Tags,
		})
	}
	return &capability.Card{
		ID:          id,
		Name:        c.Name,
		Description: c.Description,
		Version:     c.Version,
		URL:         c.URL,
		Capabilities: capability.Capabilities{
			SupportsStreaming:  c.Capabilities.Streaming,
			SupportsPushNotify: c.Capabilities.PushNotifications,
		},
		Skills: skills,
	}
}
