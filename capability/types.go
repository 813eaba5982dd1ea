package capability

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind distinguishes remote agents from tool servers
type Kind string

const (
	KindAgent Kind = "agent"
	KindTool  Kind = "tool"
)

// Transport is the wire mechanism used to reach a capability
type Transport string

const (
	TransportStdio      Transport = "stdio"
	TransportHTTP       Transport = "http"
	TransportHTTPStream Transport = "http-stream"
)

// Endpoint locates a capability: a URL for HTTP transports,
// a command with arguments for stdio subprocesses.
type Endpoint struct {
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Command string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"-" yaml:"env,omitempty"`
}

func (e Endpoint) String() string {
	if e.URL != "" {
		return e.URL
	}
	return strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
}

// Capabilities are the protocol features an agent advertises
type Capabilities struct {
	SupportsStreaming  bool `json:"supportsStreaming"`
	SupportsPushNotify bool `json:"supportsPushNotify"`
}

// Skill is one advertised ability of a remote agent
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// Descriptor describes one configured capability. Only Enabled changes after
// load, through the registry.
type Descriptor struct {
	ID                string       `json:"id"`
	Kind              Kind         `json:"kind"`
	Transport         Transport    `json:"transport"`
	Endpoint          Endpoint     `json:"endpoint"`
	DisplayName       string       `json:"displayName"`
	Description       string       `json:"description"`
	Tags              []string     `json:"tags,omitempty"`
	Enabled           bool         `json:"enabled"`
	Capabilities      Capabilities `json:"capabilities"`
	Skills            []Skill      `json:"skills,omitempty"`
	VersionConstraint string       `json:"versionConstraint,omitempty"`
}

// Normalize fills derived fields and validates the descriptor
func (d *Descriptor) Normalize(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDescriptor)
	}
	if d.ID != "" && d.ID != id {
		return fmt.Errorf("%w: id %q does not match key %q", ErrInvalidDescriptor, d.ID, id)
	}
	d.ID = id

	switch d.Kind {
	case KindAgent, KindTool:
	default:
		return fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidDescriptor, id, d.Kind)
	}

	d.Transport = Transport(strings.ToLower(string(d.Transport)))
	if d.Transport == "" && d.Kind == KindAgent {
		d.Transport = TransportHTTP
		if d.Capabilities.SupportsStreaming {
			d.Transport = TransportHTTPStream
		}
	}

	if d.DisplayName == "" {
		d.DisplayName = displayName(id)
	}
	d.Tags = uniqueTags(d.Tags)
	return nil
}

// Clone returns a deep copy so callers never share slices with the registry
func (d Descriptor) Clone() Descriptor {
	out := d
	out.Endpoint.Args = append([]string(nil), d.Endpoint.Args...)
	if d.Endpoint.Env != nil {
		out.Endpoint.Env = make(map[string]string, len(d.Endpoint.Env))
		for k, v := range d.Endpoint.Env {
			out.Endpoint.Env[k] = v
		}
	}
	out.Tags = append([]string(nil), d.Tags...)
	out.Skills = make([]Skill, len(d.Skills))
	for i, s := range d.Skills {
		s.Tags = append([]string(nil), s.Tags...)
		out.Skills[i] = s
	}
	return out
}

// Card is the metadata a remote agent publishes about itself
type Card struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Version      string       `json:"version,omitempty"`
	URL          string       `json:"url,omitempty"`
	Capabilities Capabilities `json:"capabilities"`
	Skills       []Skill      `json:"advertisedSkills"`
}

// ToolDescriptor is a remote-declared callable function of a tool server.
// Every transport produces this same shape. Function is the namespaced
// name the connector routes calls by.
type ToolDescriptor struct {
	CapabilityID string                 `json:"capabilityId"`
	Name         string                 `json:"name"`
	Function     string                 `json:"function,omitempty"`
	Description  string                 `json:"description"`
	Parameters   map[string]interface{} `json:"parameters"`
}

func displayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
