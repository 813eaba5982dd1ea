package config

import (
	"reflect"
	"strings"
)

// Setting is one environment variable read by Load
type Setting struct {
	Group       string
	Env         string
	Default     string
	Description string
	Secret      bool
}

// Settings lists every environment variable of Config in declaration order.
// Nested structures are flattened using their env prefix.
func Settings() []Setting {
	return collectSettings(reflect.TypeOf(Config{}), "", "General")
}

func collectSettings(t reflect.Type, prefix, group string) []Setting {
	var out []Setting
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}
		name, opts := parseEnvTag(tag)

		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && name == "" {
			section := strings.TrimSuffix(field.Tag.Get("description"), " configuration")
			out = append(out, collectSettings(ft, prefix+opts["prefix"], section)...)
			continue
		}

		out = append(out, Setting{
			Group:       group,
			Env:         prefix + name,
			Default:     opts["default"],
			Description: field.Tag.Get("description"),
			Secret:      field.Tag.Get("type") == "secret",
		})
	}
	return out
}

func parseEnvTag(tag string) (string, map[string]string) {
	parts := strings.Split(tag, ",")
	opts := make(map[string]string)
	for _, part := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		opts[key] = value
	}
	return strings.TrimSpace(parts[0]), opts
}
