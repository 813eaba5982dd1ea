// Package kubegen renders Helm templates for the Kubernetes ConfigMap and
// Secret holding the orchestrator environment.
package kubegen

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/inference-gateway/capability-orchestrator/config"
)

type section struct {
	Title    string
	Settings []config.Setting
}

const secretTemplate = `apiVersion: v1
kind: Secret
metadata:
  name: {{ "{{" }} .Values.envFrom.secretRef {{ "}}" }}
  labels:
    {{ "{{-" }} include "capability-orchestrator.labels" . | nindent 4 {{ "}}" }}
stringData:
{{- range $section := . }}
  # {{ $section.Title }}
  {{- range $setting := $section.Settings }}
  {{ $setting.Env }}: ""
  {{- end }}
{{- end }}
`

const configMapTemplate = `apiVersion: v1
kind: ConfigMap
metadata:
  name: {{ "{{" }} .Values.envFrom.configMapRef {{ "}}" }}
  labels:
    {{ "{{-" }} include "capability-orchestrator.labels" . | nindent 4 {{ "}}" }}
data:
{{- range $section := . }}
  # {{ $section.Title }}
  {{- range $setting := $section.Settings }}
  {{ printf "{{- if .Values.config.%s }}" $setting.Env }}
  {{ $setting.Env }}: {{ printf "{{ .Values.config.%s | quote }}" $setting.Env }}
  {{ "{{- end }}" }}
  {{- end }}
{{- end }}
`

// GenerateHelmSecret writes a Secret template with every secret setting
func GenerateHelmSecret(filePath string) error {
	return writeFile(filePath, func(w io.Writer) error {
		return RenderSecret(w, config.Settings())
	})
}

// GenerateHelmConfigMap writes a ConfigMap template with every non secret
// setting, each guarded by its Helm value
func GenerateHelmConfigMap(filePath string) error {
	return writeFile(filePath, func(w io.Writer) error {
		return RenderConfigMap(w, config.Settings())
	})
}

func RenderSecret(w io.Writer, settings []config.Setting) error {
	return render(w, "helm-secret", secretTemplate, sections(settings, true))
}

func RenderConfigMap(w io.Writer, settings []config.Setting) error {
	return render(w, "helm-configmap", configMapTemplate, sections(settings, false))
}

// sections groups settings in order, keeping only those whose Secret flag matches
func sections(settings []config.Setting, secret bool) []section {
	var out []section
	for _, s := range settings {
		if s.Secret != secret {
			continue
		}
		if len(out) == 0 || out[len(out)-1].Title != s.Group {
			out = append(out, section{Title: s.Group})
		}
		out[len(out)-1].Settings = append(out[len(out)-1].Settings, s)
	}
	return out
}

func render(w io.Writer, name, text string, data []section) error {
	t, err := template.New(name).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

func writeFile(filePath string, fn func(io.Writer) error) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	return fn(f)
}
