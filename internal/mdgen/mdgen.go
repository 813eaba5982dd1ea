package mdgen

import (
	"fmt"
	"os"
	"strings"

	"github.com/inference-gateway/capability-orchestrator/config"
)

// GenerateConfigurationsMD writes one table per configuration group
func GenerateConfigurationsMD(filePath string) error {
	return os.WriteFile(filePath, []byte(Render(config.Settings())), 0644)
}

func Render(settings []config.Setting) string {
	var sb strings.Builder
	sb.WriteString("# Capability Orchestrator Configuration\n")

	currentGroup := ""
	for _, setting := range settings {
		if setting.Group != currentGroup {
			sb.WriteString(fmt.Sprintf("\n## %s\n\n", setting.Group))
			sb.WriteString("| Environment Variable | Default Value | Description |\n")
			sb.WriteString("|---------------------|---------------|-------------|\n")
			currentGroup = setting.Group
		}

		defaultVal := "`" + setting.Default + "`"
		if setting.Default == "" {
			defaultVal = "`\"\"`"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", setting.Env, defaultVal, setting.Description))
	}

	return sb.String()
}
