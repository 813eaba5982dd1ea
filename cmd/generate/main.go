package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	config "github.com/inference-gateway/capability-orchestrator/config"
	kubegen "github.com/inference-gateway/capability-orchestrator/internal/kubegen"
	mdgen "github.com/inference-gateway/capability-orchestrator/internal/mdgen"
)

var (
	output string
	_type  string
)

func init() {
	flag.StringVar(&output, "output", "", "Path to the output file")
	flag.StringVar(&_type, "type", "", "The type of the file to generate (Env, ConfigMap, Secret, or MD)")
}

func main() {
	flag.Parse()

	if output == "" || _type == "" {
		fmt.Println("Both -output and -type must be specified")
		os.Exit(1)
	}

	var err error
	switch _type {
	case "Env":
		err = generateEnvExample(output)
	case "ConfigMap":
		err = kubegen.GenerateHelmConfigMap(output)
	case "Secret":
		err = kubegen.GenerateHelmSecret(output)
	case "MD":
		err = mdgen.GenerateConfigurationsMD(output)
	default:
		fmt.Println("Invalid type specified")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error generating %s: %v\n", output, err)
		os.Exit(1)
	}
}

func generateEnvExample(filePath string) error {
	var sb strings.Builder
	currentGroup := ""
	for _, setting := range config.Settings() {
		if setting.Group != currentGroup {
			if currentGroup != "" {
				sb.WriteString("\n")
			}
			sb.WriteString(fmt.Sprintf("# %s\n", setting.Group))
			currentGroup = setting.Group
		}
		sb.WriteString(fmt.Sprintf("%s=%s\n", setting.Env, setting.Default))
	}

	return os.WriteFile(filePath, []byte(sb.String()), 0644)
}
