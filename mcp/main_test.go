package mcp_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/mark3labs/mcp-go/server"
)

// stdioServerEnv turns the test binary into a stdio tool server
const stdioServerEnv = "CAPABILITY_ORCHESTRATOR_STDIO_SERVER"

func TestMain(m *testing.M) {
	if os.Getenv(stdioServerEnv) == "1" {
		if err := server.ServeStdio(newToolServer()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}
