package main

// Stdio MCP server exposing the CV analysis helpers to agent clients:
//   go run ./cmd/mcp
//
// Stdout carries JSON-RPC frames only; every log line goes to stderr.

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"recruit-backend/internal/cvanalysis"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/telemetry"
)

func main() {
	routeLogs(os.Stderr)
	cfg := config.Load()

	holder := loadHolder(cfg.ModelDir)

	s := server.NewMCPServer("recruit-cv-tools", "1.0.0")
	registerTools(s, holder)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// routeLogs sends telemetry and standard log output to w.
func routeLogs(w io.Writer) (restore func()) {
	restoreTelemetry := telemetry.SetOutput(w)
	prevLog := log.Writer()
	log.SetOutput(w)
	return func() {
		restoreTelemetry()
		log.SetOutput(prevLog)
	}
}

// loadHolder loads the trained model from dir. Without one the tools fall
// back to feature extraction.
func loadHolder(dir string) *cvanalysis.Holder {
	holder := cvanalysis.NewHolder(dir)
	if err := holder.Reload(); err != nil {
		telemetry.Warn("mcp.model_unavailable", map[string]any{"dir": dir, "error": err})
	}
	return holder
}
