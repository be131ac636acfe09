package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/color-variations/internal/config"
	"github.com/ironsheep/color-variations/internal/logging"
	"github.com/ironsheep/color-variations/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("colorvar-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("colorvar-mcp - MCP server for color variation generation")
			fmt.Println()
			fmt.Println("Usage: colorvar-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from .env):")
			fmt.Println("  COLORVAR_LOG_LEVEL=debug     Enable debug logging")
			fmt.Println("  COLORVAR_LOG_FILE=path       Also write JSON logs to a rotating file")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	// Logs go to stderr; stdout is for the MCP protocol
	log := logging.New(logging.Options{
		Level:   zapcore.InfoLevel,
		LogFile: os.Getenv(config.EnvLogFile),
		Console: os.Stderr,
	})
	defer func() { _ = log.Sync() }()

	log.Debug("Color variations MCP server",
		zap.String("version", Version),
		zap.String("built", BuildTime),
		zap.String("commit", GitCommit))

	srv := server.New(log)
	if err := srv.Run(); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
