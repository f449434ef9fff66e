package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"statement-extraction-service/cmd/extractor/config"
	"statement-extraction-service/internal/api"
	"statement-extraction-service/internal/process"
	"statement-extraction-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the serve command
var (
	serveHost string
	servePort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction HTTP API",
	Long: `Serve starts the HTTP API for statement extraction.

Endpoints:
  POST /api/v1/extract   multipart upload (field "file", optional "bank" hint), returns transactions as JSON
  GET  /api/v1/health    liveness probe

The API processes uploads fully in-memory and writes no artifacts.

Examples:
  extractor serve
  extractor serve --host 127.0.0.1 --port 9090`,

	PreRunE: validateServeFlags,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "listen address")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "listen port")

	viper.BindPFlag("host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func validateServeFlags(cmd *cobra.Command, args []string) error {
	serveHost = viper.GetString("host")
	servePort = viper.GetInt("port")

	if servePort <= 0 || servePort > 65535 {
		return fmt.Errorf("invalid port: %d", servePort)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	processorConfig, err := config.CreateProcessorConfig()
	if err != nil {
		return err
	}
	processorConfig.WriteArtifacts = false

	processor, err := process.NewProcessor(processorConfig)
	if err != nil {
		return err
	}

	serverConfig := api.DefaultConfig()
	serverConfig.Host = serveHost
	serverConfig.Port = servePort

	api.Version = version
	server, err := api.NewServer(serverConfig, processor)
	if err != nil {
		return err
	}

	// Drain on SIGINT/SIGTERM.
	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.GetGlobalLogger().Info("Shutdown signal received")
		if err := server.Shutdown(); err != nil {
			logger.GetGlobalLogger().WithError(err).Error("Server shutdown failed")
		}
		close(done)
	}()

	if err := server.Listen(); err != nil {
		return err
	}
	<-done
	return nil
}
