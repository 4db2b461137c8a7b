package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/comply/internal/server"
	"github.com/jackzampolin/comply/internal/svcctx"
)

var (
	serveHost string
	servePort string
	noWatch   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the comply server",
	Long: `Start the comply HTTP server.

The server provides:
  - GET  /health            - Basic server health check
  - GET  /status            - Providers, result schema and prompt hashes
  - POST /token             - Exchange username/password for a bearer token
  - GET  /check-compliance  - Check a page (bearer token required)
  - GET  /api/prompts       - Prompts in use (bearer token required)

The config file is watched; provider, credential and prompt changes apply
to the next check without a restart.

auth.secret_key must resolve to a non-empty value (default: $SECRET_KEY).

Examples:
  comply serve                    # Start on the configured port (default 8080)
  comply serve --port 3000        # Start on custom port
  comply serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger(os.Stdout)
		if err != nil {
			return err
		}

		a, err := loadApp(logger)
		if err != nil {
			return err
		}
		cfg := a.config.Get()

		users, issuer, err := a.openAuth(ctx)
		if err != nil {
			return err
		}
		defer users.Close()

		checker, err := a.checker(nil)
		if err != nil {
			return err
		}

		if !noWatch {
			a.watch()
		}

		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host: host,
			Port: port,
			Services: &svcctx.Services{
				Checker:      checker,
				Registry:     a.registry,
				Users:        users,
				Issuer:       issuer,
				Prompts:      a.prompts,
				Schema:       a.schema,
				Logger:       logger,
				Home:         a.home,
				CheckTimeout: cfg.CheckTimeout(),
			},
			Logger: logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the config file on change")

	rootCmd.AddCommand(serveCmd)
}
