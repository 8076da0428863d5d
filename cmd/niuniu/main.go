package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Superskyyy/niuniu-plus/internal/bootstrap"
	"github.com/Superskyyy/niuniu-plus/internal/config"
)

var version = "dev" // inyectado con -ldflags en release

func main() {
	// .env es opcional; las env del sistema mandan igual.
	_ = godotenv.Load(".env")

	var cfgPath string

	root := &cobra.Command{
		Use:   "niuniu",
		Short: "Plugin de juego grupal con federación de grupos",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("NIUNIU_CONFIG", "config.yaml"), "ruta del YAML de configuración (env NIUNIU_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor de eventos del bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("cargando config: %w", err)
			}

			app, err := bootstrap.Build(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("niuniu-plus", version)
		},
	}

	root.AddCommand(serveCmd, versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
