package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lcplatform/platform/pkg/log"
	"github.com/lcplatform/platform/pkg/metrics"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/provider/aws"
	"github.com/lcplatform/platform/pkg/provider/mock"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health, readiness, and metrics endpoints over HTTP",
	Long: `serve exposes the library's observability surface: /health and
/live report process liveness, /ready reports component readiness, and
/metrics exports Prometheus metrics. Every registered provider is
tracked as a health component.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := provider.NewRegistry()
		mock.Register(reg)
		aws.Register(reg)

		metrics.SetVersion(Version)
		for _, p := range reg.Providers() {
			metrics.RegisterComponent(fmt.Sprintf("provider:%s", p), true, "registered")
		}

		server := &http.Server{
			Addr:         serveAddr,
			Handler:      newServeMux(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		log.Logger.Info().Str("addr", serveAddr).Msg("serving health and metrics")
		return server.ListenAndServe()
	},
}

func newServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":9090", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
