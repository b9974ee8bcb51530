package commands

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/benvon/levelup-ai/internal/backend"
	"github.com/benvon/levelup-ai/internal/config"
	"github.com/benvon/levelup-ai/internal/queue"
	"github.com/benvon/levelup-ai/internal/services/ai"
	"github.com/benvon/levelup-ai/internal/services/identity"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check connectivity to every configured dependency",
		Long:  "Pings the store backend, Redis, RabbitMQ and the OIDC JWKS endpoint when they are configured,\nand checks that AI_PROVIDER names a registered generation provider.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			out := cmd.OutOrStdout()
			failed := 0
			report := func(name string, err error) {
				if err != nil {
					failed++
					fmt.Fprintf(out, "✗ %s: %v\n", name, err)
					return
				}
				fmt.Fprintf(out, "✓ %s\n", name)
			}

			logger := zap.NewNop()
			stores, err := backend.Open(ctx, cfg, logger)
			report("store backend ("+cfg.StoreBackend+")", err)
			if err == nil {
				defer stores.Close(logger)
				report("quota store", stores.Quota.Ping(ctx))
				report("preference store", stores.Preferences.Ping(ctx))
			}

			if cfg.RabbitMQURL != "" {
				q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
				if err == nil {
					err = q.HealthCheck(ctx)
					_ = q.Close()
				}
				report("rabbitmq", err)
			}

			if cfg.AuthProvider == config.AuthOIDC {
				mgr := identity.NewJWKSManager(time.Minute, &http.Client{Timeout: 10 * time.Second})
				set, err := mgr.GetJWKS(ctx, cfg.OIDCJWKSURL)
				if err == nil && set.Len() == 0 {
					err = fmt.Errorf("no keys published")
				}
				report("oidc jwks", err)
			}

			names := ai.DefaultRegistry().Names()
			var providerErr error
			if !slices.Contains(names, cfg.AIProvider) {
				providerErr = fmt.Errorf("unknown provider, registered: %s", strings.Join(names, ", "))
			}
			report("generation provider ("+cfg.AIProvider+")", providerErr)

			if cfg.GenerationAPIKey() == "" {
				fmt.Fprintf(out, "! %s API key not set; generation endpoints will fail\n", cfg.AIProvider)
			}

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}
