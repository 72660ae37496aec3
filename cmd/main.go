// jobmate-intake-service
//
// Multi-step job application intake wizard.
// Exposes a REST API and a gRPC service used by the Gateway to implement:
//   - startSession / endSession:          one wizard per applicant session
//   - draft(sessionId, answers):          derived fields and render hints
//   - advance(sessionId, answers):        validate the active step and move forward
//   - retreat(sessionId):                 move back, answers kept
//   - review / submit(sessionId, confirm): summary and final submission
//
// Publishes EVENT_INTAKE_STEP and EVENT_INTAKE_SUBMITTED to Redis for Gateway
// SSE forward. Idle sessions are discarded by a cron sweep.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"jobmate/intake-service/internal/catalog"
	"jobmate/intake-service/internal/config"
	"jobmate/intake-service/internal/db"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "intake",
		Short:        "Job application intake wizard service",
		Version:      version,
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd(), newCatalogCmd())
	return cmd
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := loadCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out, err := c.Marshal()
			if err != nil {
				return fmt.Errorf("encode catalog: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// loadCatalog picks the catalog source: PostgreSQL, then a YAML file, then
// the built-in default.
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	switch {
	case cfg.DatabaseURL != "":
		log.Println("[intake-service] Loading catalog from PostgreSQL…")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		return catalog.LoadPostgres(ctx, pool)
	case cfg.CatalogFile != "":
		log.Printf("[intake-service] Loading catalog from %s…", cfg.CatalogFile)
		return catalog.LoadFile(cfg.CatalogFile)
	default:
		return catalog.Default(), nil
	}
}
