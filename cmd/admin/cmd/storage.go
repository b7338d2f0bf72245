package cmd

import (
	"fmt"
	"strings"

	"github.com/sotfmods/api/internal/config"
	"github.com/sotfmods/api/internal/logger"
	"github.com/sotfmods/api/internal/storage"
	"github.com/spf13/cobra"
)

// ConfigureCORSCmd only needs the bucket, so it skips the database.
func ConfigureCORSCmd() *cobra.Command {
	var origins []string

	c := &cobra.Command{
		Use:   "configure-cors",
		Short: "Apply the CORS policy presigned browser uploads need to the bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
			defer logger.Flush()

			if len(origins) == 0 {
				origins = cfg.CORSOrigins
			}

			s, err := storage.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			if err := s.ConfigureCORS(cmd.Context(), origins); err != nil {
				return err
			}

			rule := storage.BucketCORS(origins).CORSRules[0]
			fmt.Printf("Configured CORS on %s\n", cfg.S3Bucket)
			fmt.Printf("  origins: %s\n", strings.Join(rule.AllowedOrigins, ", "))
			fmt.Printf("  methods: %s\n", strings.Join(rule.AllowedMethods, ", "))
			return nil
		},
	}
	c.Flags().StringSliceVar(&origins, "origin", nil, "allowed origin, repeatable (default CORS_ORIGINS)")
	return c
}
