package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fency/outreach-pipeline/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one page of properties and owners from the configured list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, pipeline.Deps{
			Store:         st,
			PropertyRadar: newPropertyRadar(cfg),
		})

		summary, err := p.RunIngest(ctx)
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		zap.L().Info("ingest finished",
			zap.Int("properties", summary.Properties),
			zap.Int("owners", summary.Owners),
			zap.Int("failed", summary.Failed),
		)
		return nil
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Poll for owners pending enrichment and look up their emails",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, pipeline.Deps{
			Store: st,
			PDL:   newPDL(cfg),
		})
		return p.RunEnrich(ctx)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Poll for owners pending verification and check their emails",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("verify"); err != nil {
			return err
		}
		if cfg.MillionVerifier.Key == "" || cfg.NeverBounce.Key == "" {
			zap.L().Warn("verification provider key missing, its results will be uncertain",
				zap.Bool("millionverifier", cfg.MillionVerifier.Key != ""),
				zap.Bool("neverbounce", cfg.NeverBounce.Key != ""),
			)
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		mv, nb := newVerifiers(cfg)
		p := pipeline.New(cfg, pipeline.Deps{
			Store:           st,
			MillionVerifier: mv,
			NeverBounce:     nb,
		})
		return p.RunVerify(ctx)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, enrichCmd, verifyCmd)
}
