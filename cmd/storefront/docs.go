package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/storefront-assistant/internal/observability"
	"github.com/upb/storefront-assistant/repositories/postgres"
	"github.com/upb/storefront-assistant/services/documents"
	"github.com/upb/storefront-assistant/services/embedding"
)

var errEmbeddingKeyMissing = errors.New("GOOGLE_API_KEY is required to compute embeddings")

func newDocsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage the policy documents the assistant answers from",
	}

	cmd.AddCommand(newDocsImportCmd(opts))
	cmd.AddCommand(newDocsReembedCmd(opts))
	return cmd
}

func newDocsImportCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import policy documents from a YAML seed file",
		Long: `Import inserts every document of the seed file in a single transaction.
Imported documents carry no embedding; run "docs reembed" afterwards to
enable the semantic retrieval tier.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := documents.LoadSeedFile(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := opts.load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			factory, err := postgres.NewRepositoryFactory(rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer factory.Close()

			repos := factory.NewRepositories()
			indexer := documents.NewIndexer(repos.Documents, factory.GetTransactionManager(), embedding.Nop{}, rt.logger)
			if err := indexer.Import(ctx, docs); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents\n", len(docs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file path (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newDocsReembedCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reembed",
		Short: "Compute embeddings for stored policy documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := opts.load(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			if rt.cfg.Embedding.APIKey == "" {
				return errEmbeddingKeyMissing
			}

			factory, err := postgres.NewRepositoryFactory(rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer factory.Close()

			client := embedding.NewGoogleClient(rt.cfg.Embedding, rt.logger, observability.NewMetrics())
			repos := factory.NewRepositories()
			indexer := documents.NewIndexer(repos.Documents, factory.GetTransactionManager(), client, rt.logger)

			result, err := indexer.Reembed(ctx, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "embedded %d, skipped %d, failed %d\n",
				result.Embedded, result.Skipped, result.Failed)
			if result.Failed > 0 {
				return fmt.Errorf("%d documents could not be embedded", result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "re-embed documents that already have an embedding")
	return cmd
}
