package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/leoprim/ranked-tracker-web/internal/initializer"
	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/spf13/cobra"
)

// ErrNoInstaller is returned by the resolve command on a clean negative result
var ErrNoInstaller = errors.New("no installer found")

var (
	resolveRepo        string
	resolveTagPrefix   string
	resolveAssetSuffix string
	resolvePageSize    int
)

var ResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the download URL of the newest installer",
	Long: `Resolve the newest release whose tag has the configured prefix and which
carries an asset with the configured suffix, and print its download URL.
Exits non-zero when nothing qualifies or GitHub could not be asked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *Cfg
		// no point caching a single lookup
		cfg.Cache.TTL = 0
		if cmd.Flags().Changed("repo") {
			cfg.GitHub.Repo = resolveRepo
		}
		if cmd.Flags().Changed("tag-prefix") {
			cfg.Release.TagPrefix = resolveTagPrefix
		}
		if cmd.Flags().Changed("asset-suffix") {
			cfg.Release.AssetSuffix = resolveAssetSuffix
		}
		if cmd.Flags().Changed("page-size") {
			cfg.Release.PageSize = resolvePageSize
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		stack, err := initializer.NewStack(&cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		outcome, err := stack.Resolver.Resolve(ctx, cfg.GitHub.Repo, cfg.Policy())
		switch {
		case release.IsTransport(err):
			return fmt.Errorf("could not reach GitHub: %w", err)
		case release.IsMalformed(err):
			return fmt.Errorf("unexpected response from GitHub: %w", err)
		case err != nil:
			return err
		case !outcome.IsFound():
			return fmt.Errorf("%w in the %d most recent releases of %s matching %s*/*%s",
				ErrNoInstaller, cfg.Release.PageSize, cfg.GitHub.Repo, cfg.Release.TagPrefix, cfg.Release.AssetSuffix)
		}

		fmt.Fprintln(cmd.OutOrStdout(), outcome.URL())
		return nil
	},
}

func init() {
	ResolveCmd.Flags().StringVar(&resolveRepo, "repo", "", "GitHub repository in owner/repo form (overrides config)")
	ResolveCmd.Flags().StringVar(&resolveTagPrefix, "tag-prefix", "", "required release tag prefix (overrides config)")
	ResolveCmd.Flags().StringVar(&resolveAssetSuffix, "asset-suffix", "", "required asset file name suffix (overrides config)")
	ResolveCmd.Flags().IntVar(&resolvePageSize, "page-size", release.DefaultPageSize, "number of recent releases to consider (overrides config)")
	RootCmd.AddCommand(ResolveCmd)
}
