package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/guiyumin/igget/internal/core/config"
	"github.com/guiyumin/igget/internal/core/downloader"
	"github.com/guiyumin/igget/internal/core/extractor"
	"github.com/guiyumin/igget/internal/core/i18n"
	"github.com/spf13/cobra"
)

var (
	downloadType   string
	downloadOutput string
)

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download a media URL, or every item of an Instagram post",
	Long: `Download media to disk.

Given a media URL, --type decides the saved content type and extension.
Given an Instagram post URL, the post is resolved first and every media
item is saved into the output directory.

Examples:
  igget download "https://scontent.cdninstagram.com/v/...mp4" --type video
  igget download "https://scontent.cdninstagram.com/v/...jpg" -t image -o cover.jpg
  igget download https://www.instagram.com/p/ABC123/ -o ~/Pictures/ig`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadType, "type", "t", "", "media kind of a media URL (image or video)")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file for a media URL, or output directory for a post URL")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	warnMissingConfig(cfg.Language)

	streamer := downloader.NewStreamer(cfg.Download.Platform, cfg.Download.Timeout)

	if _, err := extractor.Identify(args[0]); err == nil {
		return downloadPost(cmd.Context(), cfg, streamer, args[0])
	}
	return downloadMedia(cmd.Context(), cfg, streamer, args[0])
}

func downloadMedia(ctx context.Context, cfg *config.Config, streamer *downloader.Streamer, mediaURL string) error {
	t := i18n.T(cfg.Language)

	kind, err := downloader.ParseKind(downloadType)
	if err != nil {
		return errors.New(t.Errors.InvalidType)
	}

	asset, err := streamer.Open(ctx, mediaURL, kind)
	if err != nil {
		return downloadError(t, err)
	}

	output := downloadOutput
	if output == "" {
		output = filepath.Join(cfg.OutputDir, asset.Filename)
	}
	return saveAsset(asset, output, cfg.Language)
}

func downloadPost(ctx context.Context, cfg *config.Config, streamer *downloader.Streamer, postURL string) error {
	t := i18n.T(cfg.Language)

	result, err := resolve(ctx, cfg, postURL, true)
	if err != nil {
		return err
	}

	dir := downloadOutput
	if dir == "" {
		dir = cfg.OutputDir
	}

	var failed int
	for i, item := range result.Media {
		kind := downloader.Kind(item.Kind)
		asset, err := streamer.Open(ctx, item.URL, kind)
		if err != nil {
			failed++
			fmt.Fprintln(os.Stderr, color.RedString("[%d] %v", i+1, downloadError(t, err)))
			continue
		}

		name := fmt.Sprintf("%s_%d.%s", result.Shortcode, i+1, kind.Ext())
		if result.Shortcode == "" {
			name = fmt.Sprintf("%d_%s", i+1, asset.Filename)
		}
		if err := saveAsset(asset, filepath.Join(dir, name), cfg.Language); err != nil {
			failed++
			fmt.Fprintln(os.Stderr, color.RedString("[%d] %v", i+1, err))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%s (%d/%d)", t.Download.Failed, failed, len(result.Media))
	}
	return nil
}

// saveAsset writes the asset to output, with a progress display when
// stdout is a terminal. The asset is closed.
func saveAsset(asset *downloader.Asset, output, lang string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		asset.Close()
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if isTerminal() {
		return downloader.RunSaveTUI(asset, output, lang)
	}

	n, err := downloader.Save(asset, output)
	if err != nil {
		return err
	}
	t := i18n.T(lang)
	fmt.Printf("%s %s (%d bytes)\n", color.GreenString("%s:", t.Download.FileSaved), output, n)
	return nil
}

func downloadError(t *i18n.Translations, err error) error {
	switch {
	case errors.Is(err, downloader.ErrInvalidURL):
		return errors.New(t.Errors.InvalidURL)
	case errors.Is(err, downloader.ErrInvalidKind):
		return errors.New(t.Errors.InvalidType)
	case errors.Is(err, downloader.ErrUnavailable):
		return fmt.Errorf("%s: %w", t.Errors.DownloadFailed, err)
	}
	return fmt.Errorf("%s: %w", t.Errors.DownloadError, err)
}
