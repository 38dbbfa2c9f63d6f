package updater

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/guiyumin/igget/internal/core/version"
)

const (
	repoOwner = "guiyumin"
	repoName  = "igget"
)

// Status describes the latest published release relative to this binary
type Status struct {
	Current   string
	Latest    string
	Available bool

	release *selfupdate.Release
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, err
	}
	return selfupdate.NewUpdater(selfupdate.Config{
		Source: source,
	})
}

// Check looks up the latest release on GitHub
func Check(ctx context.Context) (*Status, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, err
	}
	return check(ctx, updater)
}

func check(ctx context.Context, updater *selfupdate.Updater) (*Status, error) {
	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no releases found for %s/%s", repoOwner, repoName)
	}

	current := normalizeVersion(version.Version)
	return &Status{
		Current:   current,
		Latest:    latest.Version(),
		Available: current == "dev" || !latest.LessOrEqual(current),
		release:   latest,
	}, nil
}

// Update replaces the running executable with the latest release. It
// returns the status it acted on.
func Update(ctx context.Context) (*Status, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, err
	}

	status, err := check(ctx, updater)
	if err != nil {
		return nil, err
	}
	if !status.Available {
		return status, nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	if err := updater.UpdateTo(ctx, status.release, exe); err != nil {
		return nil, fmt.Errorf("failed to update: %w", err)
	}
	return status, nil
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// AssetName returns the expected release asset name for this platform
func AssetName() string {
	return fmt.Sprintf("igget_%s_%s", runtime.GOOS, runtime.GOARCH)
}
