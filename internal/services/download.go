package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tbourn/go-hatch-backend/internal/repo"
)

// saveRemoteImage downloads url into the image asset directory under a fresh
// "<prefix>_<uuid>.png" name and returns the public path.
func (h *Hatchery) saveRemoteImage(ctx context.Context, url, prefix string) (string, error) {
	done := track(stepDownload)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		done(err)
		return "", fmt.Errorf("%w: %w", ErrAssetDownload, err)
	}
	client := h.Fetch
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		done(err)
		return "", fmt.Errorf("%w: %w", ErrAssetDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: %s returned %d", ErrAssetDownload, req.URL.Host, resp.StatusCode)
		done(err)
		return "", err
	}

	public, err := h.Assets.Save(repo.AssetImages, repo.NewImageName(prefix), resp.Body)
	done(err)
	if err != nil {
		return "", fmt.Errorf("save %s image: %w", prefix, err)
	}
	return public, nil
}
