package whatsapp

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// GetMediaURL resolves a media id to a short lived download URL.
func (c *APIClient) GetMediaURL(ctx context.Context, mediaID string) (*MediaURLResponse, error) {
	path, err := mediaPath(mediaID)
	if err != nil {
		return nil, err
	}
	return Call[MediaURLResponse](ctx, c, http.MethodGet, path, nil)
}

func (c *APIClient) DeleteMedia(ctx context.Context, mediaID string) (*SuccessResponse, error) {
	path, err := mediaPath(mediaID)
	if err != nil {
		return nil, err
	}
	return Call[SuccessResponse](ctx, c, http.MethodDelete, path, nil)
}

// mediaPath escapes the id into a single path segment.
func mediaPath(mediaID string) (string, error) {
	id := strings.TrimSpace(mediaID)
	if id == "" || id == "." || id == ".." {
		return "", errors.New("whatsapp: media id must be provided")
	}
	return url.PathEscape(id), nil
}
