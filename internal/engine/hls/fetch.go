// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package hls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/acmplay/internal/log"
	"github.com/avast/retry-go/v4"
)

// maxPlaylistBytes bounds a single playlist body.
const maxPlaylistBytes = 8 << 20

// ErrHTTPStatus wraps non-2xx playlist responses.
var ErrHTTPStatus = errors.New("unexpected http status")

// fetch downloads target, retrying transient failures up to attempts times.
// Client errors and non-playlist bodies are not retried.
func (e *Engine) fetch(ctx context.Context, target string, attempts uint) ([]byte, error) {
	if attempts == 0 {
		attempts = 1
	}
	return retry.DoWithData(
		func() ([]byte, error) { return e.fetchOnce(ctx, target) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(e.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.logger.Debug().
				Err(err).
				Str(log.FieldEvent, "hls.fetch_retry").
				Str(log.FieldSourceURL, log.RedactURL(target)).
				Uint("attempt", n+1).
				Msg("playlist fetch failed, retrying")
		}),
	)
}

func (e *Engine) fetchOnce(ctx context.Context, target string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}
	if e.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}
	req.Header.Set("Accept", playlistMIME+", application/x-mpegurl, */*;q=0.5")

	resp, err := e.cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistBytes))
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	if !isPlaylist(body) {
		return nil, retry.Unrecoverable(ErrNotPlaylist)
	}
	return body, nil
}
