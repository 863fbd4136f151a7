package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// SiteNotifier tells the console to regenerate the static site after a
// paper leaves it (withdrawal, or demotion on a new version). Calls are
// best effort with a short timeout; the triggering operation never
// waits on or fails with the console.
type SiteNotifier struct {
	// BaseURL of the console, e.g. "https://console.ai-theoretical.org".
	// Empty disables notifications.
	BaseURL string
	Client  *http.Client
}

func (n *SiteNotifier) post(ctx context.Context, path, paperID string) {
	if n.BaseURL == "" {
		return
	}
	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	body, _ := json.Marshal(map[string]string{"paperId": paperID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("build site notification")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("path", path).Str("paper_id", paperID).Msg("notify site console")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Str("paper_id", paperID).
			Msg("site console rejected notification")
	}
}

// NotifyWithdraw reports a withdrawn paper so it is removed from the
// site.
func (n *SiteNotifier) NotifyWithdraw(ctx context.Context, paperID string) {
	n.post(ctx, "/api/notify-withdraw", paperID)
}

// NotifyNewVersion reports a paper demoted to pending by a new version
// so it is removed from the site until re-approved.
func (n *SiteNotifier) NotifyNewVersion(ctx context.Context, paperID string) {
	n.post(ctx, "/api/notify-new-version", paperID)
}
