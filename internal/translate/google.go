package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultGoogleEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleBackend translates through the public Google Translate web endpoint.
type GoogleBackend struct {
	client   *http.Client
	endpoint string
}

// NewGoogleBackend returns a backend against the given endpoint (empty means
// the public Google endpoint) with the given per-call timeout.
func NewGoogleBackend(endpoint string, timeout time.Duration) *GoogleBackend {
	if endpoint == "" {
		endpoint = defaultGoogleEndpoint
	}
	return &GoogleBackend{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// Translate performs one blocking API call.
func (g *GoogleBackend) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", sourceLang)
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation backend returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse decodes the endpoint's nested-array format:
// [[["translated","original",...],["next chunk",...]], ...]
func parseGoogleResponse(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil || len(root) == 0 {
		return "", fmt.Errorf("unexpected translation response: %s", truncate(body, 80))
	}

	var chunks [][]json.RawMessage
	if err := json.Unmarshal(root[0], &chunks); err != nil {
		return "", fmt.Errorf("unexpected translation response: %s", truncate(body, 80))
	}

	var sb strings.Builder
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(chunk[0], &piece); err != nil {
			continue
		}
		sb.WriteString(piece)
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("translation response carried no text")
	}
	return sb.String(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
