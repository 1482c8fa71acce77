package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPChallengeClient executes challenges against an HTTP challenge
// endpoint. It is the default ChallengeClient where no native CAPTCHA SDK is
// available: one POST with the site key, one token back.
type HTTPChallengeClient struct {
	endpoint string
	siteKey  string
	client   *http.Client
}

// NewHTTPClientFactory returns a ClientFactory producing HTTP challenge
// clients against the given endpoint. A nil client falls back to a
// 10s-timeout default.
func NewHTTPClientFactory(endpoint string, client *http.Client) ClientFactory {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(siteKey string) (ChallengeClient, error) {
		if endpoint == "" {
			return nil, errors.New("captcha: no challenge endpoint configured")
		}
		return &HTTPChallengeClient{endpoint: endpoint, siteKey: siteKey, client: client}, nil
	}
}

// Execute runs one challenge round-trip and returns the resulting token.
func (c *HTTPChallengeClient) Execute(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{"site_key": c.siteKey})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("challenge endpoint returned %d: %s", resp.StatusCode, body)
	}

	var challengeResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&challengeResp); err != nil {
		return "", fmt.Errorf("failed to decode challenge response: %w", err)
	}
	if challengeResp.Token == "" {
		return "", errors.New("challenge endpoint returned empty token")
	}
	return challengeResp.Token, nil
}
