package dfp

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"
)

const sdkVersion = "1.0.0"

// fieldPair is an ordered key-value pair in the telemetry payload.
type fieldPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HTTPCollectorHost collects telemetry natively and submits it to the DFPPA
// domain over HTTPS. It stands in for the embedded web collector used on
// platforms with a UI surface: one launch, one submit round-trip, one
// response delivered through the request's Respond callback.
type HTTPCollectorHost struct {
	client *http.Client
}

// NewHTTPCollectorHost creates a collector host using the given HTTP client.
// A nil client falls back to a 10s-timeout default.
func NewHTTPCollectorHost(client *http.Client) *HTTPCollectorHost {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPCollectorHost{client: client}
}

// Launch starts the collection round-trip in the background and returns
// immediately. Respond is always called exactly once: with the server's
// telemetry id on success, or with "" on any failure.
func (h *HTTPCollectorHost) Launch(ctx context.Context, req CollectorRequest) error {
	go func() {
		req.Respond(h.collect(ctx, req))
	}()
	return nil
}

func (h *HTTPCollectorHost) collect(ctx context.Context, req CollectorRequest) string {
	payload, err := json.Marshal(map[string]any{
		"public_token": req.PublicToken,
		"request_id":   req.RequestID.String(),
		"fields":       collectFields(),
	})
	if err != nil {
		return ""
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.SubmitURL, bytes.NewReader(payload))
	if err != nil {
		return ""
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var submitResp struct {
		TelemetryID string `json:"telemetry_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return ""
	}
	return submitResp.TelemetryID
}

// collectFields gathers the device signals available to a headless runtime.
// Empty values are skipped so the submit payload only carries signals that
// actually resolved on this device.
func collectFields() []fieldPair {
	var fields []fieldPair
	add := func(key, value string) {
		if value != "" {
			fields = append(fields, fieldPair{key, value})
		}
	}

	add("SDKVER", sdkVersion)
	add("OS", runtime.GOOS)
	add("ARCH", runtime.GOARCH)
	add("CPUS", strconv.Itoa(runtime.NumCPU()))
	add("LANG", firstEnv("LC_ALL", "LC_MESSAGES", "LANG"))
	add("TZ", time.Now().Format("-0700"))
	add("HOSTH", hostnameDigest())

	return fields
}

// hostnameDigest hashes the hostname so the raw value never leaves the
// device.
func hostnameDigest() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

