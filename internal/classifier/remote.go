package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/veggiepos-backend/pkg/enums"
)

const maxResponseBytes = 64 << 10

type remoteResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Remote forwards frames to an inference service that answers with
// {"label": "...", "confidence": 0.93}.
type Remote struct {
	url    string
	client *http.Client
	// MinConfidence below which the answer is reported as Unknown.
	MinConfidence float64
}

func NewRemote(url string, client *http.Client) (*Remote, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("classifier url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{url: url, client: client}, nil
}

func (r *Remote) Classify(ctx context.Context, frame Frame) (enums.Produce, error) {
	if len(frame.Data) == 0 {
		return "", errors.New("empty frame")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(frame.Data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	contentType := frame.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out remoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode classifier response: %w", err)
	}
	if r.MinConfidence > 0 && out.Confidence < r.MinConfidence {
		return enums.ProduceUnknown, nil
	}
	return enums.NormalizeProduce(out.Label), nil
}
