package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Sender delivers one signed payload.
type Sender struct {
	url    string
	secret string
	client *http.Client
	now    func() time.Time
}

func NewSender(url, secret string, timeout time.Duration) *Sender {
	return &Sender{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// Send POSTs the payload. Any transport error or non-2xx status is an error.
func (s *Sender) Send(ctx context.Context, eventType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	ts := s.now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, eventType)
	req.Header.Set(TimestampHeader, strconv.FormatInt(ts, 10))
	req.Header.Set("User-Agent", "Rekko-Kiosk-Webhook/1.0")
	if s.secret != "" {
		req.Header.Set(SignatureHeader, Sign(s.secret, ts, payload))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send webhook: HTTP %d", resp.StatusCode)
	}
	return nil
}
