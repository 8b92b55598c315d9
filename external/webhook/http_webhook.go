package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/foxseedlab/s2t/internal/webhook"
)

const webhookErrorBodyLimit = 1 << 10

type HTTPSender struct {
	webhookURL string
	client     *http.Client
}

func NewHTTPSender(webhookURL string) webhook.Sender {
	return &HTTPSender{
		webhookURL: strings.TrimSpace(webhookURL),
		client:     &http.Client{},
	}
}

// SendTranscript posts the transcript as a multipart form: session_id and
// outcome fields, then the file itself as "file". It does nothing when no
// webhook URL is configured.
func (s *HTTPSender) SendTranscript(ctx context.Context, t webhook.Transcript) error {
	if s.webhookURL == "" {
		return nil
	}

	body, contentType, err := transcriptForm(t)
	if err != nil {
		return fmt.Errorf("build webhook form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, body)
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, webhookErrorBodyLimit))
		return fmt.Errorf("webhook returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}

func transcriptForm(t webhook.Transcript) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("session_id", t.SessionID); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("outcome", t.Outcome); err != nil {
		return nil, "", err
	}
	part, err := mw.CreateFormFile("file", t.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(t.Body); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
