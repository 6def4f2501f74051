package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iiFadel/dynamic-form-allocation/internal/domain"
)

// maxErrorBodyBytes bounds how much of a failing callback response gets
// read for the operator log.
const maxErrorBodyBytes = 4096

// HTTPRelay delivers submission results with a single blocking POST. There
// is no retry queue: the submission flow reports exactly what the one
// attempt did.
type HTTPRelay struct {
	client *http.Client
	log    *logrus.Logger
}

func NewHTTPRelay(timeout time.Duration, log *logrus.Logger) *HTTPRelay {
	return &HTTPRelay{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (r *HTTPRelay) Deliver(ctx context.Context, url string, payload *domain.CallbackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"formId":      payload.FormID,
			"callbackUrl": url,
		}).WithError(err).Error("callback endpoint unreachable")
		return &domain.DeliveryError{Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		r.log.WithFields(logrus.Fields{
			"formId":      payload.FormID,
			"callbackUrl": url,
			"status":      resp.StatusCode,
			"body":        string(respBody),
		}).Error("callback endpoint rejected submission")
		return &domain.DeliveryError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
