package predict

import (
	"context"
	"errors"
	"fmt"

	"labrisk-backend/internal/features"
)

// ErrUnavailable marks a failed prediction call: network failure, non-2xx
// response, or a response missing the prediction field. The caller surfaces
// it immediately; no retries are performed here.
var ErrUnavailable = errors.New("prediction service unavailable")

// Predictor scores a feature vector and returns a risk label.
type Predictor interface {
	Predict(ctx context.Context, vec features.Vector) (string, error)
}

// Placeholder is a stub implementation used when no endpoint is configured.
type Placeholder struct{}

// Predict returns ErrUnavailable.
func (Placeholder) Predict(ctx context.Context, vec features.Vector) (string, error) {
	_ = ctx
	_ = vec
	return "", fmt.Errorf("%w: PREDICT_URL not configured", ErrUnavailable)
}
