package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sahilchouksey/learnpath/model"
)

var (
	// ErrFaceVerifierUnavailable is returned when no face service is configured
	ErrFaceVerifierUnavailable = errors.New("face verification service is not configured")
	// ErrFaceServiceFailed wraps transport and protocol failures of the face service
	ErrFaceServiceFailed = errors.New("face service request failed")
)

// FaceMatch is the collaborator's verdict for one image
type FaceMatch struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
}

// FaceVerifier checks that an image shows the claimed user
type FaceVerifier interface {
	Verify(ctx context.Context, userID uint, image []byte) (*FaceMatch, error)
}

// HTTPFaceVerifier talks to the face service over JSON:
// POST {BaseURL}/verify with {"user_id", "image"} (base64).
type HTTPFaceVerifier struct {
	BaseURL    string
	Threshold  float64
	HTTPClient *http.Client
}

// NewHTTPFaceVerifier returns nil when baseURL is empty so callers can treat
// the collaborator as absent.
func NewHTTPFaceVerifier(baseURL string, threshold float64) *HTTPFaceVerifier {
	if baseURL == "" {
		return nil
	}
	return &HTTPFaceVerifier{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Threshold: threshold,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type faceVerifyRequest struct {
	UserID uint   `json:"user_id"`
	Image  string `json:"image"`
}

// Verify sends the image and reports a match only when the service says so
// with a confidence at or above Threshold.
func (c *HTTPFaceVerifier) Verify(ctx context.Context, userID uint, image []byte) (*FaceMatch, error) {
	if c == nil {
		return nil, ErrFaceVerifierUnavailable
	}
	if len(image) == 0 {
		return nil, errInvalidInput("image is required")
	}

	payload, err := json.Marshal(faceVerifyRequest{
		UserID: userID,
		Image:  base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFaceServiceFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrFaceServiceFailed, resp.StatusCode, string(body))
	}

	var match FaceMatch
	if err := json.NewDecoder(resp.Body).Decode(&match); err != nil {
		return nil, fmt.Errorf("%w: bad response: %v", ErrFaceServiceFailed, err)
	}

	match.Match = match.Match && match.Confidence >= c.Threshold
	return &match, nil
}

// FaceCheckpoint runs the post-watch face check and records the result on
// the lesson progress only when the collaborator reports a match.
type FaceCheckpoint struct {
	verifier FaceVerifier
	progress *ProgressService
}

// NewFaceCheckpoint wires a verifier to the progress service. verifier may
// be nil, in which case every check fails with ErrFaceVerifierUnavailable.
func NewFaceCheckpoint(verifier FaceVerifier, progress *ProgressService) *FaceCheckpoint {
	return &FaceCheckpoint{verifier: verifier, progress: progress}
}

// VerifyAfter asks the collaborator about image and, on a match, sets
// faceVerifiedAfter through ProgressService.VerifyAfter. The image is only
// sent once the lesson, the progress row and the watch threshold check out.
func (f *FaceCheckpoint) VerifyAfter(ctx context.Context, userID, lessonID uint, image []byte) (*model.LessonProgress, *FaceMatch, error) {
	if err := f.progress.CheckVerifyAfter(ctx, userID, lessonID); err != nil {
		return nil, nil, err
	}
	if f.verifier == nil {
		return nil, nil, ErrFaceVerifierUnavailable
	}

	match, err := f.verifier.Verify(ctx, userID, image)
	if err != nil {
		return nil, nil, err
	}
	if !match.Match {
		return nil, match, errRequiresFaceVerification().with("confidence", match.Confidence)
	}

	progress, err := f.progress.VerifyAfter(ctx, userID, lessonID)
	if err != nil {
		return nil, match, err
	}
	return progress, match, nil
}
