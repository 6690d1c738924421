// internal/nlpclient/client.go
package nlpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/config"
)

// Routes of the morphology service.
const (
	routeLemma         = "/api/v1/morph/lemma"
	routeFeatures      = "/api/v1/morph/features"
	routeInflect       = "/api/v1/morph/inflect"
	routeSimilarity    = "/api/v1/semantic/similarity/"
	routeSentenceSplit = "/api/v1/text/sentence-split"
	routePOS           = "/api/v1/text/pos"
	routeHealth        = "/api/v1/service/health"
)

// ErrService is the root of every error reported by the morphology service itself.
var ErrService = errors.New("morphology service error")

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Detail     string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("morphology service: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("morphology service: status %d, body: %s", e.StatusCode, string(e.Body))
}

func (e *APIError) Unwrap() error { return ErrService }

// Transient reports whether the request is worth repeating.
func (e *APIError) Transient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

// Health is the service's readiness report.
type Health struct {
	Status       string   `json:"status"`
	LoadedModels []string `json:"loaded_models"`
}

// Client talks to the HTTP morphology service. It implements
// schemas.MorphologyService and schemas.SentenceSplitter and is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	cfg        config.MorphologyConfig
}

// New initializes the client. A zero RateLimit disables client-side throttling.
func New(cfg config.MorphologyConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("morphology service base URL is required")
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		logger:  logger.Named("nlpclient"),
		cfg:     cfg,
	}, nil
}

// -- Service Operations --

func (c *Client) Lemma(ctx context.Context, word string) (schemas.LemmaResult, error) {
	var out schemas.LemmaResult
	err := c.post(ctx, routeLemma, map[string]string{"word": word}, &out)
	return out, err
}

// featuresPayload accepts both an object and a "Key=Value|Key=Value" string
// for the features field.
type featuresPayload struct {
	Word     string          `json:"word"`
	POS      string          `json:"pos"`
	Lemma    string          `json:"lemma"`
	Features json.RawMessage `json:"features"`
}

func (c *Client) Features(ctx context.Context, word string) (schemas.WordFeatures, error) {
	var payload featuresPayload
	if err := c.post(ctx, routeFeatures, map[string]string{"word": word}, &payload); err != nil {
		return schemas.WordFeatures{}, err
	}
	features, err := decodeFeatures(payload.Features)
	if err != nil {
		return schemas.WordFeatures{}, fmt.Errorf("failed to decode features of %q: %w", word, err)
	}
	if payload.Word == "" {
		payload.Word = word
	}
	return schemas.WordFeatures{
		Word:     payload.Word,
		POS:      payload.POS,
		Lemma:    payload.Lemma,
		Features: features,
	}, nil
}

type posToken struct {
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	UPOS  string `json:"upos"`
	Feats string `json:"feats"`
}

type posResponse struct {
	Result [][]posToken `json:"result"`
}

// FeaturesInSentence analyses the whole sentence in one call. Tokens of all
// recognised sentences are flattened in order.
func (c *Client) FeaturesInSentence(ctx context.Context, sentence string) (schemas.SentenceFeatures, error) {
	var out posResponse
	if err := c.post(ctx, routePOS, map[string]string{"text": sentence}, &out); err != nil {
		return schemas.SentenceFeatures{}, err
	}

	var result schemas.SentenceFeatures
	for _, sent := range out.Result {
		for _, tok := range sent {
			result.Tokens = append(result.Tokens, schemas.WordFeatures{
				Word:     tok.Text,
				POS:      tok.UPOS,
				Lemma:    tok.Lemma,
				Features: ParseFeats(tok.Feats),
			})
		}
	}
	return result, nil
}

// Inflect asks for a form of the lemma. A rejected request (success=false,
// with either a 2xx or a 4xx status) yields Success=false and no error.
func (c *Client) Inflect(ctx context.Context, req schemas.InflectRequest) (schemas.InflectResult, error) {
	var out schemas.InflectResult
	err := c.post(ctx, routeInflect, req, &out)
	if err == nil {
		return out, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		var rejected struct {
			Success *bool `json:"success"`
		}
		if json.Unmarshal(apiErr.Body, &rejected) == nil && rejected.Success != nil && !*rejected.Success {
			c.logger.Debug("Inflection rejected by service",
				zap.String("lemma", req.Lemma), zap.Any("features", req.Features))
			return schemas.InflectResult{
				Lemma:             req.Lemma,
				RequestedFeatures: req.Features,
			}, nil
		}
	}
	return schemas.InflectResult{}, err
}

func (c *Client) Similarity(ctx context.Context, word1, word2 string) (schemas.SimilarityResult, error) {
	var out schemas.SimilarityResult
	err := c.post(ctx, routeSimilarity, map[string]string{"word1": word1, "word2": word2}, &out)
	return out, err
}

func (c *Client) SplitSentences(ctx context.Context, text string) ([]string, error) {
	var out struct {
		Sentences []string `json:"sentences"`
	}
	if err := c.post(ctx, routeSentenceSplit, map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return out.Sentences, nil
}

// Health reports service readiness. It is not retried.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}
	err := c.once(ctx, http.MethodGet, routeHealth, nil, &out)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return out, err
}

// -- Transport --

func (c *Client) post(ctx context.Context, route string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	if c.cfg.MaxElapsed > 0 {
		b.MaxElapsedTime = c.cfg.MaxElapsed
	}
	if c.cfg.MaxInterval > 0 {
		b.MaxInterval = c.cfg.MaxInterval
		if b.InitialInterval > b.MaxInterval {
			b.InitialInterval = b.MaxInterval
		}
	}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		return c.once(ctx, http.MethodPost, route, body, out)
	}

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

// once performs a single request. Errors that must not be retried are
// wrapped with backoff.Permanent.
func (c *Client) once(ctx context.Context, method, route string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, reader)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		c.logger.Warn("Network error calling morphology service, retrying...",
			zap.String("route", route), zap.Error(err))
		return fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleAPIError(route, resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to decode %s response: %w", route, err))
	}
	c.logger.Debug("Morphology request complete",
		zap.String("route", route), zap.Duration("duration", time.Since(start)))
	return nil
}

func (c *Client) handleAPIError(route string, statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: body}
	var detail struct {
		Detail interface{} `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Detail != nil {
		apiErr.Detail = fmt.Sprint(detail.Detail)
	}

	if apiErr.Transient() {
		c.logger.Warn("Morphology service returned a transient error",
			zap.String("route", route), zap.Int("status", statusCode))
		return apiErr
	}
	c.logger.Debug("Morphology service rejected request",
		zap.String("route", route), zap.Int("status", statusCode), zap.String("response", string(body)))
	return backoff.Permanent(apiErr)
}

// -- Feature Parsing --

// ParseFeats parses a "Case=Nom|Number=Sing" string. Empty and "_" yield an
// empty map.
func ParseFeats(feats string) map[string]string {
	out := make(map[string]string)
	if feats == "" || feats == "_" {
		return out
	}
	for _, pair := range strings.Split(feats, "|") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func decodeFeatures(raw json.RawMessage) (map[string]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]string{}, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return ParseFeats(s), nil
	}
	out := make(map[string]string)
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, err
	}
	return out, nil
}
