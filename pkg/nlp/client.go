// Package nlp is the client side of the NLP server that hosts the entity
// extraction models.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/streetninja/ninjabrain/config"
	"github.com/streetninja/ninjabrain/internal"
	"github.com/streetninja/ninjabrain/pkg/models"
)

var log = internal.GetLogger()

const maxErrorBodyLength = 256

var _ models.InferenceLoader = &Client{}

// NewHTTPClient returns an HTTP client whose transport is wrapped in an
// OpenTelemetry transport. Requests are never retried.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(
			http.DefaultTransport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}
}

// Client loads models from the NLP server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(serverURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &Client{
		baseURL:    strings.TrimRight(serverURL, "/"),
		httpClient: httpClient,
	}
}

// Load asks the NLP server for the model and returns a handle bound to the
// version the server reports.
func (c *Client) Load(ctx context.Context, id models.ModelIdentifier) (models.InferenceHandle, error) {
	endpoint := c.baseURL + "/models/" + url.PathEscape(id.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create model request: %w", err)
	}

	var info models.ModelInfo
	if err := c.do(req, &info); err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", id, err)
	}

	if info.Name != "" && info.Name != id.String() {
		return nil, fmt.Errorf("NLP server returned model %q, expected %q", info.Name, id)
	}

	version, err := NormalizeVersion(info.Version)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", id, err)
	}

	log.Infof("Loaded model %s version %s", id, version)

	return &handle{client: c, model: id, version: version}, nil
}

// NormalizeVersion returns the canonical form of a semantic version, e.g.
// "v3.7" becomes "3.7.0". Versions that are not semantic are kept verbatim.
// An empty version is an error.
func NormalizeVersion(version string) (string, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return "", fmt.Errorf("NLP server reported an empty model version")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		log.Warnf("Model version %q is not a semantic version", version)
		return version, nil
	}
	return v.String(), nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", config.UserAgent())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf(
			"NLP server returned status %d: %s",
			resp.StatusCode,
			internal.Truncate(strings.TrimSpace(string(body)), maxErrorBodyLength),
		)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// handle runs inference for one loaded model. It holds no mutable state and
// is safe for concurrent use.
type handle struct {
	client  *Client
	model   models.ModelIdentifier
	version string
}

func (h *handle) Model() models.ModelIdentifier {
	return h.model
}

func (h *handle) Version() string {
	return h.version
}

func (h *handle) Run(ctx context.Context, in models.EngineRequest) (*models.EngineResult, error) {
	recordUUID := uuid.NewString()
	requestBody := models.EntityRequest{
		Model: h.model.String(),
		Texts: []models.EntityRequestRecord{{
			UUID:     recordUUID,
			Text:     in.Text,
			Language: in.Language,
		}},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		h.client.baseURL+"/entities",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var response models.EntityResponse
	if err := h.client.do(req, &response); err != nil {
		return nil, err
	}

	record, ok := lo.Find(response.Texts, func(r models.EntityResponseRecord) bool {
		return r.UUID == recordUUID
	})
	if !ok {
		return nil, fmt.Errorf("NLP server response is missing text %s", recordUUID)
	}

	return &models.EngineResult{
		Entities: FlattenEntities(record.Entities),
		Version:  h.version,
	}, nil
}

// FlattenEntities turns every match of every entity into a span, keeping the
// server's order.
func FlattenEntities(entities []models.Entity) []models.EntitySpan {
	return lo.FlatMap(entities, func(e models.Entity, _ int) []models.EntitySpan {
		return lo.Map(e.Matches, func(m models.EntityMatch, _ int) models.EntitySpan {
			return models.EntitySpan{
				Label: e.Label,
				Text:  m.Text,
				Start: m.Start,
				End:   m.End,
			}
		})
	})
}
