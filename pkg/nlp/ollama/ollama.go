package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/definitelynotaspy/intel-service/internal/util"
	"github.com/definitelynotaspy/intel-service/pkg/nlp"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

const defaultDimensions = 384

// Client implements the nlp.Oracle interface using Ollama as the backend.
// It supports entity extraction, fact extraction, and embeddings via
// locally-hosted models.
type Client struct {
	embeddingModel  string
	extractionModel string

	reqLock *semaphore.Weighted

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewClientParams contains configuration options for creating a new Client.
type NewClientParams struct {
	EmbeddingModel  string
	ExtractionModel string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates a new Ollama-based oracle with the specified configuration.
// It connects to the Ollama server at the given BaseURL (or the default if
// empty) and uses the configured models for extraction and embeddings.
func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = 1
	}
	sem := semaphore.NewWeighted(params.MaxConcurrentRequests)

	return &Client{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,

		reqLock: sem,

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model on Ollama.
//
// Empty or whitespace-only input yields a zero vector without a model
// round-trip. The result is padded or truncated to AI_EMBED_DIM.
func (c *Client) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	dim := util.GetEnvInt("AI_EMBED_DIM", defaultDimensions)
	if strings.TrimSpace(input) == "" {
		return make([]float32, dim), nil
	}

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: input,
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	res, err := c.Client.Embed(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make([]float32, 0, dim)
	for _, v := range res.Embeddings {
		for _, val := range v {
			if len(out) >= dim {
				break
			}
			out = append(out, float32(val))
		}
	}
	for len(out) < dim {
		out = append(out, 0)
	}
	return out, nil
}

// completeJSON sends a single-turn prompt to the extraction model with a
// JSON schema enforced via Ollama's structured output format and unmarshals
// the response into out.
func (c *Client) completeJSON(ctx context.Context, prompt string, out any) error {
	schemaObj := nlp.GenerateSchema(out)
	formatBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return err
	}
	var format json.RawMessage = formatBytes

	stream := false
	req := &api.ChatRequest{
		Model: c.extractionModel,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream:  &stream,
		Format:  format,
		Options: map[string]any{"temperature": 0.1},
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
		}
		return nil
	}); err != nil {
		return err
	}

	return nlp.UnmarshalFlexible(final.Message.Content, out)
}

// ExtractEntities runs named entity extraction over the given text and
// resolves each mention back to its character offsets.
func (c *Client) ExtractEntities(ctx context.Context, text string) ([]nlp.Entity, error) {
	prompt := fmt.Sprintf(nlp.ExtractEntitiesPrompt, strings.Join(nlp.DefaultEntityLabels, ", ")) + text

	var extraction nlp.EntityExtraction
	if err := c.completeJSON(ctx, prompt, &extraction); err != nil {
		return nil, fmt.Errorf("entity extraction failed: %w", err)
	}

	return nlp.ResolveSpans(text, extraction.Entities), nil
}

// ExtractFacts pulls subject-predicate-object statements out of the text.
func (c *Client) ExtractFacts(ctx context.Context, text string) ([]nlp.Fact, error) {
	prompt := nlp.ExtractFactsPrompt + text

	var extraction nlp.FactExtraction
	if err := c.completeJSON(ctx, prompt, &extraction); err != nil {
		return nil, fmt.Errorf("fact extraction failed: %w", err)
	}

	return extraction.Facts, nil
}

// LoadModels preloads the configured models into memory to reduce latency
// on the first real request.
func (c *Client) LoadModels(ctx context.Context) error {
	if _, err := c.GenerateEmbedding(ctx, "warmup"); err != nil {
		return fmt.Errorf("failed to load embedding model: %w", err)
	}

	req := &api.ChatRequest{
		Model: c.extractionModel,
	}
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		return nil
	}); err != nil {
		return fmt.Errorf("failed to load extraction model: %w", err)
	}

	return nil
}
