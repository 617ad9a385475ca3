package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/definitelynotaspy/intel-service/internal/util"
	"github.com/definitelynotaspy/intel-service/pkg/nlp"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultDimensions = 384

// Client implements the nlp.Oracle interface against OpenAI-compatible
// APIs. It manages separate clients for embeddings and chat tasks so each
// can point at a different endpoint.
type Client struct {
	embeddingModel  string
	extractionModel string

	embeddingURL string
	embeddingKey string
	chatURL      string
	chatKey      string

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewClientParams defines the configuration parameters for creating a new
// Client. EmbeddingURL/EmbeddingKey and ChatURL/ChatKey configure their
// respective API endpoints independently.
type NewClientParams struct {
	EmbeddingModel  string
	ExtractionModel string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string
}

// NewClient creates and returns a Client configured with the provided
// parameters. A client whose key is empty stays nil and the corresponding
// operations report an error.
func NewClient(params NewClientParams) *Client {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey)

	return &Client{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,

		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,
		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model. Empty or whitespace-only input
// yields a zero vector without an API round-trip. The result is padded or
// truncated to AI_EMBED_DIM.
func (c *Client) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	dim := util.GetEnvInt("AI_EMBED_DIM", defaultDimensions)
	if strings.TrimSpace(input) == "" {
		return make([]float32, dim), nil
	}
	if c.EmbeddingClient == nil {
		return nil, errors.New("embedding client not configured")
	}

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{input}},
		Model: c.embeddingModel,
	}

	response, err := c.EmbeddingClient.Embeddings.New(ctx, body)
	if err != nil {
		return nil, err
	}
	if len(response.Data) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(response.Data))
	}

	vec := make([]float32, 0, dim)
	for _, v := range response.Data[0].Embedding {
		if len(vec) >= dim {
			break
		}
		vec = append(vec, float32(v))
	}
	for len(vec) < dim {
		vec = append(vec, 0)
	}
	return vec, nil
}

// completeJSON sends a single-turn prompt to the extraction model with a
// JSON schema enforced via structured outputs and unmarshals the response
// into out.
func (c *Client) completeJSON(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
) error {
	if c.ChatClient == nil {
		return errors.New("chat client not configured")
	}

	schema := nlp.GenerateSchema(out)
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.extractionModel),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.1),
	}

	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return err
	}

	if len(response.Choices) == 0 {
		return fmt.Errorf("no choices in response from model")
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason)
	}
	return nlp.UnmarshalFlexible(message, out)
}

// ExtractEntities runs named entity extraction over the given text and
// resolves each mention back to its character offsets.
func (c *Client) ExtractEntities(ctx context.Context, text string) ([]nlp.Entity, error) {
	prompt := fmt.Sprintf(nlp.ExtractEntitiesPrompt, strings.Join(nlp.DefaultEntityLabels, ", ")) + text

	var extraction nlp.EntityExtraction
	err := c.completeJSON(
		ctx,
		"entity_extraction",
		"Named entities found in the text",
		prompt,
		&extraction,
	)
	if err != nil {
		return nil, fmt.Errorf("entity extraction failed: %w", err)
	}

	return nlp.ResolveSpans(text, extraction.Entities), nil
}

// ExtractFacts pulls subject-predicate-object statements out of the text.
func (c *Client) ExtractFacts(ctx context.Context, text string) ([]nlp.Fact, error) {
	var extraction nlp.FactExtraction
	err := c.completeJSON(
		ctx,
		"fact_extraction",
		"Subject-predicate-object triples stated in the text",
		nlp.ExtractFactsPrompt+text,
		&extraction,
	)
	if err != nil {
		return nil, fmt.Errorf("fact extraction failed: %w", err)
	}

	return extraction.Facts, nil
}

// LoadModels verifies both endpoints are reachable. Hosted APIs have no
// warm-up phase, so this only performs a minimal embedding request.
func (c *Client) LoadModels(ctx context.Context) error {
	if c.EmbeddingClient == nil && c.ChatClient == nil {
		return errors.New("no api clients configured")
	}
	if c.EmbeddingClient != nil {
		if _, err := c.GenerateEmbedding(ctx, "warmup"); err != nil {
			return fmt.Errorf("embedding endpoint check failed: %w", err)
		}
	}
	return nil
}
