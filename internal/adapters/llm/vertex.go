package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/solace/internal/domain"
)

const defaultGeminiModel = "gemini-2.5-flash-lite"

// VertexConfig selects the Gemini backend. APIKey wins over Project when both
// are set.
type VertexConfig struct {
	Project   string
	Location  string
	APIKey    string
	ModelName string
}

type VertexClient struct {
	client    *genai.Client
	modelName string
}

// NewVertexClient creates an LLMClient based on Gemini, either through
// Vertex AI (project + location) or the Gemini API (api key).
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "" && cfg.Location != "":
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, errors.New("gemini client needs an api key or a project and location")
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateReply implements domain.LLMClient using Gemini.
func (v *VertexClient) GenerateReply(
	ctx context.Context,
	userMessage string,
	convCtx domain.ConversationContext,
) (string, error) {
	system := BuildSystemPrompt(convCtx)

	var contents []*genai.Content
	for _, m := range priorHistory(convCtx.History, userMessage) {
		role := genai.Role(genai.RoleUser)
		if m.Author == domain.RoleAgent {
			// The conversation has to open with a user turn.
			if len(contents) == 0 {
				continue
			}
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(BuildUserContent(userMessage, convCtx), genai.RoleUser))

	temp := float32(0.7)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   int32(maxReplyTokens),
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", errors.New("gemini returned empty text")
	}

	return text, nil
}
