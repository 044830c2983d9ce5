package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"negarai/internal/pkg/utils"
)

// GeminiClient generates text through the Gemini API. Generation is
// synchronous: Create runs the whole request and Poll replays the stored
// terminal status, so text responses flow through the same task surface as
// the async image and video providers.
type GeminiClient struct {
	client       *genai.Client
	defaultModel string

	mu      sync.Mutex
	results map[string]TaskStatus
}

// NewGeminiClient creates a Gemini text client.
func NewGeminiClient(ctx context.Context, apiKey, defaultModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if defaultModel == "" {
		defaultModel = "gemini-1.5-flash"
	}
	return &GeminiClient{
		client:       client,
		defaultModel: defaultModel,
		results:      make(map[string]TaskStatus),
	}, nil
}

func (g *GeminiClient) Name() string {
	return "gemini"
}

func (g *GeminiClient) Create(ctx context.Context, req CreateRequest) (string, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = g.defaultModel
	}
	model := g.client.GenerativeModel(modelName)

	taskID := utils.GenerateUUID()
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		g.store(taskID, TaskStatus{Status: StatusFailed, Error: err.Error()})
		return taskID, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		g.store(taskID, TaskStatus{Status: StatusFailed, Error: "empty response"})
		return taskID, fmt.Errorf("gemini returned no text")
	}

	g.store(taskID, TaskStatus{Status: StatusCompleted, Result: text})
	return taskID, nil
}

func (g *GeminiClient) Poll(ctx context.Context, taskID string) (TaskStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.results[taskID]
	if !ok {
		return TaskStatus{}, ErrTaskNotFound
	}
	// Budget is 1: the single poll consumes the entry, so the map does not
	// grow with process lifetime.
	delete(g.results, taskID)
	return status, nil
}

// PollBudget is 1 for text: the task is terminal by the time Create returns.
func (g *GeminiClient) PollBudget(model string) int {
	return 1
}

// Close releases the underlying API client.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) store(taskID string, status TaskStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[taskID] = status
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	out := ""
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
	}
	return out
}
