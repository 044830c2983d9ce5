package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"negarai/internal/pkg/httpclient"
)

// kieModels maps catalog model names to KIE.ai model identifiers.
var kieModels = map[string]string{
	"nano-banana": "google/nano-banana",
	"gpt-image":   "gpt4o-image",
	"flux":        "flux-kontext-pro",
	"midjourney":  "mj-v7",
	"veo":         "veo3",
	"kling":       "kling-v2",
	"wan":         "wan-v2",
	"runway":      "runway-gen4",
}

// kieVideoModels get the larger poll budget: video tasks routinely take
// tens of minutes.
var kieVideoModels = map[string]bool{
	"veo": true, "kling": true, "wan": true, "runway": true,
}

// KIEClient implements the task API of KIE.ai, which fronts all the image
// and video models the service offers.
type KIEClient struct {
	baseURL string
	client  *httpclient.Client
}

// NewKIEClient creates a KIE.ai task client.
func NewKIEClient(baseURL, apiKey string) *KIEClient {
	return &KIEClient{
		baseURL: baseURL,
		client: httpclient.New().
			WithTimeout(60 * time.Second).
			WithBearerToken(apiKey),
	}
}

func (k *KIEClient) Name() string {
	return "kie"
}

func (k *KIEClient) Create(ctx context.Context, req CreateRequest) (string, error) {
	kieModel, ok := kieModels[req.Model]
	if !ok {
		return "", fmt.Errorf("kie: unsupported model %q", req.Model)
	}

	input := map[string]interface{}{"prompt": req.Prompt}
	for key, value := range req.Options {
		input[key] = value
	}
	body := map[string]interface{}{
		"model": kieModel,
		"input": input,
	}

	resp, err := k.client.Post(k.baseURL+"/api/v1/jobs/createTask", body)
	if err != nil {
		return "", fmt.Errorf("kie create task failed: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("kie create parse error: %w", err)
	}

	if code, ok := result["code"].(float64); ok && code != 200 {
		msg, _ := result["msg"].(string)
		return "", fmt.Errorf("kie create rejected (code %.0f): %s", code, msg)
	}

	data, ok := result["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("kie create: unexpected response format")
	}
	taskID, _ := data["taskId"].(string)
	if taskID == "" {
		return "", fmt.Errorf("kie create: no taskId returned")
	}
	return taskID, nil
}

func (k *KIEClient) Poll(ctx context.Context, taskID string) (TaskStatus, error) {
	resp, err := k.client.Get(k.baseURL + "/api/v1/jobs/recordInfo?taskId=" + taskID)
	if err != nil {
		return TaskStatus{}, fmt.Errorf("kie poll failed: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp, &result); err != nil {
		return TaskStatus{}, fmt.Errorf("kie poll parse error: %w", err)
	}

	data, ok := result["data"].(map[string]interface{})
	if !ok {
		return TaskStatus{}, ErrTaskNotFound
	}

	state, _ := data["state"].(string)
	switch state {
	case "success":
		return TaskStatus{Status: StatusCompleted, Result: firstResultURL(data)}, nil
	case "fail":
		failMsg, _ := data["failMsg"].(string)
		if failMsg == "" {
			failMsg = "generation failed"
		}
		return TaskStatus{Status: StatusFailed, Error: failMsg}, nil
	default:
		// waiting, queuing, generating
		return TaskStatus{Status: StatusPending}, nil
	}
}

// PollBudget: 60 rounds for images, 120 for video, at the 30s poll interval.
func (k *KIEClient) PollBudget(model string) int {
	if kieVideoModels[model] {
		return 120
	}
	return 60
}

// firstResultURL digs the first result URL out of the resultJson payload.
func firstResultURL(data map[string]interface{}) string {
	raw, _ := data["resultJson"].(string)
	if raw == "" {
		return ""
	}
	var parsed struct {
		ResultUrls []string `json:"resultUrls"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return ""
	}
	if len(parsed.ResultUrls) == 0 {
		return ""
	}
	return parsed.ResultUrls[0]
}
