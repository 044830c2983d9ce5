package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKIETestServer(t *testing.T, handler http.HandlerFunc) (*KIEClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewKIEClient(srv.URL, "test-key"), srv
}

func TestKIECreate_Success(t *testing.T) {
	var gotBody map[string]interface{}
	client, _ := newKIETestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs/createTask", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"code":200,"data":{"taskId":"task-42"}}`))
	})

	taskID, err := client.Create(context.Background(), CreateRequest{
		Model:   "flux",
		Prompt:  "a cat in the rain",
		Options: map[string]string{"aspect_ratio": "16:9"},
	})
	require.NoError(t, err)
	assert.Equal(t, "task-42", taskID)

	// Catalog names are translated to the provider's model identifiers.
	assert.Equal(t, "flux-kontext-pro", gotBody["model"])
	input := gotBody["input"].(map[string]interface{})
	assert.Equal(t, "a cat in the rain", input["prompt"])
	assert.Equal(t, "16:9", input["aspect_ratio"])
}

func TestKIECreate_UnknownModel(t *testing.T) {
	client := NewKIEClient("http://unused", "k")
	_, err := client.Create(context.Background(), CreateRequest{Model: "dalle-9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model")
}

func TestKIECreate_RejectedByAPI(t *testing.T) {
	client, _ := newKIETestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":402,"msg":"insufficient credits"}`))
	})

	_, err := client.Create(context.Background(), CreateRequest{Model: "veo", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient credits")
}

func TestKIEPoll_Completed(t *testing.T) {
	client, _ := newKIETestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs/recordInfo", r.URL.Path)
		assert.Equal(t, "task-42", r.URL.Query().Get("taskId"))
		w.Write([]byte(`{"code":200,"data":{"state":"success","resultJson":"{\"resultUrls\":[\"https://cdn.example/out.png\"]}"}}`))
	})

	status, err := client.Poll(context.Background(), "task-42")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, "https://cdn.example/out.png", status.Result)
	assert.True(t, status.Terminal())
}

func TestKIEPoll_Failed(t *testing.T) {
	client, _ := newKIETestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"data":{"state":"fail","failMsg":"nsfw content"}}`))
	})

	status, err := client.Poll(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status.Status)
	assert.Equal(t, "nsfw content", status.Error)
}

func TestKIEPoll_StillRunning(t *testing.T) {
	client, _ := newKIETestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"data":{"state":"generating"}}`))
	})

	status, err := client.Poll(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status.Status)
	assert.False(t, status.Terminal())
}

func TestKIEPollBudget(t *testing.T) {
	client := NewKIEClient("http://unused", "k")
	assert.Equal(t, 120, client.PollBudget("veo"))
	assert.Equal(t, 120, client.PollBudget("kling"))
	assert.Equal(t, 60, client.PollBudget("flux"))
	assert.Equal(t, 60, client.PollBudget("nano-banana"))
}

func TestFirstResultURL(t *testing.T) {
	assert.Equal(t, "", firstResultURL(map[string]interface{}{}))
	assert.Equal(t, "", firstResultURL(map[string]interface{}{"resultJson": "not json"}))
	assert.Equal(t, "", firstResultURL(map[string]interface{}{"resultJson": `{"resultUrls":[]}`}))
	assert.Equal(t, "https://a/1.png", firstResultURL(map[string]interface{}{
		"resultJson": `{"resultUrls":["https://a/1.png","https://a/2.png"]}`,
	}))
}
