package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

type Response struct {
	StatusCode int
	Status     string                 `json:"status"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data"`
	Fields     []interface{}          `json:"fields"`
}

func (r Response) IsSuccess() bool {
	return r.Status == "success"
}

func (r Response) GetString(key string) string {
	if val, ok := r.Data[key].(string); ok {
		return val
	}
	return ""
}

func (r Response) GetFloat(key string) float64 {
	if val, ok := r.Data[key].(float64); ok {
		return val
	}
	return -1
}

func baseURL() string {
	if url := os.Getenv("API_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// requireServer skips the test unless an API instance has been pointed at
// via API_URL.
func requireServer(t *testing.T) {
	t.Helper()
	if os.Getenv("API_URL") == "" {
		t.Skip("API_URL not set, skipping integration test")
	}
}

func makeRequest(method, path string, body interface{}) Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return Response{Status: "error", Message: fmt.Sprintf("Failed to marshal request body: %v", err)}
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL()+"/api/v1"+path, reqBody)
	if err != nil {
		return Response{Status: "error", Message: fmt.Sprintf("Failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Response{Status: "error", Message: fmt.Sprintf("Request failed: %v", err)}
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Response{StatusCode: resp.StatusCode, Status: "error", Message: fmt.Sprintf("Failed to decode response: %v", err)}
	}
	response.StatusCode = resp.StatusCode

	return response
}

func uniqueIdentification(prefix string) string {
	id := fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
	if len(id) > 20 {
		id = id[len(id)-20:]
	}
	return id
}
