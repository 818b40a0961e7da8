package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/penwern/geomodel-harvest/pkg/utils"
	"github.com/tidwall/gjson"
)

// Ollama asks a local Ollama server for the summary.
type Ollama struct {
	http    *utils.HTTPClient
	baseURL string
	model   string
}

// NewOllama returns a client for the server at baseURL.
func NewOllama(hc *utils.HTTPClient, baseURL, model string) *Ollama {
	return &Ollama{http: hc, baseURL: strings.TrimRight(baseURL, "/"), model: model}
}

func (o *Ollama) Name() string { return "the " + o.model + " model run by Ollama" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Summarize implements Summarizer.
func (o *Ollama) Summarize(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    o.model,
		Messages: []chatMessage{{Role: "user", Content: prompt(text)}},
	})
	if err != nil {
		return "", fmt.Errorf("error encoding ollama request: %w", err)
	}

	url := o.baseURL + "/api/chat"
	resp, err := o.http.DoRequest(ctx, http.MethodPost, url, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("error calling ollama: %w", err)
	}
	body, err := utils.ReadBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &utils.StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("ollama returned invalid JSON")
	}
	res := gjson.ParseBytes(body)
	if msg := res.Get("error"); msg.Exists() {
		return "", fmt.Errorf("ollama: %s", msg.String())
	}
	content := res.Get("message.content")
	if !content.Exists() {
		return "", fmt.Errorf("ollama response has no message content")
	}
	return clean(content.String()), nil
}
