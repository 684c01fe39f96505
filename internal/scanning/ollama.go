package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama implements the Parser interface using a local Ollama server
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama Parser instance.
// Vision models (llava, qwen2-vl) are required for image and PDF documents.
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			Timeout: 120 * time.Second, // vision models are slow
		},
	}, nil
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Parse analyzes a travel document and extracts a record
func (o *Ollama) Parse(ctx context.Context, doc Document) (*ParsedRecord, error) {
	user := ollamaMessage{Role: "user", Content: textPrompt(doc.Text)}
	if doc.IsMultimodal() {
		data, err := decode(doc)
		if err != nil {
			return nil, err
		}
		pngData, _, err := prepareImageData(data, doc.MIMEType)
		if err != nil {
			return nil, err
		}
		user = ollamaMessage{
			Role:    "user",
			Content: documentParsePrompt,
			Images:  []string{base64.StdEncoding.EncodeToString(pngData)},
		}
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: "json",
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You are an expert at reading flight tickets, ferry tickets, hotel confirmations and tour vouchers.",
			},
			user,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling ollama API: %v", ErrParseFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		sentinel := ErrParseUnavailable
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			sentinel = ErrParseFailure
		}
		return nil, fmt.Errorf("%w: ollama API error (status %d): %s", sentinel, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrParseUnavailable, err)
	}

	record, err := parseRecordJSON(chatResp.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}
	return record, nil
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
