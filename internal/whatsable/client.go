package whatsable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whatsable-relay/internal/models"
	"whatsable-relay/pkg/logger"
	"whatsable-relay/pkg/utils"

	"go.uber.org/zap"
)

// DefaultAPIURL is the public WhatsAble endpoint
const DefaultAPIURL = "https://api.whatsable.app"

// ErrInvalidPhone is returned before any request when the recipient is not a usable number
var ErrInvalidPhone = errors.New("invalid phone number")

// Client is a thin REST client for the WhatsAble messaging API. The API key
// is passed per call because each user stores their own.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendResponse is the provider's answer to a send; the message id may arrive as messageId or id
type SendResponse struct {
	MessageID models.FlexibleID `json:"messageId"`
	ID        models.FlexibleID `json:"id"`
	Status    string            `json:"status"`
}

// ProviderMessageID returns whichever id the provider reported
func (r *SendResponse) ProviderMessageID() string {
	if r == nil {
		return ""
	}
	if r.MessageID != "" {
		return r.MessageID.String()
	}
	return r.ID.String()
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendTemplateRequest struct {
	Phone     string            `json:"phone"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables"`
}

// SendMessage sends a free-text message
func (c *Client) SendMessage(ctx context.Context, apiKey, phone, message string) (*SendResponse, error) {
	formatted, err := formatRecipient(phone)
	if err != nil {
		return nil, err
	}

	var out SendResponse
	if err := c.doRequest(ctx, http.MethodPost, "/send", apiKey, sendRequest{Phone: formatted, Message: message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendTemplateMessage sends a provider template filled with variables
func (c *Client) SendTemplateMessage(ctx context.Context, apiKey, phone, template string, variables map[string]string) (*SendResponse, error) {
	formatted, err := formatRecipient(phone)
	if err != nil {
		return nil, err
	}
	if template == "" {
		return nil, errors.New("whatsable: template name is required")
	}
	if variables == nil {
		variables = map[string]string{}
	}

	var out SendResponse
	body := sendTemplateRequest{Phone: formatted, Template: template, Variables: variables}
	if err := c.doRequest(ctx, http.MethodPost, "/send-template", apiKey, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTemplates lists the account's templates. The payload is passed through
// untouched since the relay never inspects it.
func (c *Client) GetTemplates(ctx context.Context, apiKey string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, "/templates", apiKey, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func formatRecipient(phone string) (string, error) {
	formatted := utils.NormalizePhone(phone)
	if formatted == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return formatted, nil
}

func (c *Client) doRequest(ctx context.Context, method, path, apiKey string, payload, out interface{}) error {
	if apiKey == "" {
		return errors.New("whatsable: API key is required")
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("whatsable: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsable: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("whatsable: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		logger.Error("WhatsAble API error", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("whatsable: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("whatsable: failed to decode response: %w", err)
	}
	return nil
}
