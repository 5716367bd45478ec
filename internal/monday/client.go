package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"whatsable-relay/internal/models"
	"whatsable-relay/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultAPIURL   = "https://api.monday.com/v2"
	DefaultOAuthURL = "https://auth.monday.com/oauth2/token"
)

// Client talks to the Monday GraphQL API and the OAuth token endpoint.
// The access token is passed per call since every user brings their own.
type Client struct {
	apiURL     string
	oauthURL   string
	httpClient *http.Client
}

// NewClient creates a Client; empty URLs fall back to the public endpoints
func NewClient(apiURL, oauthURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if oauthURL == "" {
		oauthURL = DefaultOAuthURL
	}
	return &Client{
		apiURL:     apiURL,
		oauthURL:   oauthURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// TokenResponse is the OAuth code exchange result
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

const meQuery = `query { me { id name email account { id } } }`

const itemQuery = `query ($itemId: [ID!]!) {
  items (ids: $itemId) {
    id
    name
    column_values {
      id
      text
      value
      type
      column { title }
    }
    board {
      id
      name
    }
  }
}`

const createUpdateMutation = `mutation ($itemId: ID!, $body: String!) {
  create_update (item_id: $itemId, body: $body) {
    id
  }
}`

// GetMe returns the user that owns the token
func (c *Client) GetMe(ctx context.Context, token string) (*models.MondayUser, error) {
	var data struct {
		Me *models.MondayUser `json:"me"`
	}
	if err := c.query(ctx, token, meQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.Me == nil {
		return nil, errors.New("monday: empty me response")
	}
	return data.Me, nil
}

// GetItem fetches an item with its column values and board. Returns nil, nil
// when the item does not exist or is not visible to the token.
func (c *Client) GetItem(ctx context.Context, token, itemID string) (*models.Item, error) {
	if itemID == "" {
		return nil, errors.New("monday: item ID is required")
	}

	var data struct {
		Items []struct {
			models.Item
			ColumnValues []struct {
				models.ColumnValue
				Column *struct {
					Title string `json:"title"`
				} `json:"column"`
			} `json:"column_values"`
		} `json:"items"`
	}
	vars := map[string]interface{}{"itemId": []string{itemID}}
	if err := c.query(ctx, token, itemQuery, vars, &data); err != nil {
		return nil, err
	}
	if len(data.Items) == 0 {
		return nil, nil
	}

	raw := data.Items[0]
	item := raw.Item
	item.ColumnValues = make([]models.ColumnValue, 0, len(raw.ColumnValues))
	for _, cv := range raw.ColumnValues {
		col := cv.ColumnValue
		if cv.Column != nil && col.Title == "" {
			col.Title = cv.Column.Title
		}
		item.ColumnValues = append(item.ColumnValues, col)
	}
	return &item, nil
}

// CreateUpdate posts a comment on the item and returns the update id
func (c *Client) CreateUpdate(ctx context.Context, token, itemID, body string) (string, error) {
	if itemID == "" {
		return "", errors.New("monday: item ID is required")
	}

	var data struct {
		CreateUpdate struct {
			ID models.FlexibleID `json:"id"`
		} `json:"create_update"`
	}
	vars := map[string]interface{}{"itemId": itemID, "body": body}
	if err := c.query(ctx, token, createUpdateMutation, vars, &data); err != nil {
		return "", err
	}
	return data.CreateUpdate.ID.String(), nil
}

// ExchangeCode trades an OAuth authorization code for an access token
func (c *Client) ExchangeCode(ctx context.Context, clientID, clientSecret, code string) (*TokenResponse, error) {
	if code == "" {
		return nil, errors.New("monday: authorization code is required")
	}

	payload := map[string]string{
		"client_id":     clientID,
		"client_secret": clientSecret,
		"code":          code,
		"grant_type":    "authorization_code",
	}
	body, err := c.doRequest(ctx, c.oauthURL, "", payload)
	if err != nil {
		return nil, fmt.Errorf("monday: token exchange failed: %w", err)
	}

	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("monday: failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("monday: token response has no access_token")
	}
	return &tok, nil
}

func (c *Client) query(ctx context.Context, token, query string, vars map[string]interface{}, out interface{}) error {
	if token == "" {
		return errors.New("monday: access token is required")
	}

	body, err := c.doRequest(ctx, c.apiURL, token, graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("monday: %w", err)
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("monday: failed to decode response: %w", err)
	}
	if len(resp.Errors) > 0 {
		logger.Error("Monday API returned errors", zap.String("error", resp.Errors[0].Message), zap.Int("count", len(resp.Errors)))
		return fmt.Errorf("monday: %s", resp.Errors[0].Message)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return errors.New("monday: response has no data")
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("monday: failed to decode data: %w", err)
	}
	return nil
}

// doRequest posts a JSON body; the token is sent as-is in Authorization when set
func (c *Client) doRequest(ctx context.Context, url, token string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		logger.Error("Monday API error", zap.Int("status", resp.StatusCode), zap.String("url", url))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
