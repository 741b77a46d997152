// Package client is the admin dashboard's REST client for the Umrah
// Companion backend. Real-time channels live in the chat and location
// subpackages; collection state lives in the session subpackage.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"umrah-companion-backend/internal/models"
	"umrah-companion-backend/internal/services"
)

// APIError is a normalized remote-call failure carrying the server's
// human-readable message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Client talks to the backend REST API with a bearer token
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the given base URL (e.g. "http://host:8080")
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token used by subsequent requests
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token
func (c *Client) Token() string { return c.token }

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		message := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			message = errBody.Error
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// LoginResult is the response of a successful login
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login authenticates and stores the returned token on the client
func (c *Client) Login(ctx context.Context, phone, password string) (*LoginResult, error) {
	var result LoginResult
	body := map[string]string{"phone": phone, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &result); err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// UserInput is the create/update payload for a user
type UserInput struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	GroupID  *string `json:"group_id"`
	Password string  `json:"password,omitempty"`
}

// ListUsers fetches all users
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// CreateUser creates a user and returns the server record
func (c *Client) CreateUser(ctx context.Context, in *UserInput) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/api/v1/users", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates a user and returns the server record
func (c *Client) UpdateUser(ctx context.Context, id string, in *UserInput) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPut, "/api/v1/users/"+id, in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes a user
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/users/"+id, nil, nil)
}

// GroupInput is the create/update payload for a group
type GroupInput struct {
	Name     string `json:"name"`
	AmirID   string `json:"amir_id"`
	Location string `json:"location"`
}

// ListGroups fetches all groups
func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	var out struct {
		Groups []models.Group `json:"groups"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups", nil, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// CreateGroup creates a group and returns the server record
func (c *Client) CreateGroup(ctx context.Context, in *GroupInput) (*models.Group, error) {
	var group models.Group
	if err := c.do(ctx, http.MethodPost, "/api/v1/groups", in, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateGroup updates a group and returns the server record
func (c *Client) UpdateGroup(ctx context.Context, id string, in *GroupInput) (*models.Group, error) {
	var group models.Group
	if err := c.do(ctx, http.MethodPut, "/api/v1/groups/"+id, in, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup deletes a group
func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/groups/"+id, nil, nil)
}

// ListDuas fetches duas, optionally filtered by category
func (c *Client) ListDuas(ctx context.Context, category string) ([]models.Dua, error) {
	path := "/api/v1/duas"
	if category != "" {
		path += "?category=" + category
	}
	var out struct {
		Duas []models.Dua `json:"duas"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Duas, nil
}

// DuaCategories fetches the distinct dua categories
func (c *Client) DuaCategories(ctx context.Context) ([]string, error) {
	var out struct {
		Categories []string `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/duas/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// Messages fetches a group's chat history, oldest first
func (c *Client) Messages(ctx context.Context, groupID string, limit, offset int) ([]models.ChatMessage, error) {
	path := fmt.Sprintf("/api/v1/groups/%s/messages?limit=%d&offset=%d", groupID, limit, offset)
	var out struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// ListLocations fetches the latest location of every user
func (c *Client) ListLocations(ctx context.Context) ([]models.LocationRecord, error) {
	var out struct {
		Locations []models.LocationRecord `json:"locations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/locations", nil, &out); err != nil {
		return nil, err
	}
	return out.Locations, nil
}

// SignUpload requests an upload signature for a chat image
func (c *Client) SignUpload(ctx context.Context, groupID, filename, contentType string) (*services.UploadSignature, error) {
	body := map[string]string{
		"group_id":     groupID,
		"filename":     filename,
		"content_type": contentType,
	}
	var sig services.UploadSignature
	if err := c.do(ctx, http.MethodPost, "/api/v1/media/signature", body, &sig); err != nil {
		return nil, err
	}
	return &sig, nil
}

// UploadFile PUTs a file directly to storage using a signed URL
func (c *Client) UploadFile(ctx context.Context, uploadURL, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: "storage upload rejected"}
	}
	return nil
}
