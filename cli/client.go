package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// ErrSessionGone is returned when the server no longer knows the session
var ErrSessionGone = errors.New("session expired")

// ApiClient talks to the ordering API on behalf of one session
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	token      string
}

// CatalogRow is one menu entry as rendered by the server
type CatalogRow struct {
	ID          string `json:"id"`
	Emoji       string `json:"emoji"`
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	PriceText   string `json:"price_text"`
}

// OrderRow is one order line as rendered by the server
type OrderRow struct {
	Key       string `json:"key"`
	RemoveID  string `json:"remove_id"`
	Name      string `json:"name"`
	PriceText string `json:"price_text"`
}

// Visibility tells which parts of the page are shown
type Visibility struct {
	CheckoutSection bool `json:"checkout_section"`
	CompleteButton  bool `json:"complete_button"`
	PaymentOverlay  bool `json:"payment_overlay"`
	SuccessPanel    bool `json:"success_panel"`
}

// PageView is the view-model returned by every order endpoint
type PageView struct {
	Menu  []CatalogRow `json:"menu"`
	Order struct {
		Rows      []OrderRow `json:"rows"`
		TotalText string     `json:"total_text"`
	} `json:"order"`
	State          string     `json:"state"`
	Visibility     Visibility `json:"visibility"`
	SuccessMessage string     `json:"success_message"`
	Reference      string     `json:"reference"`
}

// APIError is a rejected request; View holds the unchanged page when the
// server sent one
type APIError struct {
	Status  int
	Message string
	View    *PageView
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Unwrap maps an expired session onto ErrSessionGone
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusGone || e.Status == http.StatusUnauthorized {
		return ErrSessionGone
	}
	return nil
}

type envelope struct {
	Token string    `json:"token"`
	Error string    `json:"error"`
	View  *PageView `json:"view"`
}

// NewApiClient creates a new API client
func NewApiClient(baseURL string) *ApiClient {
	if baseURL == "" {
		baseURL = os.Getenv("DINER_API_URL")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
	}
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() error {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}
	return nil
}

// StartSession opens a new order session and keeps its token
func (c *ApiClient) StartSession() (*PageView, error) {
	env, err := c.do(http.MethodPost, "/api/session", nil)
	if err != nil {
		return nil, err
	}
	if env.Token == "" {
		return nil, errors.New("server returned no session token")
	}
	c.token = env.Token
	return env.View, nil
}

// EndSession drops the current session
func (c *ApiClient) EndSession() error {
	if c.token == "" {
		return nil
	}
	_, err := c.do(http.MethodDelete, "/api/session", nil)
	c.token = ""
	return err
}

// Order returns the current view
func (c *ApiClient) Order() (*PageView, error) {
	return c.view(http.MethodGet, "/api/order", nil)
}

// AddItem adds one menu entry to the order
func (c *ApiClient) AddItem(id string) (*PageView, error) {
	return c.view(http.MethodPost, "/api/order/items/"+url.PathEscape(id), nil)
}

// RemoveItem removes one line for the menu entry
func (c *ApiClient) RemoveItem(id string) (*PageView, error) {
	return c.view(http.MethodDelete, "/api/order/items/"+url.PathEscape(id), nil)
}

// Complete opens the payment prompt
func (c *ApiClient) Complete() (*PageView, error) {
	return c.view(http.MethodPost, "/api/order/complete", nil)
}

// Cancel closes the payment prompt
func (c *ApiClient) Cancel() (*PageView, error) {
	return c.view(http.MethodPost, "/api/order/cancel", nil)
}

// Pay submits the payment form
func (c *ApiClient) Pay(name, cardNumber, cvv string) (*PageView, error) {
	return c.view(http.MethodPost, "/api/order/pay", map[string]string{
		"name":        name,
		"card_number": cardNumber,
		"cvv":         cvv,
	})
}

func (c *ApiClient) view(method, path string, body interface{}) (*PageView, error) {
	env, err := c.do(method, path, body)
	if err != nil {
		return nil, err
	}
	if env.View == nil {
		return nil, errors.New("server returned no view")
	}
	return env.View, nil
}

func (c *ApiClient) do(method, path string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	env := &envelope{}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Error, View: env.View}
	}
	return env, nil
}
