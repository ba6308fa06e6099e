package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/braunma/steelconnect-import/internal/constants"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

// DryRunIDPrefix marks placeholder IDs handed out in dry-run mode
const DryRunIDPrefix = "dry-run-"

// Config holds everything needed to talk to one SCM instance
type Config struct {
	Controller string
	Username   string
	Password   string
	Timeout    time.Duration
	Insecure   bool
	DryRun     bool
	ManagedTag string
	Logger     *utils.Logger
}

// SCMClient handles all SteelConnect Manager API operations
type SCMClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	cache      *CacheManager
	tagManager *TagManager
	logger     *utils.Logger
	dryRun     bool
	org        string
}

// NewClient creates a new SCM API client. No request is made until Connect.
func NewClient(cfg Config) (*SCMClient, error) {
	if cfg.Controller == "" {
		return nil, errors.New("controller host is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("username and password are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = utils.NewLogger(cfg.DryRun)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultTimeout * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure},
		},
	}

	client := &SCMClient{
		baseURL:    BuildBaseURL(cfg.Controller),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
		logger:     logger,
		dryRun:     cfg.DryRun,
	}

	client.cache = NewCacheManager(client)
	client.tagManager = NewTagManager(cfg.ManagedTag)

	return client, nil
}

// BuildBaseURL turns a controller host into the config API root.
// A host that already carries a scheme is kept as-is.
func BuildBaseURL(controller string) string {
	controller = strings.TrimRight(strings.TrimSpace(controller), "/")
	if !strings.HasPrefix(controller, "http://") && !strings.HasPrefix(controller, "https://") {
		controller = constants.DefaultScheme + controller
	}
	return controller + constants.APIBasePath
}

// Object represents a generic SCM object
type Object map[string]interface{}

// Request makes an HTTP request to the SCM API
func (c *SCMClient) Request(ctx context.Context, method, path string, body interface{}) (Object, error) {
	if c.dryRun && method != http.MethodGet {
		c.logger.DryRun(method, "%s", path)
		return c.dryRunObject(method, body), nil
	}

	respBody, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}

	var result Object
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result, nil
}

// List makes a GET request and returns the items of a collection
func (c *SCMClient) List(ctx context.Context, path string) ([]Object, error) {
	// placeholder IDs from a dry run are unknown to the server
	if c.dryRun && strings.Contains(path, DryRunIDPrefix) {
		return nil, nil
	}

	respBody, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Items []Object `json:"items"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		// Try unmarshaling as direct array
		var directResults []Object
		if err2 := json.Unmarshal(respBody, &directResults); err2 == nil {
			return directResults, nil
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result.Items, nil
}

// do performs one round trip and returns the body of a 2xx response
func (c *SCMClient) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("  → %s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("  ← %s", utils.HTTPStatusColor(resp.StatusCode, resp.Status))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	return respBody, nil
}

// dryRunObject fakes the server answer to a mutating call
func (c *SCMClient) dryRunObject(method string, body interface{}) Object {
	obj := Object{}
	if payload, ok := body.(map[string]interface{}); ok {
		for k, v := range payload {
			obj[k] = v
		}
	}
	if method == http.MethodPost {
		obj["id"] = placeholderID()
	}
	return obj
}

// isPlaceholder reports whether id was handed out by a dry-run mutation
func (c *SCMClient) isPlaceholder(id string) bool {
	return c.dryRun && strings.HasPrefix(id, DryRunIDPrefix)
}

// placeholderID returns a new dry-run id for an object the server never created
func placeholderID() string {
	return DryRunIDPrefix + uuid.NewString()
}

// Create creates a new object under an organization collection, e.g. org/{id}/sites
func (c *SCMClient) Create(ctx context.Context, path string, data map[string]interface{}) (Object, error) {
	return c.Request(ctx, http.MethodPost, path, data)
}

// Update replaces an existing object
func (c *SCMClient) Update(ctx context.Context, resource, id string, data map[string]interface{}) (Object, error) {
	return c.Request(ctx, http.MethodPut, resourcePath(resource, id), data)
}

// Delete deletes an object
func (c *SCMClient) Delete(ctx context.Context, resource, id string) error {
	_, err := c.Request(ctx, http.MethodDelete, resourcePath(resource, id), nil)
	return err
}

// resourcePath builds "resource/id", e.g. "zone/zone-abc"
func resourcePath(resource, id string) string {
	return resource + "/" + url.PathEscape(id)
}

// orgPath builds "org/{org}/collection"
func (c *SCMClient) orgPath(collection string) string {
	return "org/" + url.PathEscape(c.org) + "/" + collection
}

// Cache returns the cache manager
func (c *SCMClient) Cache() *CacheManager {
	return c.cache
}

// Tags returns the tag manager
func (c *SCMClient) Tags() *TagManager {
	return c.tagManager
}

// IsDryRun returns the dry-run status
func (c *SCMClient) IsDryRun() bool {
	return c.dryRun
}

// OrgID returns the organization resolved by Connect
func (c *SCMClient) OrgID() string {
	return c.org
}

// Logger returns the logger
func (c *SCMClient) Logger() *utils.Logger {
	return c.logger
}
