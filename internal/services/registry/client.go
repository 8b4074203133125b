// Package registry looks up the statutory bodies and beneficial owners of a
// company in the external business registry.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paydesk/internal/repositories/cache"
	keys "paydesk/internal/utils/cache"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotConfigured = errors.New("registry lookup is not configured")
	ErrInvalidICO    = errors.New("registration id is required")
	ErrUpstream      = errors.New("registry request failed")
)

type Role string

const (
	RoleStatutory Role = "statutory"
	RoleOwner     Role = "owner"
)

// Person is one registry entry of a company.
type Person struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	BirthDate   string `json:"birthDate"`
	Citizenship string `json:"citizenship"`
	Position    string `json:"position"`
	Role        Role   `json:"role"`
}

type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client calls the registry API and caches answers per registration id.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	log     logrus.FieldLogger
}

func NewClient(cfg Config, c cache.Cache, log logrus.FieldLogger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   c,
		ttl:     cfg.CacheTTL,
		log:     log.WithField("component", "registry"),
	}
}

type lookupResponse struct {
	Persons []Person `json:"persons"`
}

// Lookup returns the persons registered for the company.
func (c *Client) Lookup(ctx context.Context, ico string) ([]Person, error) {
	ico = strings.TrimSpace(ico)
	if ico == "" {
		return nil, ErrInvalidICO
	}
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	key := keys.GenerateKey(keys.EntityRegistry, keys.KeyICO, ico)
	if c.cache != nil {
		var cached []Person
		found, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.log.WithError(err).Warn("Registry cache read failed")
		} else if found {
			return cached, nil
		}
	}

	persons, err := c.fetch(ctx, ico)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetWithTTL(ctx, key, persons, c.ttl); err != nil {
			c.log.WithError(err).Warn("Registry cache write failed")
		}
	}
	return persons, nil
}

func (c *Client) fetch(ctx context.Context, ico string) ([]Person, error) {
	base, err := url.Parse(c.baseURL + "/persons")
	if err != nil {
		return nil, fmt.Errorf("invalid registry url: %w", err)
	}
	params := url.Values{}
	params.Add("ico", ico)
	base.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	fields := logrus.Fields{
		"status_code": resp.StatusCode,
		"ico":         ico,
	}
	if resp.StatusCode == http.StatusNotFound {
		c.log.WithFields(fields).Info("Company not found in registry")
		return []Person{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(fields).Error("Unexpected response from registry")
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var out lookupResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&out); err != nil {
		return nil, fmt.Errorf("error decoding registry response: %w", err)
	}
	if out.Persons == nil {
		out.Persons = []Person{}
	}
	c.log.WithFields(fields).WithField("persons", len(out.Persons)).Debug("Registry lookup done")
	return out.Persons, nil
}
