package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/zamanivault/zamanivault-go/errors"
)

// ContentType enumerates the kinds of catalogue entries.
type ContentType string

const (
	ContentVideo    ContentType = "video"
	ContentBook     ContentType = "book"
	ContentArticle  ContentType = "article"
	ContentArtifact ContentType = "artifact"
)

// ContentItem is one catalogue entry.
type ContentItem struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ContentType ContentType `json:"contentType"`
	ImageURL    string      `json:"imageUrl"`
	IsPremium   bool        `json:"isPremium"`
	Duration    string      `json:"duration,omitempty"`
	Tags        []string    `json:"tags"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

// ContentClientOptions groups dependencies for NewContentClient.
type ContentClientOptions struct {
	Backend Backend

	// Cache, when set, serves repeated whole-catalogue reads for TTL.
	Cache Cache
	TTL   time.Duration

	Logger *slog.Logger
}

const defaultContentTTL = 5 * time.Minute

// ContentClient reads the content catalogue.
type ContentClient struct {
	backend Backend
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
}

// NewContentClient constructs a ContentClient.
func NewContentClient(opts ContentClientOptions) (*ContentClient, error) {
	if opts.Backend == nil {
		return nil, errors.New("api: backend is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultContentTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentClient{
		backend: opts.Backend,
		cache:   opts.Cache,
		ttl:     ttl,
		logger:  logger,
	}, nil
}

// List returns the whole catalogue.
func (c *ContentClient) List(ctx context.Context) ([]ContentItem, error) {
	return c.cachedList(ctx, "content:all", "/content")
}

// Featured returns the curated featured set.
func (c *ContentClient) Featured(ctx context.Context) ([]ContentItem, error) {
	return c.cachedList(ctx, "content:featured", "/content/featured")
}

// GetByID returns a single entry.
func (c *ContentClient) GetByID(ctx context.Context, id string) (*ContentItem, error) {
	if id == "" {
		return nil, apperrors.ValidationField("id", "Content id is required")
	}
	var item ContentItem
	if err := c.backend.Do(ctx, http.MethodGet, "/content/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ByCategory returns the entries in one category.
func (c *ContentClient) ByCategory(ctx context.Context, category string) ([]ContentItem, error) {
	if category == "" {
		return nil, apperrors.ValidationField("category", "Category is required")
	}
	var items []ContentItem
	if err := c.backend.Do(ctx, http.MethodGet, "/content/category/"+url.PathEscape(category), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Search runs a free-text catalogue search.
func (c *ContentClient) Search(ctx context.Context, query string) ([]ContentItem, error) {
	if query == "" {
		return nil, apperrors.ValidationField("q", "Search query is required")
	}
	var items []ContentItem
	if err := c.backend.Do(ctx, http.MethodGet, "/content/search?q="+url.QueryEscape(query), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// cachedList serves a list endpoint through the cache when one is
// configured. Cache faults degrade to a plain fetch, never to an error.
func (c *ContentClient) cachedList(ctx context.Context, key, endpoint string) ([]ContentItem, error) {
	if c.cache != nil {
		data, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("content cache read failed", slog.String("key", key), slog.Any("error", err))
		} else if len(data) > 0 {
			var items []ContentItem
			if err := json.Unmarshal(data, &items); err == nil {
				return items, nil
			}
			c.logger.Warn("discarding undecodable cached content", slog.String("key", key))
		}
	}

	var items []ContentItem
	if err := c.backend.Do(ctx, http.MethodGet, endpoint, nil, &items); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(items); err == nil {
			if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
				c.logger.Warn("content cache write failed", slog.String("key", key), slog.Any("error", err))
			}
		}
	}
	return items, nil
}
