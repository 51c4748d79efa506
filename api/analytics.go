package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	jmespath "github.com/jmespath-community/go-jmespath"

	apperrors "github.com/zamanivault/zamanivault-go/errors"
)

// Recommendation is one personalised content suggestion.
type Recommendation struct {
	ContentID string  `json:"contentId"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason,omitempty"`
}

// ContentTrend aggregates viewing activity for one category.
type ContentTrend struct {
	Category   string  `json:"category"`
	ViewCount  int     `json:"viewCount"`
	GrowthRate float64 `json:"growthRate"`
	Popularity float64 `json:"popularity"`
}

// UserSegment is one audience cluster from the analytics backend.
type UserSegment struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Size               int      `json:"size"`
	TopInterests       []string `json:"topInterests"`
	AvgSessionDuration float64  `json:"avgSessionDuration"`
}

// Document is a schemaless analytics payload. Search evaluates a
// JMESPath expression against it, for reports whose shape the backend
// owns and changes without notice.
type Document map[string]any

// Search evaluates expr against the document.
func (d Document) Search(expr string) (any, error) {
	if expr == "" {
		return nil, apperrors.ValidationField("expr", "Expression is required")
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid query expression")
	}
	result, err := jmespath.Search(expr, map[string]any(d))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Query evaluation failed")
	}
	return result, nil
}

// AnalyticsClientOptions groups dependencies for NewAnalyticsClient.
type AnalyticsClientOptions struct {
	Backend Backend
	Logger  *slog.Logger
}

// AnalyticsClient reads the ML-driven analytics endpoints.
type AnalyticsClient struct {
	backend Backend
	logger  *slog.Logger
}

// NewAnalyticsClient constructs an AnalyticsClient.
func NewAnalyticsClient(opts AnalyticsClientOptions) (*AnalyticsClient, error) {
	if opts.Backend == nil {
		return nil, errors.New("api: backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsClient{backend: opts.Backend, logger: logger}, nil
}

// Recommendations fetches personalised suggestions for a user.
func (c *AnalyticsClient) Recommendations(ctx context.Context, userID string) ([]Recommendation, error) {
	if userID == "" {
		return nil, apperrors.ValidationField("userId", "User id is required")
	}
	var recs []Recommendation
	if err := c.backend.Do(ctx, http.MethodGet, "/ml/recommendations/"+url.PathEscape(userID), nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ContentTrends fetches per-category viewing trends.
func (c *AnalyticsClient) ContentTrends(ctx context.Context) ([]ContentTrend, error) {
	var trends []ContentTrend
	if err := c.backend.Do(ctx, http.MethodGet, "/ml/trends", nil, &trends); err != nil {
		return nil, err
	}
	return trends, nil
}

// UserSegments fetches audience clusters.
func (c *AnalyticsClient) UserSegments(ctx context.Context) ([]UserSegment, error) {
	var segments []UserSegment
	if err := c.backend.Do(ctx, http.MethodGet, "/ml/segments", nil, &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// Report fetches a named free-form analytics report.
func (c *AnalyticsClient) Report(ctx context.Context, name string) (Document, error) {
	if name == "" {
		return nil, apperrors.ValidationField("name", "Report name is required")
	}
	var doc Document
	if err := c.backend.Do(ctx, http.MethodGet, "/ml/reports/"+url.PathEscape(name), nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
