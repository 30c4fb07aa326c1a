// Package gbp is a small client for the Google Business Profile APIs used by
// the review and profile actions. Token acquisition is handled elsewhere; calls
// authenticate with the access token stored on the project.
package gbp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultReviewsBaseURL = "https://mybusiness.googleapis.com/v4"
	DefaultInfoBaseURL    = "https://mybusinessbusinessinformation.googleapis.com/v1"
)

// Review is a customer review on a business location.
type Review struct {
	Name       string `json:"name"`
	ReviewID   string `json:"reviewId"`
	StarRating string `json:"starRating"`
	Comment    string `json:"comment"`
	Reviewer   struct {
		DisplayName string `json:"displayName"`
	} `json:"reviewer"`
	ReviewReply *struct {
		Comment string `json:"comment"`
	} `json:"reviewReply,omitempty"`
}

// Replied reports whether the owner already answered the review.
func (r Review) Replied() bool {
	return r.ReviewReply != nil && r.ReviewReply.Comment != ""
}

// Stars converts the API's enum rating ("FIVE") to a number, 0 when unknown.
func (r Review) Stars() int {
	switch r.StarRating {
	case "ONE":
		return 1
	case "TWO":
		return 2
	case "THREE":
		return 3
	case "FOUR":
		return 4
	case "FIVE":
		return 5
	}
	return 0
}

// Profile is the subset of GBP operations the action handlers need.
type Profile interface {
	ListReviews(ctx context.Context, token, location string) ([]Review, error)
	ReplyToReview(ctx context.Context, token, reviewName, comment string) error
	UpdateDescription(ctx context.Context, token, location, description string) error
}

type Client struct {
	http           *http.Client
	reviewsBaseURL string
	infoBaseURL    string
	logger         *zap.Logger
}

func NewClient(httpClient *http.Client, reviewsBaseURL, infoBaseURL string, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if reviewsBaseURL == "" {
		reviewsBaseURL = DefaultReviewsBaseURL
	}
	if infoBaseURL == "" {
		infoBaseURL = DefaultInfoBaseURL
	}
	return &Client{
		http:           httpClient,
		reviewsBaseURL: strings.TrimSuffix(reviewsBaseURL, "/"),
		infoBaseURL:    strings.TrimSuffix(infoBaseURL, "/"),
		logger:         logger,
	}
}

// ListReviews returns the reviews of a location ("accounts/{a}/locations/{l}").
func (c *Client) ListReviews(ctx context.Context, token, location string) ([]Review, error) {
	var reviews []Review
	pageToken := ""
	for {
		endpoint := c.reviewsBaseURL + "/" + location + "/reviews?pageSize=50"
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}
		var page struct {
			Reviews       []Review `json:"reviews"`
			NextPageToken string   `json:"nextPageToken"`
		}
		if err := c.do(ctx, http.MethodGet, endpoint, token, nil, &page); err != nil {
			return nil, fmt.Errorf("list reviews: %w", err)
		}
		reviews = append(reviews, page.Reviews...)
		if page.NextPageToken == "" {
			return reviews, nil
		}
		pageToken = page.NextPageToken
	}
}

// ReplyToReview creates or replaces the owner reply on a review.
func (c *Client) ReplyToReview(ctx context.Context, token, reviewName, comment string) error {
	body := map[string]string{"comment": comment}
	if err := c.do(ctx, http.MethodPut, c.reviewsBaseURL+"/"+reviewName+"/reply", token, body, nil); err != nil {
		return fmt.Errorf("reply to review: %w", err)
	}
	return nil
}

// UpdateDescription sets the business description of a location.
func (c *Client) UpdateDescription(ctx context.Context, token, location, description string) error {
	// The business information API addresses locations without the account prefix.
	name := location
	if i := strings.Index(location, "locations/"); i >= 0 {
		name = location[i:]
	}
	endpoint := c.infoBaseURL + "/" + name + "?updateMask=profile.description"
	body := map[string]any{"profile": map[string]string{"description": description}}
	if err := c.do(ctx, http.MethodPatch, endpoint, token, body, nil); err != nil {
		return fmt.Errorf("update description: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from Google.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google api returned %d: %s", e.StatusCode, e.Body)
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Google Business Profile request failed",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
