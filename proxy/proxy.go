// Package proxy is the typed client for the remote pull-request proposal
// service: when a user drafts an amendment to an article, the service opens
// a pull request against the document repository on their behalf. Only the
// request/response contract lives here; the service's HTTP handling does not.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/brieflex/brieflex/errors"
)

// ProposalRequest asks the service to open a pull request carrying a drafted
// amendment.
type ProposalRequest struct {
	ArticleID    string `json:"article_id"`
	Title        string `json:"title"`
	ProposedText string `json:"proposed_text"`
	Rationale    string `json:"rationale,omitempty"`
	// Source is the invocation source label that produced the draft.
	Source string `json:"source,omitempty"`
}

// ProposalResponse describes the opened pull request.
type ProposalResponse struct {
	PullRequestURL string `json:"pull_request_url"`
	Number         int    `json:"number"`
	Status         string `json:"status"`
}

// Client talks to the proposal service with retrying transport.
type Client struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
	log     *zap.SugaredLogger
}

// NewClient creates a proposal client. retryMax bounds transport-level
// retries; non-positive disables them.
func NewClient(baseURL, token string, retryMax int, log *zap.SugaredLogger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = retryMax
	if retryMax < 0 {
		httpClient.RetryMax = 0
	}
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.Logger = nil

	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpClient,
		log:     log,
	}
}

// Propose submits a drafted amendment and returns the opened pull request.
func (c *Client) Propose(ctx context.Context, proposal ProposalRequest) (*ProposalResponse, error) {
	if proposal.ArticleID == "" {
		return nil, errors.New("proposal requires an article ID")
	}
	if proposal.ProposedText == "" {
		return nil, errors.New("proposal requires proposed text")
	}

	payload, err := json.Marshal(proposal)
	if err != nil {
		return nil, errors.Wrap(err, "marshal proposal")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/proposals", payload)
	if err != nil {
		return nil, errors.Wrap(err, "build proposal request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "submit proposal")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read proposal response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Newf("proposal service returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result ProposalResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrap(err, "decode proposal response")
	}

	if c.log != nil {
		c.log.Infow("Proposal submitted",
			"article_id", proposal.ArticleID,
			"pull_request", result.PullRequestURL,
		)
	}
	return &result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s...", s[:max])
}
