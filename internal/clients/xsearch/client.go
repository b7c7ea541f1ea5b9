package xsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/replyloop-backend/internal/pkg/ctxutil"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/types"
)

// Client is the narrow contract the broker consumes. Search makes exactly
// one provider call per invocation; retry policy belongs to the caller's
// tick cadence, not this client.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]types.CandidateItem, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	bearer     string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	bearer := strings.TrimSpace(os.Getenv("X_API_BEARER_TOKEN"))
	if bearer == "" {
		return nil, fmt.Errorf("missing X_API_BEARER_TOKEN")
	}

	baseURL := strings.TrimSpace(os.Getenv("X_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.x.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSec := 15
	if v := os.Getenv("X_API_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &client{
		log:        log.With("service", "XSearchClient"),
		baseURL:    baseURL,
		bearer:     bearer,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type searchResponse struct {
	Data []struct {
		ID               string `json:"id"`
		Text             string `json:"text"`
		AuthorID         string `json:"author_id"`
		CreatedAt        string `json:"created_at"`
		Lang             string `json:"lang"`
		PublicMetrics    struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
		} `json:"public_metrics"`
		ReferencedTweets []struct {
			Type string `json:"type"`
		} `json:"referenced_tweets"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

func (c *client) Search(ctx context.Context, query string, maxResults int) ([]types.CandidateItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query required")
	}
	if maxResults < types.FetchSizeMin {
		maxResults = types.FetchSizeMin
	}
	if maxResults > types.FetchSizeMax {
		maxResults = types.FetchSizeMax
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("tweet.fields", "created_at,public_metrics,lang,referenced_tweets,author_id")
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username")

	endpoint := c.baseURL + "/2/tweets/search/recent?" + params.Encode()

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Message: err.Error()}
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, &TransientError{Message: readErr.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: strings.TrimSpace(resp.Header.Get("Retry-After"))}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &TransientError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &TransientError{Message: fmt.Sprintf("decode search response: %v", err)}
	}

	handles := make(map[string]string, len(parsed.Includes.Users))
	for _, u := range parsed.Includes.Users {
		handles[u.ID] = u.Username
	}

	items := make([]types.CandidateItem, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		postedAt, parseErr := time.Parse(time.RFC3339, d.CreatedAt)
		if parseErr != nil {
			c.log.Debug("Skipping item with unparseable timestamp", "external_id", d.ID, "created_at", d.CreatedAt)
			continue
		}
		isReply := false
		for _, ref := range d.ReferencedTweets {
			if ref.Type == "replied_to" {
				isReply = true
				break
			}
		}
		handle := handles[d.AuthorID]
		if handle == "" {
			handle = d.AuthorID
		}
		items = append(items, types.CandidateItem{
			ExternalID:   d.ID,
			AuthorHandle: handle,
			Text:         d.Text,
			PostedAt:     postedAt,
			LikeCount:    d.PublicMetrics.LikeCount,
			RepostCount:  d.PublicMetrics.RetweetCount,
			ReplyCount:   d.PublicMetrics.ReplyCount,
			IsReply:      isReply,
			Language:     d.Lang,
		})
	}

	return items, nil
}
