package xapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	twitter "github.com/g8rswimmer/go-twitter/v2"
)

// Upstream rejects timeline pages smaller than this.
const userTweetsUpstreamMin = 5

var userFields = joinFields(
	twitter.UserFieldDescription,
	twitter.UserFieldProfileImageURL,
	twitter.UserFieldPublicMetrics,
	twitter.UserFieldVerified,
	twitter.UserFieldCreatedAt,
)

// GetUser looks a user up by username (leading '@' allowed) or, when
// isUserID is set, by numeric id.
func (c *Client) GetUser(ctx context.Context, identifier string, isUserID bool) (*User, error) {
	identifier, err := requireNonEmpty("identifier", identifier)
	if err != nil {
		return nil, err
	}

	path := "/users/" + url.PathEscape(identifier)
	if !isUserID {
		username := strings.TrimPrefix(identifier, "@")
		if username == "" {
			return nil, &ValidationError{Field: "identifier", Reason: "is required"}
		}
		path = "/users/by/username/" + url.PathEscape(username)
	}

	var resp userResponse
	status, err := c.do(ctx, http.MethodGet, path, url.Values{"user.fields": {userFields}}, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("user lookup %q: %w", identifier, partialError(status, resp.Errors, ErrNotFound))
	}
	u := userFromObj(resp.Data)
	return &u, nil
}

// GetUserTweets returns up to maxResults recent tweets of a user. A username
// is resolved to an id first.
func (c *Client) GetUserTweets(ctx context.Context, identifier string, isUserID bool, maxResults int) (*UserTweets, error) {
	identifier, err := requireNonEmpty("identifier", identifier)
	if err != nil {
		return nil, err
	}
	if err := ValidateMaxResults(maxResults); err != nil {
		return nil, err
	}

	userID := identifier
	if !isUserID {
		u, err := c.GetUser(ctx, identifier, false)
		if err != nil {
			return nil, err
		}
		userID = u.ID
	}

	query := url.Values{
		"max_results": {fmt.Sprint(max(maxResults, userTweetsUpstreamMin))},
		"tweet.fields": {joinFields(
			twitter.TweetFieldCreatedAt,
			twitter.TweetFieldAuthorID,
			twitter.TweetFieldPublicMetrics,
		)},
	}
	var resp tweetsResponse
	status, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/tweets", query, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("user timeline: %w", err)
	}
	if resp.Data == nil && len(resp.Errors) > 0 {
		return nil, fmt.Errorf("user timeline: %w", partialError(status, resp.Errors, nil))
	}
	return &UserTweets{
		UserID: userID,
		Tweets: tweetsFromObjs(resp.Data, maxResults),
	}, nil
}
