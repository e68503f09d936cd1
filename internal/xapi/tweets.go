package xapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	twitter "github.com/g8rswimmer/go-twitter/v2"
)

// Upstream rejects recent-search pages smaller than this.
const searchUpstreamMin = 10

// GetTweet fetches a single tweet with its author expanded.
func (c *Client) GetTweet(ctx context.Context, tweetID string) (*TweetResult, error) {
	tweetID, err := requireNonEmpty("tweet_id", tweetID)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"tweet.fields": {joinFields(
			twitter.TweetFieldCreatedAt,
			twitter.TweetFieldAuthorID,
			twitter.TweetFieldPublicMetrics,
			twitter.TweetFieldContextAnnotations,
			twitter.TweetFieldReferencedTweets,
		)},
		"expansions":  {joinFields(twitter.ExpansionAuthorID)},
		"user.fields": {joinFields(twitter.UserFieldUserName)},
	}
	var resp tweetResponse
	status, err := c.do(ctx, http.MethodGet, "/tweets/"+url.PathEscape(tweetID), query, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("tweet lookup: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("tweet lookup %q: %w", tweetID, partialError(status, resp.Errors, ErrNotFound))
	}
	tweet := tweetFromObj(resp.Data)
	return &TweetResult{
		Tweet:  tweet,
		Author: resp.Includes.user(tweet.AuthorID),
	}, nil
}

// SearchTweets runs a recent search. Upstream requires at least 10 results
// per page, so smaller requests are fetched at 10 and trimmed.
func (c *Client) SearchTweets(ctx context.Context, params SearchParams) (*SearchResult, error) {
	q, err := requireNonEmpty("query", params.Query)
	if err != nil {
		return nil, err
	}
	if err := ValidateMaxResults(params.MaxResults); err != nil {
		return nil, err
	}

	tweetFields := []twitter.TweetField{twitter.TweetFieldCreatedAt, twitter.TweetFieldAuthorID}
	if params.IncludeMetrics {
		tweetFields = append(tweetFields, twitter.TweetFieldPublicMetrics)
	}
	query := url.Values{
		"query":        {q},
		"max_results":  {fmt.Sprint(max(params.MaxResults, searchUpstreamMin))},
		"tweet.fields": {joinFields(tweetFields...)},
	}
	if params.IncludeUsers {
		query.Set("expansions", joinFields(twitter.ExpansionAuthorID))
		query.Set("user.fields", joinFields(twitter.UserFieldUserName))
	}

	var resp tweetsResponse
	status, err := c.do(ctx, http.MethodGet, "/tweets/search/recent", query, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if resp.Data == nil && len(resp.Errors) > 0 {
		return nil, fmt.Errorf("search: %w", partialError(status, resp.Errors, nil))
	}

	result := &SearchResult{Tweets: tweetsFromObjs(resp.Data, params.MaxResults)}
	if params.IncludeUsers {
		result.Users = resp.Includes.users()
	}
	return result, nil
}

// PostTweet creates a tweet, optionally as a reply. It needs user context
// and a client that is not read-only.
func (c *Client) PostTweet(ctx context.Context, text, replyTo string) (*Tweet, error) {
	// Whitespace-only text is rejected, but the text is sent as given.
	if _, err := requireNonEmpty("text", text); err != nil {
		return nil, err
	}
	if c.readOnly {
		return nil, ErrReadOnly
	}
	if !c.auth.UserContext() {
		return nil, ErrUserContextRequired
	}

	create := twitter.CreateTweetRequest{Text: text}
	if replyTo != "" {
		create.Reply = &twitter.CreateTweetReply{InReplyToTweetID: replyTo}
	}

	var resp tweetResponse
	status, err := c.do(ctx, http.MethodPost, "/tweets", nil, create, &resp)
	if err != nil {
		return nil, fmt.Errorf("create tweet: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("create tweet: %w", partialError(status, resp.Errors, &TransportError{
			StatusCode: status,
			Err:        fmt.Errorf("no tweet in response"),
		}))
	}
	t := tweetFromObj(resp.Data)
	return &t, nil
}
