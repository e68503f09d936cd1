// Package tools exposes the X API operations as MCP tools: a fixed set of
// names, their argument schemas and a dispatcher that turns every outcome
// into a tool result.
package tools

import (
	"context"
	"fmt"

	"github.com/mudler/x-mcp/internal/xapi"
)

// Name identifies one of the tools served by this process.
type Name string

const (
	GetUser       Name = "get_user"
	PostTweet     Name = "post_tweet"
	SearchTweets  Name = "search_tweets"
	GetTweet      Name = "get_tweet"
	GetUserTweets Name = "get_user_tweets"
)

// Names lists every tool in registration order.
var Names = []Name{GetUser, PostTweet, SearchTweets, GetTweet, GetUserTweets}

// ParseName maps a wire name to a Name. Matching is exact.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", &UnknownToolError{Name: s}
}

// ReadOnly reports whether the tool never changes upstream state.
func (n Name) ReadOnly() bool {
	return n != PostTweet
}

// UnknownToolError is returned for a tool name outside Names.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// API is the subset of the X API client the tools call.
type API interface {
	GetUser(ctx context.Context, identifier string, isUserID bool) (*xapi.User, error)
	GetTweet(ctx context.Context, tweetID string) (*xapi.TweetResult, error)
	SearchTweets(ctx context.Context, params xapi.SearchParams) (*xapi.SearchResult, error)
	GetUserTweets(ctx context.Context, identifier string, isUserID bool, maxResults int) (*xapi.UserTweets, error)
	PostTweet(ctx context.Context, text, replyTo string) (*xapi.Tweet, error)
}

var _ API = (*xapi.Client)(nil)
