package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mudler/x-mcp/internal/config"
	"github.com/mudler/x-mcp/internal/oauth"
	"github.com/mudler/x-mcp/internal/xapi"
)

// --- Output structs ---

type UserOutput struct {
	Success bool      `json:"success"`
	User    xapi.User `json:"user"`
}

type TweetOutput struct {
	Success bool       `json:"success"`
	Tweet   xapi.Tweet `json:"tweet"`
	Author  *xapi.User `json:"author,omitempty"`
}

type TweetsOutput struct {
	Success bool         `json:"success"`
	Tweets  []xapi.Tweet `json:"tweets"`
	Count   int          `json:"count"`
	Users   []xapi.User  `json:"users,omitempty"`
	UserID  string       `json:"user_id,omitempty"`
}

type ErrorOutput struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// Error kinds reported in ErrorOutput.ErrorType.
const (
	KindValidation    = "validation_error"
	KindUnknownTool   = "unknown_tool"
	KindAPI           = "api_error"
	KindTransport     = "transport_error"
	KindConfiguration = "configuration_error"
	KindSigning       = "signing_error"
	KindNotFound      = "not_found"
	KindInternal      = "internal_error"
)

// Dispatcher routes tool invocations to the API. It holds no per-call state
// and may be used concurrently.
type Dispatcher struct {
	api    API
	logger *slog.Logger
}

func NewDispatcher(api API, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{api: api, logger: logger}
}

// Dispatch validates args for the named tool, calls the API and returns the
// tool's output value. Arguments are fully validated before any API call.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) (any, error) {
	tool, err := ParseName(name)
	if err != nil {
		return nil, err
	}

	switch tool {
	case GetUser:
		var in GetUserArgs
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		if err := required("identifier", in.Identifier); err != nil {
			return nil, err
		}
		user, err := d.api.GetUser(ctx, in.Identifier, in.IsUserID)
		if err != nil {
			return nil, err
		}
		return UserOutput{Success: true, User: *user}, nil

	case PostTweet:
		var in PostTweetArgs
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		if err := required("text", in.Text); err != nil {
			return nil, err
		}
		tweet, err := d.api.PostTweet(ctx, in.Text, in.ReplyTo)
		if err != nil {
			return nil, err
		}
		return TweetOutput{Success: true, Tweet: *tweet}, nil

	case SearchTweets:
		var in SearchTweetsArgs
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		if err := required("query", in.Query); err != nil {
			return nil, err
		}
		n, err := maxResults(in.MaxResults)
		if err != nil {
			return nil, err
		}
		res, err := d.api.SearchTweets(ctx, xapi.SearchParams{
			Query:          in.Query,
			MaxResults:     n,
			IncludeUsers:   in.IncludeUsers,
			IncludeMetrics: in.IncludeMetrics,
		})
		if err != nil {
			return nil, err
		}
		return TweetsOutput{Success: true, Tweets: nonNil(res.Tweets), Count: len(res.Tweets), Users: res.Users}, nil

	case GetTweet:
		var in GetTweetArgs
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		if err := required("tweet_id", in.TweetID); err != nil {
			return nil, err
		}
		res, err := d.api.GetTweet(ctx, in.TweetID)
		if err != nil {
			return nil, err
		}
		return TweetOutput{Success: true, Tweet: res.Tweet, Author: res.Author}, nil

	case GetUserTweets:
		var in GetUserTweetsArgs
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		if err := required("identifier", in.Identifier); err != nil {
			return nil, err
		}
		n, err := maxResults(in.MaxResults)
		if err != nil {
			return nil, err
		}
		res, err := d.api.GetUserTweets(ctx, in.Identifier, in.IsUserID, n)
		if err != nil {
			return nil, err
		}
		return TweetsOutput{Success: true, Tweets: nonNil(res.Tweets), Count: len(res.Tweets), UserID: res.UserID}, nil
	}

	// Unreachable while ParseName and the switch cover the same names.
	return nil, &UnknownToolError{Name: name}
}

func nonNil(tweets []xapi.Tweet) []xapi.Tweet {
	if tweets == nil {
		return []xapi.Tweet{}
	}
	return tweets
}

// ErrorKind classifies err into one of the Kind* strings.
func ErrorKind(err error) string {
	var (
		unknown    *UnknownToolError
		validation *xapi.ValidationError
		apiErr     *xapi.APIError
		transport  *xapi.TransportError
		cfgErr     *config.ConfigurationError
		signing    *oauth.SigningError
	)
	switch {
	case errors.As(err, &unknown):
		return KindUnknownTool
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &apiErr):
		return KindAPI
	case errors.As(err, &transport):
		return KindTransport
	case errors.Is(err, xapi.ErrUserContextRequired), errors.Is(err, xapi.ErrReadOnly), errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &signing):
		return KindSigning
	case errors.Is(err, xapi.ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// ErrorResult builds the failure envelope for err.
func ErrorResult(err error) ErrorOutput {
	return ErrorOutput{Success: false, Error: err.Error(), ErrorType: ErrorKind(err)}
}
