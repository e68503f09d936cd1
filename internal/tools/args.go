package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/mudler/x-mcp/internal/xapi"
)

// --- Input structs ---

type GetUserArgs struct {
	Identifier string `json:"identifier" jsonschema:"username (with or without @) or numeric user id"`
	IsUserID   bool   `json:"is_user_id,omitempty" jsonschema:"treat identifier as a numeric user id (default false)"`
}

type PostTweetArgs struct {
	Text    string `json:"text" jsonschema:"tweet text"`
	ReplyTo string `json:"reply_to,omitempty" jsonschema:"id of the tweet to reply to"`
}

type SearchTweetsArgs struct {
	Query          string `json:"query" jsonschema:"search query (keywords, hashtags, operators such as from:user)"`
	MaxResults     *int   `json:"max_results,omitempty" jsonschema:"max tweets to return"`
	IncludeUsers   bool   `json:"include_users,omitempty" jsonschema:"include author profiles (default false)"`
	IncludeMetrics bool   `json:"include_metrics,omitempty" jsonschema:"include like/retweet/reply/quote counts (default false)"`
}

type GetTweetArgs struct {
	TweetID string `json:"tweet_id" jsonschema:"tweet id"`
}

type GetUserTweetsArgs struct {
	Identifier string `json:"identifier" jsonschema:"username (with or without @) or numeric user id"`
	IsUserID   bool   `json:"is_user_id,omitempty" jsonschema:"treat identifier as a numeric user id (default false)"`
	MaxResults *int   `json:"max_results,omitempty" jsonschema:"max tweets to return"`
}

// decodeArgs unmarshals raw tool arguments into dst. Absent or null
// arguments leave dst untouched; unknown keys are ignored.
func decodeArgs(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	err := json.Unmarshal(raw, dst)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &xapi.ValidationError{Field: typeErr.Field, Reason: "must be " + jsonKind(typeErr.Type)}
	}
	return &xapi.ValidationError{Field: "arguments", Reason: "must be a JSON object"}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	default:
		return "a valid " + t.Kind().String()
	}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &xapi.ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}

func maxResults(p *int) (int, error) {
	if p == nil {
		return xapi.DefaultResults, nil
	}
	return *p, xapi.ValidateMaxResults(*p)
}
