package xapi

import (
	"strings"

	twitter "github.com/g8rswimmer/go-twitter/v2"
)

// Simplified output types (JSON-friendly), mapped 1:1 from the upstream objects.

type TweetMetrics struct {
	Likes       int `json:"like_count"`
	Replies     int `json:"reply_count"`
	Retweets    int `json:"retweet_count"`
	Quotes      int `json:"quote_count"`
	Impressions int `json:"impression_count"`
}

type ReferencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ContextEntity is one side (domain or entity) of a context annotation.
type ContextEntity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ContextAnnotation struct {
	Domain ContextEntity `json:"domain"`
	Entity ContextEntity `json:"entity"`
}

type Tweet struct {
	ID                 string              `json:"id"`
	Text               string              `json:"text"`
	AuthorID           string              `json:"author_id,omitempty"`
	CreatedAt          string              `json:"created_at,omitempty"`
	Metrics            *TweetMetrics       `json:"public_metrics,omitempty"`
	ContextAnnotations []ContextAnnotation `json:"context_annotations,omitempty"`
	ReferencedTweets   []ReferencedTweet   `json:"referenced_tweets,omitempty"`
}

type UserMetrics struct {
	Followers int `json:"followers_count"`
	Following int `json:"following_count"`
	Tweets    int `json:"tweet_count"`
	Listed    int `json:"listed_count"`
}

type User struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Username        string       `json:"username"`
	Description     string       `json:"description,omitempty"`
	ProfileImageURL string       `json:"profile_image_url,omitempty"`
	Verified        bool         `json:"verified,omitempty"`
	CreatedAt       string       `json:"created_at,omitempty"`
	Metrics         *UserMetrics `json:"public_metrics,omitempty"`
}

// TweetResult is a single tweet with its expanded author, when returned.
type TweetResult struct {
	Tweet  Tweet
	Author *User
}

// SearchResult holds recent-search matches. Users is only filled when the
// author expansion was requested.
type SearchResult struct {
	Tweets []Tweet
	Users  []User
}

// UserTweets is a user's recent timeline.
type UserTweets struct {
	UserID string
	Tweets []Tweet
}

// SearchParams are the inputs of SearchTweets.
type SearchParams struct {
	Query          string
	MaxResults     int
	IncludeUsers   bool
	IncludeMetrics bool
}

// Response envelopes. The data objects reuse the go-twitter wire models.

type includes struct {
	Users []*twitter.UserObj `json:"users,omitempty"`
}

type userResponse struct {
	Data   *twitter.UserObj `json:"data"`
	Errors []apiErrorObject `json:"errors"`
}

type tweetResponse struct {
	Data     *twitter.TweetObj `json:"data"`
	Includes *includes         `json:"includes"`
	Errors   []apiErrorObject  `json:"errors"`
}

type tweetsResponse struct {
	Data     []*twitter.TweetObj `json:"data"`
	Includes *includes           `json:"includes"`
	Errors   []apiErrorObject    `json:"errors"`
}

func tweetFromObj(t *twitter.TweetObj) Tweet {
	out := Tweet{
		ID:        t.ID,
		Text:      t.Text,
		AuthorID:  t.AuthorID,
		CreatedAt: t.CreatedAt,
	}
	if t.PublicMetrics != nil {
		out.Metrics = &TweetMetrics{
			Likes:       t.PublicMetrics.Likes,
			Replies:     t.PublicMetrics.Replies,
			Retweets:    t.PublicMetrics.Retweets,
			Quotes:      t.PublicMetrics.Quotes,
			Impressions: t.PublicMetrics.Impressions,
		}
	}
	for _, ann := range t.ContextAnnotations {
		if ann != nil {
			out.ContextAnnotations = append(out.ContextAnnotations, ContextAnnotation{
				Domain: contextEntity(ann.Domain),
				Entity: contextEntity(ann.Entity),
			})
		}
	}
	for _, ref := range t.ReferencedTweets {
		if ref != nil {
			out.ReferencedTweets = append(out.ReferencedTweets, ReferencedTweet{Type: ref.Type, ID: ref.ID})
		}
	}
	return out
}

func contextEntity(c twitter.TweetContextObj) ContextEntity {
	return ContextEntity{ID: c.ID, Name: c.Name, Description: c.Description}
}

func userFromObj(u *twitter.UserObj) User {
	out := User{
		ID:              u.ID,
		Name:            u.Name,
		Username:        u.UserName,
		Description:     u.Description,
		ProfileImageURL: u.ProfileImageURL,
		Verified:        u.Verified,
		CreatedAt:       u.CreatedAt,
	}
	if u.PublicMetrics != nil {
		out.Metrics = &UserMetrics{
			Followers: u.PublicMetrics.Followers,
			Following: u.PublicMetrics.Following,
			Tweets:    u.PublicMetrics.Tweets,
			Listed:    u.PublicMetrics.Listed,
		}
	}
	return out
}

func tweetsFromObjs(objs []*twitter.TweetObj, limit int) []Tweet {
	out := make([]Tweet, 0, len(objs))
	for _, t := range objs {
		if t == nil {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, tweetFromObj(t))
	}
	return out
}

func (i *includes) users() []User {
	if i == nil {
		return nil
	}
	out := make([]User, 0, len(i.Users))
	for _, u := range i.Users {
		if u != nil {
			out = append(out, userFromObj(u))
		}
	}
	return out
}

func (i *includes) user(id string) *User {
	if i == nil {
		return nil
	}
	for _, u := range i.Users {
		if u != nil && u.ID == id {
			out := userFromObj(u)
			return &out
		}
	}
	return nil
}

func joinFields[T ~string](fields ...T) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
