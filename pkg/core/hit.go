package core

import (
	"net/url"
	"strings"
	"time"
)

// Hit is a single story or comment returned by the search endpoint.
// ObjectID is the only field the endpoint always sets; everything else may
// come back empty or null. Title and Author stay nil when the endpoint sends
// null so sorting can tell a missing value from an empty one.
type Hit struct {
	ObjectID    string  `json:"objectID"`
	Title       *string `json:"title,omitempty"`
	StoryTitle  string  `json:"story_title,omitempty"`
	Author      *string `json:"author,omitempty"`
	URL         string  `json:"url,omitempty"`
	NumComments int     `json:"num_comments"`
	Points      int     `json:"points"`
	CreatedAtI  int64   `json:"created_at_i,omitempty"`
}

// TitleText returns the hit's own title, or "" when it has none.
func (h Hit) TitleText() string {
	if h.Title == nil {
		return ""
	}
	return *h.Title
}

// AuthorName returns the author, or "" when the endpoint sent none.
func (h Hit) AuthorName() string {
	if h.Author == nil {
		return ""
	}
	return *h.Author
}

// DisplayTitle returns the title to show for the hit. Comment hits carry no
// title of their own, so the parent story title is used instead.
func (h Hit) DisplayTitle() string {
	if t := h.TitleText(); t != "" {
		return t
	}
	return h.StoryTitle
}

// LinkURL returns the hit's URL when it is an absolute http or https link,
// and "" otherwise.
func (h Hit) LinkURL() string {
	u, err := url.Parse(h.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return h.URL
	}
	return ""
}

// CreatedAt returns the creation time reported by the endpoint, or the zero
// time when it was not provided.
func (h Hit) CreatedAt() time.Time {
	if h.CreatedAtI == 0 {
		return time.Time{}
	}
	return time.Unix(h.CreatedAtI, 0).UTC()
}

// ResultPage is one response from the search endpoint.
type ResultPage struct {
	Hits        []Hit `json:"hits"`
	Page        int   `json:"page"`
	NbHits      int   `json:"nbHits,omitempty"`
	NbPages     int   `json:"nbPages,omitempty"`
	HitsPerPage int   `json:"hitsPerPage,omitempty"`
}

// HasMore reports whether the endpoint advertised pages after this one.
// Responses without paging metadata are assumed to have more.
func (p ResultPage) HasMore() bool {
	if p.NbPages == 0 {
		return len(p.Hits) > 0
	}
	return p.Page+1 < p.NbPages
}

// NormalizeTerm trims surrounding whitespace from a search term. An empty
// result means the term is not usable as a cache key.
func NormalizeTerm(term string) string {
	return strings.TrimSpace(term)
}
