package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/core"
)

// newFakeSearch serves two pages for "redux", one for anything else, and a
// 500 for "broken".
func newFakeSearch(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		term := q.Get("query")
		page, _ := strconv.Atoi(q.Get("page"))

		if term == "broken" {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		var hits []core.Hit
		switch {
		case term == "redux" && page == 0:
			hits = []core.Hit{
				{ObjectID: "1", Title: text("Redux"), Author: text("dan"), Points: 10, NumComments: 3},
				{ObjectID: "2", Title: text("Actions"), Author: text("andrew"), Points: 30, NumComments: 1},
			}
		case term == "redux" && page == 1:
			hits = []core.Hit{{ObjectID: "3", Title: text("Middleware"), Author: text("mark"), Points: 20}}
		case page == 0:
			hits = []core.Hit{{ObjectID: term + "-1", Title: text(term), Author: text("someone")}}
		default:
			hits = []core.Hit{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": hits, "page": page, "nbPages": 2})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func text(s string) *string {
	return &s
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Endpoint = newFakeSearch(t).URL
	return cfg
}
