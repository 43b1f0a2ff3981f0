package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"nodesync/binding"
	"nodesync/httpapi"
)

const booruProxyPath = "/booru-proxy"

// BooruSource searches the image boards through the backend's proxy
// endpoint. Options are "url|tags" strings so a selected entry carries its
// tag list along with it.
type BooruSource struct {
	api      *httpapi.Client
	websites []string
}

func NewBooruSource(api *httpapi.Client, websites []string) *BooruSource {
	return &BooruSource{api: api, websites: websites}
}

type booruResponse struct {
	Status string          `json:"status"`
	Values json.RawMessage `json:"values"`
}

type booruEntry struct {
	Url  string `json:"url"`
	Tags string `json:"tags"`
}

func (s *BooruSource) Fetch(ctx context.Context, params binding.Params) binding.Result {
	tags := strings.TrimSpace(params.Get("tags"))
	if tags == "" {
		// Degenerate input never reaches the network.
		return binding.Info("Enter tags to search")
	}

	page := params.Get("page")
	if page == "" {
		page = "0"
	}
	if _, err := strconv.Atoi(page); err != nil {
		return binding.Error("Invalid page number")
	}

	website := params.Get("website")
	if website != "" && len(s.websites) > 0 && !s.allowed(website) {
		return binding.Error(fmt.Sprintf("Unknown website: %s", website))
	}

	query := url.Values{}
	query.Set("tags", tags)
	query.Set("page", page)
	query.Set("website", website)

	var resp booruResponse
	if err := s.api.GetJSON(ctx, booruProxyPath, query, &resp); err != nil {
		return failure("booru", err)
	}

	switch resp.Status {
	case "success":
		var entries []booruEntry
		if err := json.Unmarshal(resp.Values, &entries); err != nil {
			return failure("booru", err)
		}
		options := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.Url == "" {
				continue
			}
			if entry.Tags != "" {
				options = append(options, entry.Url+"|"+entry.Tags)
			} else {
				options = append(options, entry.Url)
			}
		}
		if len(options) == 0 {
			return binding.Empty("No results found")
		}
		return binding.Success(options, map[string]string{"website": website, "page": page})
	case "info":
		return binding.Info(s.firstMessage(resp.Values, "No results found"))
	default:
		return binding.Error(s.firstMessage(resp.Values, "Search failed"))
	}
}

func (s *BooruSource) allowed(website string) bool {
	for _, candidate := range s.websites {
		if candidate == website {
			return true
		}
	}
	return false
}

// firstMessage pulls the first string out of an info/error values array.
func (s *BooruSource) firstMessage(raw json.RawMessage, fallback string) string {
	var messages []string
	if err := json.Unmarshal(raw, &messages); err == nil && len(messages) > 0 && messages[0] != "" {
		return messages[0]
	}
	return fallback
}
