package remote

import (
	"context"
	"net/url"
	"time"

	"nodesync/binding"
	"nodesync/httpapi"
)

const keywordCachePrefix = "lora_keywords:"

// KeywordSource fetches the trigger keywords of one lora. Results, including
// the matched-but-empty case, are cached: the backend resolves keywords
// through an expensive external model search.
type KeywordSource struct {
	api      *httpapi.Client
	cache    Cache
	cacheTTL time.Duration
}

func NewKeywordSource(api *httpapi.Client, cache Cache, cacheTTL time.Duration) *KeywordSource {
	return &KeywordSource{api: api, cache: cache, cacheTTL: cacheTTL}
}

func (s *KeywordSource) Fetch(ctx context.Context, params binding.Params) binding.Result {
	loraName := params.Get("lora_name")
	if loraName == "" {
		return binding.Info("Select a lora")
	}

	keywords, err := s.Keywords(ctx, loraName)
	if err != nil {
		return failure("lora_keywords", err)
	}
	if len(keywords) == 0 {
		return binding.Empty("No keywords found")
	}
	return binding.Success(keywords, map[string]string{"lora_name": loraName})
}

// Keywords returns the keyword list for one lora, from cache when possible.
// Only resolved lookups are cached; transport failures are not, so they are
// retried on the next refresh.
func (s *KeywordSource) Keywords(ctx context.Context, loraName string) ([]string, error) {
	cacheKey := keywordCachePrefix + loraName

	var keywords []string
	if s.cache != nil {
		if ok, err := s.cache.GetJSON(cacheKey, &keywords); err == nil && ok {
			return keywords, nil
		}
	}

	if err := s.api.GetJSON(ctx, "/lora_keywords/"+url.PathEscape(loraName), nil, &keywords); err != nil {
		return nil, err
	}
	if keywords == nil {
		keywords = []string{}
	}

	if s.cache != nil {
		if err := s.cache.PutJSON(cacheKey, keywords, s.cacheTTL); err != nil {
			failureLog(err)
		}
	}
	return keywords, nil
}
