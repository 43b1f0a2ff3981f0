package remote

import (
	"context"
	"fmt"
	"time"

	"nodesync/binding"
	"nodesync/httpapi"
)

const (
	characterDataPath = "/mira/get_character_data"
	characterCacheKey = "character_data"
)

// CharacterSource serves the option list of one character category. The
// full category map is fetched in one call and cached, matching the backend
// which loads it once from its JSON dataset.
type CharacterSource struct {
	api      *httpapi.Client
	cache    Cache
	cacheTTL time.Duration
}

func NewCharacterSource(api *httpapi.Client, cache Cache, cacheTTL time.Duration) *CharacterSource {
	return &CharacterSource{api: api, cache: cache, cacheTTL: cacheTTL}
}

// Fetch returns the names of the category in params["characters_from"].
func (s *CharacterSource) Fetch(ctx context.Context, params binding.Params) binding.Result {
	category := params.Get("characters_from")
	if category == "" {
		return binding.Info("Select a category")
	}

	data, err := s.categoryMap(ctx)
	if err != nil {
		return failure("characters", err)
	}

	names, ok := data[category]
	if !ok {
		return binding.Error(fmt.Sprintf("Unknown category: %s", category))
	}
	if len(names) == 0 {
		return binding.Empty("(no characters)")
	}
	return binding.Success(names, map[string]string{"category": category})
}

// Categories returns the sorted-by-backend category list, for populating the
// driving widget itself.
func (s *CharacterSource) Categories(ctx context.Context) ([]string, error) {
	data, err := s.categoryMap(ctx)
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(data))
	for category := range data {
		categories = append(categories, category)
	}
	return categories, nil
}

func (s *CharacterSource) categoryMap(ctx context.Context) (map[string][]string, error) {
	var data map[string][]string
	if s.cache != nil {
		if ok, err := s.cache.GetJSON(characterCacheKey, &data); err == nil && ok {
			return data, nil
		}
	}

	if err := s.api.GetJSON(ctx, characterDataPath, nil, &data); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.PutJSON(characterCacheKey, data, s.cacheTTL); err != nil {
			// Cache trouble must not break the refresh.
			failureLog(err)
		}
	}
	return data, nil
}
