package articles

import (
	"context"
	"fmt"
	"math/rand"

	"monitorss-articles/internal/domain/entity"
)

// FetchFeedArticle fetches the feed and returns the article whose id
// equals id. A pending fetch surfaces ErrPendingRequest; a miss surfaces
// ErrArticleNotFound.
func (s *Service) FetchFeedArticle(ctx context.Context, feedURL, id string, opts FetchArticlesOptions) (*entity.Article, error) {
	res, err := s.FindOrFetchFeedArticles(ctx, feedURL, opts)
	if err != nil {
		return nil, err
	}
	if res.Pending {
		return nil, fmt.Errorf("%w: %s", ErrPendingRequest, feedURL)
	}
	for _, article := range res.Output {
		if article.ID() == id {
			return article, nil
		}
	}
	return nil, fmt.Errorf("%w: id %q", ErrArticleNotFound, id)
}

// FetchRandomFeedArticle fetches the feed and returns a uniformly random
// article, or nil when the feed is empty.
func (s *Service) FetchRandomFeedArticle(ctx context.Context, feedURL string, opts FetchArticlesOptions) (*entity.Article, error) {
	res, err := s.FindOrFetchFeedArticles(ctx, feedURL, opts)
	if err != nil {
		return nil, err
	}
	if res.Pending {
		return nil, fmt.Errorf("%w: %s", ErrPendingRequest, feedURL)
	}
	if len(res.Output) == 0 {
		return nil, nil
	}
	// #nosec G404 -- random article selection has no security impact.
	return res.Output[rand.Intn(len(res.Output))], nil
}
