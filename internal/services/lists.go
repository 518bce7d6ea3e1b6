package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/upstream"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
)

// ListService reads needs lists. List views are cached until an add
// invalidates them.
type ListService struct {
	store    upstream.ListStore
	cache    cache.Cache
	reporter errreport.Reporter
}

func NewListService(store upstream.ListStore, c cache.Cache, reporter errreport.Reporter) *ListService {
	if reporter == nil {
		reporter = errreport.Default(nil)
	}
	return &ListService{store: store, cache: c, reporter: reporter}
}

func (s *ListService) Lists(ctx context.Context, token string) ([]models.TargetList, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrAuthRequired
	}
	lists, err := s.store.Lists(ctx, token)
	if err != nil {
		return nil, authOr(fmt.Errorf("load needs lists: %w", err))
	}
	return lists, nil
}

func (s *ListService) Wishlist(ctx context.Context, token string, id models.ListID) (*models.Wishlist, error) {
	key := cache.ListKey(id)

	var cached models.Wishlist
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.reporter.Report(ctx, "cache", err)
	} else if ok {
		return &cached, nil
	}

	list, err := s.store.Wishlist(ctx, token, id)
	if err != nil {
		return nil, authOr(fmt.Errorf("load needs list %s: %w", id, err))
	}
	if err := s.cache.Set(ctx, key, list); err != nil {
		s.reporter.Report(ctx, "cache", err)
	}
	return list, nil
}
