package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/smallbiznis/vendo/internal/catalog/domain"
	"github.com/smallbiznis/vendo/internal/providers/restclient"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const itemCacheTTL = 10 * time.Minute

type Params struct {
	fx.In

	Log    *zap.Logger
	Client *restclient.Client
}

type Service struct {
	log    *zap.Logger
	client *restclient.Client
	cache  *itemCache
}

func NewService(p Params) domain.Lookup {
	return &Service{
		log:    p.Log.Named("catalog"),
		client: p.Client,
		cache:  newItemCache(itemCacheTTL),
	}
}

func (s *Service) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	key := "id:" + strconv.FormatInt(id, 10)
	if item, ok := s.cache.Get(key); ok {
		return item, nil
	}

	path := fmt.Sprintf("/rest/v1/items?id=eq.%d&limit=1", id)
	item, err := s.fetchOne(ctx, path)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, item)
	return item, nil
}

func (s *Service) GetItemBySlug(ctx context.Context, slug string) (*domain.Item, error) {
	key := "slug:" + slug
	if item, ok := s.cache.Get(key); ok {
		return item, nil
	}

	path := "/rest/v1/items?slug=eq." + url.QueryEscape(slug) + "&limit=1"
	item, err := s.fetchOne(ctx, path)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, item)
	return item, nil
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if err := s.client.GetJSON(ctx, "/rest/v1/items?order=created_at.desc", &items); err != nil {
		s.log.Warn("catalog list failed", zap.Error(err))
		return nil, domain.ErrCatalogUnavailable
	}
	return items, nil
}

func (s *Service) fetchOne(ctx context.Context, path string) (*domain.Item, error) {
	var items []domain.Item
	if err := s.client.GetJSON(ctx, path, &items); err != nil {
		if errors.Is(err, restclient.ErrNotFound) {
			return nil, domain.ErrItemNotFound
		}
		s.log.Warn("catalog fetch failed", zap.String("path", path), zap.Error(err))
		return nil, domain.ErrCatalogUnavailable
	}
	if len(items) == 0 {
		return nil, domain.ErrItemNotFound
	}
	item := items[0]
	return &item, nil
}

// itemCache keeps hot item reads off the catalog API.
type itemCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]itemCacheEntry
}

type itemCacheEntry struct {
	expiresAt time.Time
	item      domain.Item
}

func newItemCache(ttl time.Duration) *itemCache {
	return &itemCache{
		ttl:   ttl,
		items: make(map[string]itemCacheEntry),
	}
}

func (c *itemCache) Get(key string) (*domain.Item, bool) {
	if c == nil || key == "" {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().UTC().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	item := entry.item
	return &item, true
}

func (c *itemCache) Set(key string, item *domain.Item) {
	if c == nil || key == "" || item == nil {
		return
	}
	c.mu.Lock()
	c.items[key] = itemCacheEntry{
		expiresAt: time.Now().UTC().Add(c.ttl),
		item:      *item,
	}
	c.mu.Unlock()
}
