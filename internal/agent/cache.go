package agent

import (
	"crypto/md5"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// responseCache memoizes full query responses. Keys cover everything that
// changes the answer: the query text plus both routing flags.
type responseCache struct {
	lru *lru.Cache[string, Response]
}

func newResponseCache(size int) (*responseCache, error) {
	if size <= 0 {
		size = 128
	}
	c, err := lru.New[string, Response](size)
	if err != nil {
		return nil, err
	}
	return &responseCache{lru: c}, nil
}

func cacheKey(query string, useRAG, useSQL bool) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%s|%t|%t", query, useRAG, useSQL))))
}

func (c *responseCache) get(key string) (Response, bool) {
	return c.lru.Get(key)
}

func (c *responseCache) put(key string, resp Response) {
	c.lru.Add(key, resp)
}

// Purge drops every cached response. Called after ingestion so stale answers
// never outlive the data they summarized.
func (c *responseCache) Purge() {
	c.lru.Purge()
}
