/*-------------------------------------------------------------------------
 *
 * cache.go
 *    In-memory session cache
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/session/cache.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/db"
)

/* Cache caches sessions by ID */
type Cache struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*db.Session
	maxSize  int
}

func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &Cache{
		sessions: make(map[uuid.UUID]*db.Session),
		maxSize:  maxSize,
	}
}

/* Get returns a cached session or nil */
func (c *Cache) Get(id uuid.UUID) *db.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions[id]
}

/* Set caches a session */
func (c *Cache) Set(id uuid.UUID, session *db.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sessions) >= c.maxSize {
		/* Drop an arbitrary entry; the cache is best-effort */
		for k := range c.sessions {
			delete(c.sessions, k)
			break
		}
	}
	c.sessions[id] = session
}

/* Len reports the number of cached sessions */
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

/* Delete removes a session from the cache */
func (c *Cache) Delete(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}
