package cache

import (
	"sync"
	"time"
)

// ============================================================================
// CACHE SERVICE - IN-MEMORY CACHING CON TTL
// ============================================================================
// Caché thread-safe con expiración automática para las lecturas frecuentes
// del dashboard (producciones, miembros, totales de horas).
//
// Uso:
//   cache := NewCache(1*time.Minute, 5*time.Minute)
//   cache.Set("members:42", members)
//   if data, found := cache.Get("members:42"); found {
//       return data
//   }
//
// Las ubicaciones del equipo NO se cachean aquí: la presencia se deriva del
// reloj en cada lectura y cachearla la congelaría.

// CacheItem representa un elemento en caché con timestamp de expiración
type CacheItem struct {
	Value      interface{}
	Expiration int64 // Unix timestamp
}

// Cache es un almacén thread-safe de key-value con TTL
type Cache struct {
	items             map[string]CacheItem
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	stopCleanup       chan bool
}

// NewCache crea una nueva instancia de caché con TTL por defecto
// cleanupInterval ejecuta limpieza periódica de items expirados
func NewCache(defaultExpiration, cleanupInterval time.Duration) *Cache {
	cache := &Cache{
		items:             make(map[string]CacheItem),
		defaultExpiration: defaultExpiration,
		cleanupInterval:   cleanupInterval,
		stopCleanup:       make(chan bool),
	}

	go cache.startCleanupTimer()

	return cache
}

// Set almacena un valor con la expiración por defecto
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultExpiration)
}

// SetWithTTL almacena un valor con una duración de expiración específica
func (c *Cache) SetWithTTL(key string, value interface{}, duration time.Duration) {
	var expiration int64

	if duration > 0 {
		expiration = time.Now().Add(duration).UnixNano()
	}

	c.mu.Lock()
	c.items[key] = CacheItem{
		Value:      value,
		Expiration: expiration,
	}
	c.mu.Unlock()
}

// Get recupera un valor del caché
// Retorna (valor, true) si existe y no ha expirado
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}

	if item.Expiration > 0 && time.Now().UnixNano() > item.Expiration {
		c.Delete(key)
		return nil, false
	}

	return item.Value, true
}

// Delete elimina un key del caché
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix elimina todas las keys que empiezan con el prefijo dado
// Útil para invalidar grupos (ej: "members:" invalida todos los rosters)
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
			count++
		}
	}
	return count
}

// Clear limpia completamente el caché
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]CacheItem)
	c.mu.Unlock()
}

// Count retorna el número de items en caché (incluye expirados)
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// CacheStats son las estadísticas expuestas por el endpoint de status.
type CacheStats struct {
	TotalItems   int
	ExpiredItems int
	ValidItems   int
}

// GetStats retorna estadísticas actuales del caché
func (c *Cache) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		TotalItems: len(c.items),
	}

	now := time.Now().UnixNano()
	for _, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			stats.ExpiredItems++
		} else {
			stats.ValidItems++
		}
	}

	return stats
}

// startCleanupTimer ejecuta limpieza periódica de items expirados
func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

// deleteExpired elimina todos los items expirados
func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
		}
	}
}

// Stop detiene la limpieza automática
func (c *Cache) Stop() {
	c.stopCleanup <- true
}

// ============================================================================
// CACHE PRESETS
// ============================================================================

var (
	// ProductionsCache - listados de producciones por usuario (TTL: 1 minuto)
	ProductionsCache *Cache

	// MembersCache - rosters de producción (TTL: 1 minuto)
	// Se invalida explícitamente en join/leave
	MembersCache *Cache

	// SummariesCache - totales de horas y ratings agregados (TTL: 30 segundos)
	SummariesCache *Cache
)

// InitCaches inicializa todos los cachés con sus TTL
func InitCaches() {
	ProductionsCache = NewCache(1*time.Minute, 5*time.Minute)
	MembersCache = NewCache(1*time.Minute, 5*time.Minute)
	SummariesCache = NewCache(30*time.Second, 2*time.Minute)
}

// StopCaches detiene todos los cachés
func StopCaches() {
	if ProductionsCache != nil {
		ProductionsCache.Stop()
	}
	if MembersCache != nil {
		MembersCache.Stop()
	}
	if SummariesCache != nil {
		SummariesCache.Stop()
	}
}

// GetAllCacheStats retorna estadísticas de todos los cachés
func GetAllCacheStats() map[string]CacheStats {
	stats := make(map[string]CacheStats)

	if ProductionsCache != nil {
		stats["productions"] = ProductionsCache.GetStats()
	}
	if MembersCache != nil {
		stats["members"] = MembersCache.GetStats()
	}
	if SummariesCache != nil {
		stats["summaries"] = SummariesCache.GetStats()
	}

	return stats
}
