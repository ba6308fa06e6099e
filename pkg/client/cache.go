package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/braunma/steelconnect-import/internal/constants"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

// CacheManager keeps the organization's sites and WANs indexed by name
type CacheManager struct {
	client *SCMClient
	cache  map[string]map[string]Object
	mu     sync.RWMutex
}

// NewCacheManager creates a new cache manager
func NewCacheManager(client *SCMClient) *CacheManager {
	return &CacheManager{
		client: client,
		cache:  make(map[string]map[string]Object),
	}
}

// LoadSites loads all sites of the connected organization.
// SCM only filters sites by organization client-side, so every visible site is fetched.
func (cm *CacheManager) LoadSites(ctx context.Context) error {
	objects, err := cm.client.List(ctx, "sites")
	if err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}

	org := cm.client.OrgID()
	filtered := objects[:0]
	for _, obj := range objects {
		if utils.GetString(obj, "org") == org {
			filtered = append(filtered, obj)
		}
	}

	cm.store(constants.ResourceSite, filtered)
	return nil
}

// LoadWANs loads the organization's WAN definitions
func (cm *CacheManager) LoadWANs(ctx context.Context) error {
	objects, err := cm.client.List(ctx, cm.client.orgPath("wans"))
	if err != nil {
		return fmt.Errorf("failed to load WANs: %w", err)
	}

	cm.store(constants.ResourceWAN, objects)
	return nil
}

// store replaces a resource index
func (cm *CacheManager) store(resource string, objects []Object) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	index := make(map[string]Object, len(objects))
	for _, obj := range objects {
		if utils.GetIDFromObject(map[string]interface{}(obj)) == "" {
			continue
		}
		if name := utils.GetString(obj, "name"); name != "" {
			if _, dup := index[name]; !dup {
				index[name] = obj
			}
		}
	}
	cm.cache[resource] = index
}

// Get retrieves an object by exact name
func (cm *CacheManager) Get(resource, name string) (Object, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.cache[resource] == nil {
		return nil, false
	}

	obj, ok := cm.cache[resource][name]
	return obj, ok
}

// GetID retrieves an ID from the cache
func (cm *CacheManager) GetID(resource, name string) (string, bool) {
	obj, ok := cm.Get(resource, name)
	if !ok {
		return "", false
	}
	return utils.GetIDFromObject(map[string]interface{}(obj)), true
}

// Put adds or replaces a single object
func (cm *CacheManager) Put(resource string, obj Object) {
	name := utils.GetString(obj, "name")
	if name == "" {
		return
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.cache[resource] == nil {
		cm.cache[resource] = make(map[string]Object)
	}
	cm.cache[resource][name] = obj
}

// Remove drops an object by name
func (cm *CacheManager) Remove(resource, name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	delete(cm.cache[resource], name)
}

// Loaded reports whether a resource has been loaded
func (cm *CacheManager) Loaded(resource string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	_, ok := cm.cache[resource]
	return ok
}

// Names returns the cached names of a resource, sorted
func (cm *CacheManager) Names(resource string) []string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	names := make([]string, 0, len(cm.cache[resource]))
	for name := range cm.cache[resource] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the number of cached items for a resource
func (cm *CacheManager) Size(resource string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return len(cm.cache[resource])
}
