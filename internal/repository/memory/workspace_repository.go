package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"vibez-studio/pkg/workspace"
)

// WorkspaceRepository keeps one live workspace per user. Entries expire after
// the idle TTL; every access slides the expiry forward.
type WorkspaceRepository struct {
	cache *cache.Cache
	ttl   time.Duration

	// mu makes GetOrCreate atomic so concurrent first requests share one
	// workspace.
	mu sync.Mutex
}

func NewWorkspaceRepository(ttl time.Duration, onEvict func(userID string, ws *workspace.Workspace)) *WorkspaceRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	// Purge expired workspaces every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	if onEvict != nil {
		c.OnEvicted(func(key string, v interface{}) {
			onEvict(key, v.(*workspace.Workspace))
		})
	}
	return &WorkspaceRepository{cache: c, ttl: ttl}
}

func (r *WorkspaceRepository) Get(userID string) (*workspace.Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if x, found := r.cache.Get(userID); found {
		ws := x.(*workspace.Workspace)
		r.cache.Set(userID, ws, cache.DefaultExpiration)
		return ws, true
	}
	return nil, false
}

// GetOrCreate returns the user's workspace, building it with create when the
// user has none. created reports whether create ran.
func (r *WorkspaceRepository) GetOrCreate(userID string, create func() *workspace.Workspace) (ws *workspace.Workspace, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if x, found := r.cache.Get(userID); found {
		ws = x.(*workspace.Workspace)
	} else {
		ws = create()
		created = true
	}
	r.cache.Set(userID, ws, cache.DefaultExpiration)
	return ws, created
}

// Holds reports whether ws is the workspace currently registered for userID.
// It does not extend the expiry.
func (r *WorkspaceRepository) Holds(userID string, ws *workspace.Workspace) bool {
	x, found := r.cache.Get(userID)
	return found && x.(*workspace.Workspace) == ws
}

func (r *WorkspaceRepository) Delete(userID string) {
	r.cache.Delete(userID)
}

func (r *WorkspaceRepository) Count() int {
	return r.cache.ItemCount()
}
