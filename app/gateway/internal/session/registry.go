package session

import "sync"

// Registry 会话注册表
// 会话在认证成功后加入，清理开始前移出。
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Add 注册会话
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Remove 移出会话，返回是否存在
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Get 获取会话
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Count 返回会话数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Range 在快照上遍历会话
// 回调中可安全地注册/移出会话。
func (r *Registry) Range(fn func(s *Session) bool) {
	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	for _, s := range snapshot {
		if !fn(s) {
			return
		}
	}
}

// FindByUser 返回指定用户的所有会话
func (r *Registry) FindByUser(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Session
	for _, s := range r.sessions {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out
}
