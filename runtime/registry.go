package runtime

import (
	"sync"
	"ticket-chat/contract"
	"ticket-chat/domain/chat"
)

type Set map[string]struct{}

// Registry maps realtime connections to the groups they listen to.
type Registry struct {
	mu           sync.RWMutex
	Sessions     map[string]contract.EventSink // map connection -> Sink
	GroupMembers map[chat.GroupID]Set          // map group to connections
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:     make(map[string]contract.EventSink),
		GroupMembers: make(map[chat.GroupID]Set),
	}
}

// GetSinksForGroup retrieves all active sinks listening to a group.
// It performs a two-step lookup:
// 1. Identifies connection IDs associated with the group via GroupMembers.
// 2. Resolves those IDs into actual EventSinks using the Sessions map.
//
// A connection joined to several groups owns a single sink.
// Returns nil if the group has no listener.
func (r *Registry) GetSinksForGroup(groupID chat.GroupID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.GroupMembers[groupID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for connectionID := range members {
		if sink, exists := r.Sessions[connectionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers a connection's sink and assigns it to a group.
// If the group does not yet exist in the registry, it is initialized on the fly.
func (r *Registry) Subscribe(connectionID string, groupID chat.GroupID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[connectionID] = sink

	if _, ok := r.GroupMembers[groupID]; !ok {
		r.GroupMembers[groupID] = make(Set)
	}
	r.GroupMembers[groupID][connectionID] = struct{}{}
}

// Unsubscribe removes a connection from one group.
// The sink is forgotten once the connection listens to no group,
// and no empty sets are left in the group map.
func (r *Registry) Unsubscribe(connectionID string, groupID chat.GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leave(connectionID, groupID)
	if !r.listening(connectionID) {
		delete(r.Sessions, connectionID)
	}
}

// UnsubscribeAll removes a connection from every group, typically on disconnect.
func (r *Registry) UnsubscribeAll(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for groupID := range r.GroupMembers {
		r.leave(connectionID, groupID)
	}
	delete(r.Sessions, connectionID)
}

func (r *Registry) leave(connectionID string, groupID chat.GroupID) {
	if members, ok := r.GroupMembers[groupID]; ok {
		delete(members, connectionID)

		// If no one is left in the group, remove the group entry entirely
		if len(members) == 0 {
			delete(r.GroupMembers, groupID)
		}
	}
}

func (r *Registry) listening(connectionID string) bool {
	for _, members := range r.GroupMembers {
		if _, ok := members[connectionID]; ok {
			return true
		}
	}
	return false
}
