package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceManager tracks the cursor and selection each user in a room last
// reported.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[userID] = p
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, userID)
}

// Prune drops selected ids that no longer exist on the canvas.
func (pm *PresenceManager) Prune(exists func(id string) bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for _, p := range pm.presences {
		kept := make([]string, 0, len(p.Selection))
		for _, id := range p.Selection {
			if exists(id) {
				kept = append(kept, id)
			}
		}
		p.Selection = kept
	}
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		c := *v
		result[k] = &c
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
