// Package collab hosts the WebSocket editing protocol. Each project gets a
// room; the hub run loop applies every client command and timer event to the
// project's engine session and broadcasts the resulting state.
package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/engine"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

// SessionLoader resolves the engine session for a project.
type SessionLoader func(projectID string) (*engine.Session, error)

type Room struct {
	projectID string
	session   *engine.Session
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	// revision is the session revision last broadcast to the room.
	revision uint64
}

func NewRoom(projectID string, session *engine.Session) *Room {
	return &Room{
		projectID: projectID,
		session:   session,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
	}
}

func (r *Room) has(c *Client) bool {
	return r.clients[c.ClientID] == c
}

type inbound struct {
	client *Client
	msg    *Message
}

type notification struct {
	projectID string
	event     engine.Event
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room // projectID -> room

	loader     SessionLoader
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	notify     chan notification

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewHub(loader SessionLoader) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		loader:     loader,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		notify:     make(chan notification, 64),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run processes hub events until Stop is called. It is the only goroutine
// that applies commands to sessions on behalf of clients.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)
		case n := <-h.notify:
			h.handleNotification(n)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends the run loop and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	<-h.stopped
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Submit queues a client message for the run loop.
func (h *Hub) Submit(client *Client, msg *Message) {
	select {
	case h.inbound <- inbound{client: client, msg: msg}:
	case <-h.done:
	}
}

// Notify forwards a session event to the run loop. It never blocks the
// caller, which may be the run loop itself or a session timer.
func (h *Hub) Notify(projectID string, ev engine.Event) {
	n := notification{projectID: projectID, event: ev}
	select {
	case h.notify <- n:
	case <-h.done:
	default:
		go func() {
			select {
			case h.notify <- n:
			case <-h.done:
			}
		}()
	}
}

// ClientCount returns the number of clients connected to a project.
func (h *Hub) ClientCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[projectID]; ok {
		return len(room.clients)
	}
	return 0
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		session, err := h.loader(client.ProjectID)
		if err != nil {
			h.mu.Unlock()
			slog.Warn("load session", "error", err, "project", client.ProjectID)
			client.Send(errorMessage(CodeLoad, "failed to load project", ""))
			client.closeSend()
			return
		}
		room = NewRoom(client.ProjectID, session)
		h.rooms[client.ProjectID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{
		ClientID:  client.ClientID,
		UserID:    client.UserID,
		ProjectID: client.ProjectID,
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcome})
	client.Send(h.stateMessage(room))

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(client.ProjectID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok || !room.has(client) {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend()
	room.presence.Remove(client.UserID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.ProjectID)
	}
	h.mu.Unlock()

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(client.ProjectID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room.clients {
			c.closeSend()
		}
		delete(h.rooms, id)
	}
}

func (h *Hub) room(projectID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[projectID]
	return room, ok
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room, ok := h.room(sender.ProjectID)
	if !ok || !room.has(sender) {
		return
	}

	if msg.Type == TypePresenceUpdate {
		h.handlePresenceUpdate(sender, room, msg)
		return
	}

	err := h.apply(sender, room, msg)
	if err != nil {
		slog.Warn("apply message", "error", err, "type", msg.Type, "user", sender.UserID)
		sender.Send(errorMessage(errorCode(err), err.Error(), msg.Type))
	}
	h.syncRoom(room)
}

// apply runs one client command against the room's session.
func (h *Hub) apply(sender *Client, room *Room, msg *Message) error {
	s := room.session

	switch msg.Type {
	case TypeObjectCreate:
		var p ObjectCreatePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		obj := p.Object
		if obj == nil {
			var err error
			if obj, err = document.NewObject(p.Kind); err != nil {
				return fmt.Errorf("%w: %v", errBadPayload, err)
			}
		}
		return s.AddObject(obj)

	case TypeObjectUpdate:
		var p ObjectUpdatePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return s.UpdateObject(p.ID, &p.Patch)

	case TypeObjectDelete:
		var p ObjectRefPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if err := s.DeleteObject(p.ID); err != nil {
			return err
		}
		room.presence.Prune(func(id string) bool { return hasObject(s, id) })
		return nil

	case TypeImageSize:
		var p ImageSizePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return s.SetImageSize(p.ID, document.Size{Width: p.Width, Height: p.Height})

	case TypeDragStart:
		var p ObjectRefPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return s.DragStart(p.ID)

	case TypeDragMove:
		var p DragMovePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return s.DragMove(p.ID, p.Left, p.Top)

	case TypeDragEnd:
		_, err := s.DragEnd()
		return err

	case TypeContainmentConfirm:
		return s.ConfirmOffer()

	case TypeContainmentDismiss:
		s.DismissOffer()
		return nil

	case TypeLayerDragStart, TypeLayerDragOver, TypeLayerDragLeave:
		var p ObjectRefPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		switch msg.Type {
		case TypeLayerDragStart:
			s.LayerDragStart(p.ID)
		case TypeLayerDragOver:
			s.LayerDragOver(p.ID)
		default:
			s.LayerDragLeave(p.ID)
		}
		return nil

	case TypeLayerDrop:
		res := s.LayerDrop()
		payload, _ := json.Marshal(res)
		sender.Send(&Message{Type: TypeLayerDropResult, Seq: msg.Seq, Payload: payload})
		return nil

	case TypeLayerCancel:
		s.LayerCancel()
		return nil

	case TypeAlign:
		var p AlignPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return s.AlignSelf(engine.Position(p.Position), p.ID)

	default:
		return errUnknownType
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, room *Room, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName
	room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(sender.ProjectID, outMsg, sender.ClientID)
}

// handleNotification broadcasts state for events the run loop did not cause
// itself, such as an expired containment offer.
func (h *Hub) handleNotification(n notification) {
	room, ok := h.room(n.projectID)
	if !ok {
		return
	}
	if n.event.Revision <= room.revision {
		return
	}
	h.syncRoom(room)
}

// syncRoom broadcasts the session state when it moved past the last revision
// the room saw.
func (h *Hub) syncRoom(room *Room) {
	if room.session.Revision() <= room.revision {
		return
	}
	h.broadcastToRoom(room.projectID, h.stateMessage(room), "")
}

func (h *Hub) stateMessage(room *Room) *Message {
	s := room.session
	state := SessionStatePayload{
		Revision:   s.Revision(),
		Forest:     s.Forest(tree.ModeCombined),
		Offer:      s.Offer(),
		LayerState: s.LayerState().String(),
	}
	room.revision = state.Revision

	payload, err := json.Marshal(state)
	if err != nil {
		slog.Error("marshal session state", "error", err, "project", room.projectID)
		return errorMessage(CodeLoad, "failed to encode session state", "")
	}
	return &Message{Type: TypeSessionState, ProjectID: room.projectID, Payload: payload}
}

func (h *Hub) broadcastToRoom(projectID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[projectID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

var (
	errUnknownType = errors.New("unknown message type")
	errBadPayload  = errors.New("invalid payload")
)

func decode(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if err := document.Validator().Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

func hasObject(s *engine.Session, id string) bool {
	for _, o := range s.Objects() {
		if o.ID == id {
			return true
		}
	}
	return false
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errUnknownType):
		return CodeUnknown
	case errors.Is(err, engine.ErrObjectNotFound):
		return CodeNotFound
	default:
		return CodeBadRequest
	}
}

func errorMessage(code, message, ref string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Code: code, Message: message, Ref: ref})
	return &Message{Type: TypeError, Payload: payload}
}
