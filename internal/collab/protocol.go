package collab

import (
	"encoding/json"

	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/engine"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Session sync
	TypeSessionState = "session.state"

	// Canvas objects
	TypeObjectCreate = "object.create"
	TypeObjectUpdate = "object.update"
	TypeObjectDelete = "object.delete"
	TypeImageSize    = "image.size"

	// Canvas drag and containment
	TypeDragStart          = "drag.start"
	TypeDragMove           = "drag.move"
	TypeDragEnd            = "drag.end"
	TypeContainmentConfirm = "containment.confirm"
	TypeContainmentDismiss = "containment.dismiss"

	// Layer panel
	TypeLayerDragStart  = "layer.dragStart"
	TypeLayerDragOver   = "layer.dragOver"
	TypeLayerDragLeave  = "layer.dragLeave"
	TypeLayerDrop       = "layer.drop"
	TypeLayerCancel     = "layer.cancel"
	TypeLayerDropResult = "layer.dropResult"

	TypeAlign = "align"
)

// --- Client payloads ---

// ObjectCreatePayload carries either a full object or just a kind, in which
// case the object is created with default geometry and style.
type ObjectCreatePayload struct {
	Kind   document.Kind    `json:"kind,omitempty"`
	Object *document.Object `json:"object,omitempty" validate:"required_without=Kind"`
}

type ObjectUpdatePayload struct {
	ID    string               `json:"id" validate:"required"`
	Patch document.ObjectPatch `json:"patch"`
}

// ObjectRefPayload names a single object. It is shared by delete, drag start
// and the layer panel hover messages.
type ObjectRefPayload struct {
	ID string `json:"id" validate:"required"`
}

type ImageSizePayload struct {
	ID     string  `json:"id" validate:"required"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

type DragMovePayload struct {
	ID   string  `json:"id" validate:"required"`
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

type AlignPayload struct {
	ID       string `json:"id" validate:"required"`
	Position string `json:"position" validate:"required,oneof=start center end"`
}

// --- Server payloads ---

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
}

// SessionStatePayload is the full editor state a client renders from: the
// combined forest for the layer panel and the pending containment offer.
type SessionStatePayload struct {
	Revision   uint64        `json:"revision"`
	Forest     []*tree.Node  `json:"forest"`
	Offer      *engine.Offer `json:"offer,omitempty"`
	LayerState string        `json:"layerState"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Ref is the type of the message that failed.
	Ref string `json:"ref,omitempty"`
}

// Error codes sent in ErrorPayload.
const (
	CodeBadRequest = "bad_request"
	CodeNotFound   = "not_found"
	CodeUnknown    = "unknown_type"
	CodeLoad       = "load_failed"
)
