package model

import (
	"encoding/json"
	"fmt"
	"time"

	"telemed/internal/docstore"
	"telemed/pkg/enumcodec"
)

// VisitStatus is the lifecycle status stored on a Visit document. Unknown
// aliases Waiting, so an unrecognized stored status decodes to a value that
// still encodes to a meaningful name.
type VisitStatus int

const (
	VisitStatusWaiting VisitStatus = iota
	VisitStatusCalling
	VisitStatusUnknown = VisitStatusWaiting
)

// VisitStatuses maps VisitStatus values to their wire names.
var VisitStatuses = enumcodec.New([]enumcodec.Member[VisitStatus]{
	{Value: VisitStatusWaiting, Name: "Waiting"},
	{Value: VisitStatusCalling, Name: "Calling"},
	{Value: VisitStatusUnknown, Name: "Unknown"},
})

func (s VisitStatus) String() string {
	name, err := VisitStatuses.Encode(s)
	if err != nil {
		return fmt.Sprintf("VisitStatus(%d)", int(s))
	}
	return name
}

func (s VisitStatus) MarshalJSON() ([]byte, error) {
	name, err := VisitStatuses.Encode(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(name)
}

func (s *VisitStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, ok := VisitStatuses.TryDecode(name, true)
	if !ok {
		return fmt.Errorf("invalid visit status %q", name)
	}
	*s = v
	return nil
}

// Visit is one clinical encounter, stored at users/{uid}/visits/{visitId}.
// Created once by visit creation; only the finish transition mutates it.
type Visit struct {
	Status     VisitStatus
	IsFinished bool
	RoomToken  string
	CreatedAt  time.Time
}

// Document renders the visit for storage.
func (v *Visit) Document() docstore.Document {
	status, _ := VisitStatuses.Encode(v.Status)
	return docstore.Document{
		"status":     status,
		"isFinished": v.IsFinished,
		"roomToken":  v.RoomToken,
		"createdAt":  v.CreatedAt,
	}
}

// WaitingUserStatus is the queue-entry status stored on a WaitingUser.
type WaitingUserStatus int

const (
	WaitingUserWaiting WaitingUserStatus = iota
	WaitingUserOnCall
	WaitingUserWaitingAgain
	WaitingUserFinished
	WaitingUserUnknown
)

// WaitingUserStatuses maps WaitingUserStatus values to their wire names.
var WaitingUserStatuses = enumcodec.New([]enumcodec.Member[WaitingUserStatus]{
	{Value: WaitingUserWaiting, Name: "Waiting"},
	{Value: WaitingUserOnCall, Name: "OnCall"},
	{Value: WaitingUserWaitingAgain, Name: "WaitingAgain"},
	{Value: WaitingUserFinished, Name: "Finished"},
	{Value: WaitingUserUnknown, Name: "Unknown"},
})

func (s WaitingUserStatus) String() string {
	name, err := WaitingUserStatuses.Encode(s)
	if err != nil {
		return fmt.Sprintf("WaitingUserStatus(%d)", int(s))
	}
	return name
}

func (s WaitingUserStatus) MarshalJSON() ([]byte, error) {
	name, err := WaitingUserStatuses.Encode(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(name)
}

func (s *WaitingUserStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, ok := WaitingUserStatuses.TryDecode(name, true)
	if !ok {
		return fmt.Errorf("invalid waiting user status %q", name)
	}
	*s = v
	return nil
}

// WaitingUser is one queue entry in a waiting room, stored at
// waitingRooms/{roomId}/waitingUsers/{id} with a store-generated id. It is
// created in the same atomic batch as its Visit, which it references by
// UserID and VisitID; User holds a snapshot of the profile at creation.
type WaitingUser struct {
	UserID    string
	VisitID   string
	User      docstore.Document
	Status    WaitingUserStatus
	RoomToken string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Document renders the queue entry for storage.
func (w *WaitingUser) Document() docstore.Document {
	status, _ := WaitingUserStatuses.Encode(w.Status)
	return docstore.Document{
		"userId":    w.UserID,
		"visitId":   w.VisitID,
		"user":      w.User,
		"status":    status,
		"roomToken": w.RoomToken,
		"createdAt": w.CreatedAt,
		"updatedAt": w.UpdatedAt,
	}
}

// WaitingUserFromDocument decodes a stored queue entry. Unrecognized status
// names fall back to Unknown rather than failing the read.
func WaitingUserFromDocument(doc docstore.Document) *WaitingUser {
	w := &WaitingUser{}
	w.UserID, _ = doc["userId"].(string)
	w.VisitID, _ = doc["visitId"].(string)
	w.User, _ = doc["user"].(docstore.Document)
	w.RoomToken, _ = doc["roomToken"].(string)
	if name, ok := doc["status"].(string); ok {
		w.Status, _ = WaitingUserStatuses.TryDecode(name, true)
	}
	if t, ok := doc["createdAt"].(time.Time); ok {
		w.CreatedAt = t
	}
	if t, ok := doc["updatedAt"].(time.Time); ok {
		w.UpdatedAt = t
	}
	return w
}
