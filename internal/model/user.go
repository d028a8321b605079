package model

import (
	"encoding/json"
	"fmt"

	"telemed/internal/docstore"
	"telemed/pkg/enumcodec"
)

// UserStatus is the activation state of a stored user profile.
type UserStatus int

const (
	UserStatusActive UserStatus = iota
	UserStatusInActive
)

// UserStatuses maps UserStatus values to their wire names.
var UserStatuses = enumcodec.New([]enumcodec.Member[UserStatus]{
	{Value: UserStatusActive, Name: "Active"},
	{Value: UserStatusInActive, Name: "InActive"},
})

func (s UserStatus) String() string {
	name, err := UserStatuses.Encode(s)
	if err != nil {
		return fmt.Sprintf("UserStatus(%d)", int(s))
	}
	return name
}

func (s UserStatus) MarshalJSON() ([]byte, error) {
	name, err := UserStatuses.Encode(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(name)
}

func (s *UserStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := UserStatuses.Decode(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UserRole is the clinical role attached to a user profile and to the
// authentication role claim.
type UserRole int

const (
	RolePatient UserRole = iota
	RoleDoctor
	RoleNurse
	RoleAdmin
)

// UserRoles maps UserRole values to their wire names.
var UserRoles = enumcodec.New([]enumcodec.Member[UserRole]{
	{Value: RolePatient, Name: "Patient"},
	{Value: RoleDoctor, Name: "Doctor"},
	{Value: RoleNurse, Name: "Nurse"},
	{Value: RoleAdmin, Name: "Admin"},
})

func (r UserRole) String() string {
	name, err := UserRoles.Encode(r)
	if err != nil {
		return fmt.Sprintf("UserRole(%d)", int(r))
	}
	return name
}

func (r UserRole) MarshalJSON() ([]byte, error) {
	name, err := UserRoles.Encode(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(name)
}

func (r *UserRole) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := UserRoles.Decode(name)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// User is the identity-linked profile stored at users/{uid}. The document is
// keyed by the authentication subject id; one document per identity.
type User struct {
	FirstName string     `json:"firstName" binding:"required"`
	LastName  string     `json:"lastName" binding:"required"`
	HN        *string    `json:"HN,omitempty"`
	Status    UserStatus `json:"status"`
	Role      UserRole   `json:"role"`
}

// Document renders the profile with statuses in their wire form.
func (u *User) Document() docstore.Document {
	status, _ := UserStatuses.Encode(u.Status)
	role, _ := UserRoles.Encode(u.Role)
	doc := docstore.Document{
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"status":    status,
		"role":      role,
	}
	if u.HN != nil {
		doc["HN"] = *u.HN
	}
	return doc
}

// UserFromDocument decodes a stored profile. Status and role names are
// decoded strictly; both enumerations are closed.
func UserFromDocument(doc docstore.Document) (*User, error) {
	u := &User{}
	u.FirstName, _ = doc["firstName"].(string)
	u.LastName, _ = doc["lastName"].(string)
	if hn, ok := doc["HN"].(string); ok {
		u.HN = &hn
	}
	if name, ok := doc["status"].(string); ok {
		v, err := UserStatuses.Decode(name)
		if err != nil {
			return nil, err
		}
		u.Status = v
	}
	if name, ok := doc["role"].(string); ok {
		v, err := UserRoles.Decode(name)
		if err != nil {
			return nil, err
		}
		u.Role = v
	}
	return u, nil
}
