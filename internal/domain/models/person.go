// internal/domain/models/person.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Person is a directory entry.
//
// GroupIDs is the authoritative membership list; GroupExtras holds the
// per-membership metadata keyed by the group's hex ID.
type Person struct {
	Snippet `bson:",inline"`

	FirstName string `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName  string `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`

	GroupIDs    []primitive.ObjectID `bson:"groupIds" json:"groupIds"`
	GroupExtras map[string]Extras    `bson:"groupExtras,omitempty" json:"groupExtras,omitempty"`

	Login        bool   `bson:"login,omitempty" json:"login,omitempty"`
	Username     string `bson:"username,omitempty" json:"username,omitempty"`
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Groups []Group `bson:"-" json:"groups,omitempty"`
}

// ExtrasFor returns the membership metadata for a group, or nil.
func (p Person) ExtrasFor(groupID primitive.ObjectID) Extras {
	if p.GroupExtras == nil {
		return nil
	}
	return p.GroupExtras[groupID.Hex()]
}

// InGroup reports whether the person is linked to the group.
func (p Person) InGroup(groupID primitive.ObjectID) bool {
	for _, id := range p.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}
