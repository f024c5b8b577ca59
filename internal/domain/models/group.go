// internal/domain/models/group.go
package models

// Group is a directory group.
//
// NOTE:
//   - Membership is not stored on the group. Each Person carries groupIds
//     and groupExtras; People is filled in by the group getter's join.
type Group struct {
	Snippet `bson:",inline"`

	Permissions []string `bson:"permissions" json:"permissions"`

	People []Person `bson:"-" json:"people,omitempty"`
}
