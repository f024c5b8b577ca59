// internal/domain/models/extras.go
package models

import "fmt"

// Extras is the metadata stored alongside a group-person link,
// e.g. {"jobTitle": "Flosser", "rank": 2}.
type Extras map[string]interface{}

// RankKey is the extras key holding the zero-based sort position.
const RankKey = "rank"

// JobTitle returns the jobTitle extra, if any.
func (e Extras) JobTitle() string {
	return e.String("jobTitle")
}

// String returns the named extra formatted as a string.
func (e Extras) String(name string) string {
	v, ok := e[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Rank returns the stored rank. Mongo hands numbers back as int32, int64
// or float64 depending on how they were written.
func (e Extras) Rank() (int, bool) {
	switch v := e[RankKey].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// PersonInfo is one row submitted by the people picker: the person's ID
// in Value plus whatever extras the editor collected for that row.
type PersonInfo struct {
	Value  string `json:"value"`
	Label  string `json:"label,omitempty"`
	Extras Extras `json:"-"`
}
