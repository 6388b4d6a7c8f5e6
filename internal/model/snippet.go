// Package model defines the data structures shared by the server and the
// client packages.
package model

import "time"

// MaxTags is the most tags a snippet may carry.
const MaxTags = 4

// Snippet is a stored unit of source code with descriptive metadata.
//
// The JSON shape is the wire contract of the snippet API:
//
//	{"_id":"...","title":"...","language":"Go","code":"...","usecase":"...",
//	 "tags":["sorting"],"createdBy":"...","createdAt":"..."}
//
// CreatedBy is the owner of record. It is set once on create and never
// changed by an update.
type Snippet struct {
	ID        string    `json:"_id"       bson:"-"`
	Title     string    `json:"title"     bson:"title"`
	Language  Language  `json:"language"  bson:"language"`
	Code      string    `json:"code"      bson:"code"`
	Usecase   string    `json:"usecase"   bson:"usecase"`
	Tags      []string  `json:"tags"      bson:"tags"`
	CreatedBy string    `json:"createdBy" bson:"-"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// HasTag reports whether the snippet carries tag (exact match).
func (s Snippet) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
