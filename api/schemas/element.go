package schemas

import (
	"fmt"
	"strings"
)

// -- Element Snapshot Schemas --

// ParentInfo holds the stable attributes captured from an element's
// immediate parent. Only a subset of the parent is recorded; it exists to
// disambiguate otherwise identical siblings during healing.
type ParentInfo struct {
	Tag        string `json:"tag"`
	ID         string `json:"id"`
	Class      string `json:"class"`
	Name       string `json:"name"`
	DataTestID string `json:"data-testid"`
}

// ElementSnapshot is the golden record of an element as it appeared when
// a locator last worked. The field set is closed: drivers populate exactly
// these attributes and nothing else, so snapshots written by one driver
// are comparable to live elements read by another.
//
// InnerHTML is only captured for container elements (see CapturesInnerHTML)
// and Parent is nil for detached or root elements.
type ElementSnapshot struct {
	Tag        string      `json:"tag"`
	ID         string      `json:"id"`
	Class      string      `json:"class"`
	Name       string      `json:"name"`
	DataTestID string      `json:"data-testid"`
	Text       string      `json:"text"`
	InnerHTML  string      `json:"innerHTML,omitempty"`
	Parent     *ParentInfo `json:"parent,omitempty"`
}

// CapturesInnerHTML reports whether snapshots of the given tag should
// include the element's inner markup. Restricted to containers whose
// children are part of their identity.
func CapturesInnerHTML(tag string) bool {
	return strings.EqualFold(tag, "div")
}

// Validate checks that a snapshot produced at the driver boundary is
// well formed. A snapshot without a tag cannot participate in candidate
// enumeration or scoring.
func (s *ElementSnapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("element snapshot is nil")
	}
	if strings.TrimSpace(s.Tag) == "" {
		return fmt.Errorf("element snapshot has no tag")
	}
	if s.Parent != nil && strings.TrimSpace(s.Parent.Tag) == "" {
		return fmt.Errorf("element snapshot parent has no tag")
	}
	return nil
}

// Clone returns a deep copy. Stored goldens are immutable; callers that
// need to tweak a snapshot work on a copy.
func (s *ElementSnapshot) Clone() *ElementSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.Parent != nil {
		p := *s.Parent
		out.Parent = &p
	}
	return &out
}
