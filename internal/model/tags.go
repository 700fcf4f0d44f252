package model

import (
	"fmt"
	"strings"
)

// StructuralTag classifies a paragraph's role in the document structure
type StructuralTag int

const (
	TagUnknown      StructuralTag = iota // Not yet classified
	TagThesis                            // Main claim of the document
	TagIntroduction                      // Headings, background, framing
	TagPoint                             // Substantial supporting paragraph
	TagExample                           // Short illustrative paragraph
	TagEvidence                          // Data or citations backing a point
	TagCounterpoint                      // Opposing view or limitation
	TagConclusion                        // Final synthesis
)

// AllStructuralTags returns every structural tag in declaration order
func AllStructuralTags() []StructuralTag {
	return []StructuralTag{
		TagUnknown, TagThesis, TagIntroduction, TagPoint,
		TagExample, TagEvidence, TagCounterpoint, TagConclusion,
	}
}

func (t StructuralTag) String() string {
	switch t {
	case TagThesis:
		return "thesis"
	case TagIntroduction:
		return "introduction"
	case TagPoint:
		return "point"
	case TagExample:
		return "example"
	case TagEvidence:
		return "evidence"
	case TagCounterpoint:
		return "counterpoint"
	case TagConclusion:
		return "conclusion"
	case TagUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("StructuralTag(%d)", int(t))
	}
}

// Valid reports whether t is one of the declared tags
func (t StructuralTag) Valid() bool {
	return t >= TagUnknown && t <= TagConclusion
}

// MarshalText encodes the tag as its lowercase name
func (t StructuralTag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid structural tag: %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a lowercase (or uppercase) tag name
func (t *StructuralTag) UnmarshalText(text []byte) error {
	parsed, err := ParseStructuralTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseStructuralTag parses a tag name case-insensitively
func ParseStructuralTag(s string) (StructuralTag, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllStructuralTags() {
		if t.String() == name {
			return t, nil
		}
	}
	return TagUnknown, fmt.Errorf("unknown structural tag: %q", s)
}

// ArgumentRole classifies a paragraph's rhetorical relation to the thesis
type ArgumentRole int

const (
	RoleUnknown      ArgumentRole = iota // Pending enrichment
	RoleSupporting                       // Directly supports the thesis
	RoleCounterpoint                     // Opposing view or limitation
	RoleElaboration                      // Adds detail to a previous point
	RoleEvidence                         // Backs a point with data
	RoleNeutral                          // No argumentative stance
)

// AllArgumentRoles returns every argument role in declaration order
func AllArgumentRoles() []ArgumentRole {
	return []ArgumentRole{
		RoleUnknown, RoleSupporting, RoleCounterpoint,
		RoleElaboration, RoleEvidence, RoleNeutral,
	}
}

func (r ArgumentRole) String() string {
	switch r {
	case RoleSupporting:
		return "supporting"
	case RoleCounterpoint:
		return "counterpoint"
	case RoleElaboration:
		return "elaboration"
	case RoleEvidence:
		return "evidence"
	case RoleNeutral:
		return "neutral"
	case RoleUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("ArgumentRole(%d)", int(r))
	}
}

// Valid reports whether r is one of the declared roles
func (r ArgumentRole) Valid() bool {
	return r >= RoleUnknown && r <= RoleNeutral
}

// MarshalText encodes the role as its lowercase name
func (r ArgumentRole) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid argument role: %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a lowercase (or uppercase) role name
func (r *ArgumentRole) UnmarshalText(text []byte) error {
	parsed, err := ParseArgumentRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseArgumentRole parses a role name case-insensitively
func ParseArgumentRole(s string) (ArgumentRole, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllArgumentRoles() {
		if r.String() == name {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown argument role: %q", s)
}
