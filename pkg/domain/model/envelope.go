package model

import "time"

// Action represents what happened to the entity
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
)

// IsValid checks if the action is one of the known actions
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionRemove:
		return true
	default:
		return false
	}
}

// Past returns the lower-case past tense of the action ("created", "updated", "removed")
func (a Action) Past() string {
	return string(a) + "d"
}

// EntityType is the closed set of entity types the source emits
type EntityType string

const (
	EntityIssue         EntityType = "Issue"
	EntityComment       EntityType = "Comment"
	EntityProject       EntityType = "Project"
	EntityProjectUpdate EntityType = "ProjectUpdate"
	EntityTeam          EntityType = "Team"
	EntityCycle         EntityType = "Cycle"
	EntityUser          EntityType = "User"
	EntityIssueLabel    EntityType = "IssueLabel"
	EntityReaction      EntityType = "Reaction"
	EntityAttachment    EntityType = "Attachment"
	EntityDocument      EntityType = "Document"
	EntityOther         EntityType = "Other"
)

var entityTypes = []EntityType{
	EntityIssue,
	EntityComment,
	EntityProject,
	EntityProjectUpdate,
	EntityTeam,
	EntityCycle,
	EntityUser,
	EntityIssueLabel,
	EntityReaction,
	EntityAttachment,
	EntityDocument,
	EntityOther,
}

// EntityTypes returns all declared entity types including the Other fallback
func EntityTypes() []EntityType {
	out := make([]EntityType, len(entityTypes))
	copy(out, entityTypes)
	return out
}

// ParseEntityType maps a wire type name to an EntityType. Undeclared names map to
// EntityOther.
func ParseEntityType(s string) EntityType {
	for _, t := range entityTypes {
		if string(t) == s {
			return t
		}
	}
	return EntityOther
}

// Actor is the user or integration that triggered the event
type Actor struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Type  string `json:"type,omitempty"`
	URL   string `json:"url,omitempty"`
}

// DisplayName returns the actor name, or empty string when unavailable
func (a *Actor) DisplayName() string {
	if a == nil {
		return ""
	}
	return a.Name
}

// EventEnvelope is the decoded representation of one inbound event
type EventEnvelope struct {
	Action     Action
	EntityType EntityType
	// RawType is the type name as sent by the source. It differs from EntityType for
	// undeclared types.
	RawType          string
	Data             EntityData
	PriorState       *EntityData
	OccurredAt       time.Time
	SourceURL        string
	WebhookID        string
	WebhookTimestamp int64
	OrganizationID   string
	Actor            *Actor
	DeliveryID       string
}

// TypeName returns the type name to show to humans. Undeclared types keep their wire name.
func (e *EventEnvelope) TypeName() string {
	if e.RawType != "" {
		return e.RawType
	}
	return string(e.EntityType)
}
