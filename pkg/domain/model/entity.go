package model

import (
	"fmt"
	"strconv"
)

// Placeholders rendered in place of absent references
const (
	PlaceholderUnknown    = "Unknown"
	PlaceholderUnassigned = "Unassigned"
	PlaceholderNoPriority = "No priority"
	PlaceholderNoProject  = "No project"
	PlaceholderNoCycle    = "No cycle"
	PlaceholderNoEstimate = "No estimate"
	PlaceholderNoLabels   = "No labels"
	PlaceholderNotSet     = "Not set"
	PlaceholderUntitled   = "Untitled"
)

// EntityKind is the tag of EntityData
type EntityKind int

const (
	KindGeneric EntityKind = iota
	KindIssue
	KindComment
)

func (k EntityKind) String() string {
	switch k {
	case KindIssue:
		return "issue"
	case KindComment:
		return "comment"
	default:
		return "generic"
	}
}

// EntityData is a tagged union of the entity payload variants. Exactly the field
// selected by Kind is meaningful.
type EntityData struct {
	Kind    EntityKind
	Issue   *Issue
	Comment *Comment
	Generic GenericEntity
}

// IssueData wraps an Issue into EntityData
func IssueData(issue *Issue) EntityData {
	return EntityData{Kind: KindIssue, Issue: issue}
}

// CommentData wraps a Comment into EntityData
func CommentData(comment *Comment) EntityData {
	return EntityData{Kind: KindComment, Comment: comment}
}

// GenericData wraps an open map into EntityData
func GenericData(fields map[string]any) EntityData {
	if fields == nil {
		fields = map[string]any{}
	}
	return EntityData{Kind: KindGeneric, Generic: GenericEntity(fields)}
}

// State is the workflow state of an issue
type State struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

// Display returns the state name or the Unknown placeholder
func (s *State) Display() string {
	if s == nil || s.Name == "" {
		return PlaceholderUnknown
	}
	return s.Name
}

// User is a member of the workspace
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	URL         string `json:"url"`
}

// Display returns the user's name, or the given placeholder when absent
func (u *User) Display(placeholder string) string {
	if u == nil {
		return placeholder
	}
	switch {
	case u.Name != "":
		return u.Name
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	default:
		return placeholder
	}
}

// Team owns issues, cycles and labels
type Team struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Display returns the team name or the Unknown placeholder
func (t *Team) Display() string {
	if t == nil {
		return PlaceholderUnknown
	}
	if t.Name != "" {
		return t.Name
	}
	if t.Key != "" {
		return t.Key
	}
	return PlaceholderUnknown
}

// Project groups issues
type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	SlugID string `json:"slugId"`
}

// Display returns the project name or the No project placeholder
func (p *Project) Display() string {
	if p == nil || p.Name == "" {
		return PlaceholderNoProject
	}
	return p.Name
}

// Cycle is a time-boxed iteration
type Cycle struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Number *float64 `json:"number"`
}

// Display returns the cycle name, "Cycle N", or the No cycle placeholder
func (c *Cycle) Display() string {
	if c == nil {
		return PlaceholderNoCycle
	}
	if c.Name != "" {
		return c.Name
	}
	if c.Number != nil {
		return "Cycle " + formatNumber(*c.Number)
	}
	return PlaceholderNoCycle
}

// Label is an issue label
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Priority is the urgency of an issue. Value 0 means no priority, 1 is urgent and 4
// is low.
type Priority struct {
	Value int
	Label string
}

var priorityNames = map[int]string{
	0: PlaceholderNoPriority,
	1: "Urgent",
	2: "High",
	3: "Medium",
	4: "Low",
}

// Display returns the priority label or the No priority placeholder
func (p *Priority) Display() string {
	if p == nil {
		return PlaceholderNoPriority
	}
	if p.Label != "" {
		return p.Label
	}
	if name, ok := priorityNames[p.Value]; ok {
		return name
	}
	return fmt.Sprintf("Priority %d", p.Value)
}

// Issue is the typed payload of Issue events
type Issue struct {
	ID            string     `json:"id"`
	Identifier    string     `json:"identifier"`
	Number        *float64   `json:"number"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	PriorityValue *float64   `json:"priority"`
	PriorityLabel string     `json:"priorityLabel"`
	Estimate      *float64   `json:"estimate"`
	URL           string     `json:"url"`
	State         *State     `json:"state"`
	Assignee      *User      `json:"assignee"`
	Creator       *User      `json:"creator"`
	Team          *Team      `json:"team"`
	Project       *Project   `json:"project"`
	Cycle         *Cycle     `json:"cycle"`
	Labels        []Label    `json:"labels"`
	CreatedAt     *Timestamp `json:"createdAt"`
	UpdatedAt     *Timestamp `json:"updatedAt"`
	StartedAt     *Timestamp `json:"startedAt"`
	CompletedAt   *Timestamp `json:"completedAt"`
	CanceledAt    *Timestamp `json:"canceledAt"`
	ArchivedAt    *Timestamp `json:"archivedAt"`
	DueDate       *Timestamp `json:"dueDate"`
}

// Name returns the issue title or the Untitled placeholder
func (i *Issue) Name() string {
	if i == nil || i.Title == "" {
		return PlaceholderUntitled
	}
	return i.Title
}

// Ref returns "ENG-123 Title", or only the title when the identifier is unknown
func (i *Issue) Ref() string {
	if i == nil {
		return PlaceholderUntitled
	}
	if i.Identifier == "" {
		return i.Name()
	}
	return i.Identifier + " " + i.Name()
}

// Priority returns the priority record, nil when the issue carries no priority
func (i *Issue) Priority() *Priority {
	if i == nil || (i.PriorityValue == nil && i.PriorityLabel == "") {
		return nil
	}
	p := &Priority{Label: i.PriorityLabel}
	if i.PriorityValue != nil {
		p.Value = int(*i.PriorityValue)
	}
	return p
}

// DescriptionText returns the description, empty when absent
func (i *Issue) DescriptionText() string {
	if i == nil || i.Description == nil {
		return ""
	}
	return *i.Description
}

// EstimateText returns the estimate in points or the No estimate placeholder
func (i *Issue) EstimateText() string {
	if i == nil || i.Estimate == nil {
		return PlaceholderNoEstimate
	}
	return formatNumber(*i.Estimate) + " pts"
}

// LabelNames returns the label names in payload order
func (i *Issue) LabelNames() []string {
	if i == nil {
		return nil
	}
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	}
	return names
}

// IssueRef is the parent issue embedded in a comment
type IssueRef struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Team       *Team  `json:"team"`
}

// Display returns "ENG-123 Title" or the Unknown placeholder
func (r *IssueRef) Display() string {
	if r == nil {
		return PlaceholderUnknown + " issue"
	}
	switch {
	case r.Identifier != "" && r.Title != "":
		return r.Identifier + " " + r.Title
	case r.Identifier != "":
		return r.Identifier
	case r.Title != "":
		return r.Title
	default:
		return PlaceholderUnknown + " issue"
	}
}

// Comment is the typed payload of Comment events
type Comment struct {
	ID         string     `json:"id"`
	Body       *string    `json:"body"`
	URL        string     `json:"url"`
	IssueID    string     `json:"issueId"`
	User       *User      `json:"user"`
	Issue      *IssueRef  `json:"issue"`
	CreatedAt  *Timestamp `json:"createdAt"`
	UpdatedAt  *Timestamp `json:"updatedAt"`
	EditedAt   *Timestamp `json:"editedAt"`
	ResolvedAt *Timestamp `json:"resolvedAt"`
}

// BodyText returns the comment body, empty when absent
func (c *Comment) BodyText() string {
	if c == nil || c.Body == nil {
		return ""
	}
	return *c.Body
}

// GenericEntity is the open representation of entity types without a typed schema
type GenericEntity map[string]any

// String returns the value at key if it is a non-empty string
func (g GenericEntity) String(key string) string {
	if g == nil {
		return ""
	}
	switch v := g[key].(type) {
	case string:
		return v
	case float64:
		return formatNumber(v)
	default:
		return ""
	}
}

// Name returns the first non-empty of name, title, key, identifier or body-free id
func (g GenericEntity) Name() string {
	for _, key := range []string{"name", "title", "identifier", "key", "emoji"} {
		if s := g.String(key); s != "" {
			return s
		}
	}
	return ""
}

// Description returns the entity's own description text, if any
func (g GenericEntity) Description() string {
	for _, key := range []string{"description", "body"} {
		if s := g.String(key); s != "" {
			return s
		}
	}
	return ""
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
