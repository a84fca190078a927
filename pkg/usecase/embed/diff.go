package embed

import (
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

// Change is one attribute that differs between prior and current state
type Change struct {
	Attribute string
	Old       string
	New       string
}

func (c Change) String() string {
	return c.Attribute + ": " + c.Old + " → " + c.New
}

type tracked[T any] struct {
	name   string
	render func(T) string
	// equal overrides comparison of rendered values
	equal func(a, b T) bool
}

func diff[T any](attrs []tracked[T], prior, current T) []Change {
	var changes []Change
	for _, attr := range attrs {
		oldValue, newValue := attr.render(prior), attr.render(current)
		same := oldValue == newValue
		if attr.equal != nil {
			same = attr.equal(prior, current)
		}
		if !same {
			changes = append(changes, Change{Attribute: attr.name, Old: oldValue, New: newValue})
		}
	}
	return changes
}

var issueAttributes = []tracked[*model.Issue]{
	{name: "Title", render: (*model.Issue).Name},
	{name: "Status", render: func(i *model.Issue) string { return i.State.Display() }},
	{name: "Assignee", render: func(i *model.Issue) string { return i.Assignee.Display(model.PlaceholderUnassigned) }},
	{name: "Priority", render: func(i *model.Issue) string { return i.Priority().Display() }},
	{name: "Project", render: func(i *model.Issue) string { return i.Project.Display() }},
	{name: "Cycle", render: func(i *model.Issue) string { return i.Cycle.Display() }},
	{name: "Estimate", render: (*model.Issue).EstimateText},
	{name: "Labels", render: renderLabels, equal: sameLabels},
	{name: "Description", render: descriptionPresence},
	{name: "Started", render: func(i *model.Issue) string { return renderTime(i.StartedAt) }},
	{name: "Completed", render: func(i *model.Issue) string { return renderTime(i.CompletedAt) }},
	{name: "Canceled", render: func(i *model.Issue) string { return renderTime(i.CanceledAt) }},
	{name: "Archived", render: func(i *model.Issue) string { return renderTime(i.ArchivedAt) }},
	{name: "Due date", render: func(i *model.Issue) string { return renderDate(i.DueDate) }},
}

// DiffIssues compares the tracked attributes of two issue states
func DiffIssues(prior, current *model.Issue) []Change {
	return diff(issueAttributes, orEmptyIssue(prior), orEmptyIssue(current))
}

const commentSnippet = 60

var commentAttributes = []tracked[*model.Comment]{
	{name: "Comment", render: func(c *model.Comment) string {
		body := singleLine(c.BodyText())
		if body == "" {
			return "Empty"
		}
		return preview(body, commentSnippet)
	}, equal: func(a, b *model.Comment) bool { return a.BodyText() == b.BodyText() }},
	{name: "Resolved", render: func(c *model.Comment) string {
		if c.ResolvedAt == nil || c.ResolvedAt.IsZero() {
			return "No"
		}
		return "Yes"
	}},
}

// DiffComments compares the tracked attributes of two comment states
func DiffComments(prior, current *model.Comment) []Change {
	return diff(commentAttributes, orEmptyComment(prior), orEmptyComment(current))
}

func renderLabels(i *model.Issue) string {
	names := i.LabelNames()
	if len(names) == 0 {
		return model.PlaceholderNoLabels
	}
	return strings.Join(names, ", ")
}

func sameLabels(a, b *model.Issue) bool {
	x, y := a.LabelNames(), b.LabelNames()
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(slices.Compact(x), slices.Compact(y))
}

func descriptionPresence(i *model.Issue) string {
	if strings.TrimSpace(i.DescriptionText()) == "" {
		return "Empty"
	}
	return "Present"
}

func renderTime(ts *model.Timestamp) string {
	t := model.TimeOf(ts)
	if t.IsZero() {
		return model.PlaceholderNotSet
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func renderDate(ts *model.Timestamp) string {
	t := model.TimeOf(ts)
	if t.IsZero() {
		return model.PlaceholderNotSet
	}
	return t.UTC().Format(time.DateOnly)
}

// renderChanges renders one line per change, or fallback when nothing changed
func renderChanges(changes []Change, fallback string) string {
	if len(changes) == 0 {
		return fallback
	}
	lines := make([]string, len(changes))
	for i, c := range changes {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}
