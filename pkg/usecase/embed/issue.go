package embed

import (
	"fmt"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

func (f *Factory) issueEmbed(env *model.EventEnvelope, issue *model.Issue) model.Embed {
	switch env.Action {
	case model.ActionCreate:
		return f.issueCreated(env, issue)
	case model.ActionUpdate:
		return f.issueUpdated(env, issue)
	case model.ActionRemove:
		return f.issueRemoved(env, issue)
	default:
		return f.genericEmbed(env)
	}
}

func (f *Factory) issueCreated(env *model.EventEnvelope, issue *model.Issue) model.Embed {
	description := preview(issue.DescriptionText(), descriptionPreview)
	if description == "" {
		description = "No description provided"
	}

	fields := []model.EmbedField{
		field("Team", issue.Team.Display()),
		field("Status", issue.State.Display()),
		field("Priority", issue.Priority().Display()),
		field("Assignee", issue.Assignee.Display(model.PlaceholderUnassigned)),
		field("Creator", issue.Creator.Display(model.PlaceholderUnknown)),
	}
	if issue.Project != nil {
		fields = append(fields, field("Project", issue.Project.Display()))
	}
	if issue.Cycle != nil {
		fields = append(fields, field("Cycle", issue.Cycle.Display()))
	}
	if issue.Estimate != nil {
		fields = append(fields, field("Estimate", issue.EstimateText()))
	}
	if len(issue.LabelNames()) > 0 {
		fields = append(fields, field("Labels", renderLabels(issue)))
	}
	if issue.DueDate != nil && !issue.DueDate.IsZero() {
		fields = append(fields, field("Due date", renderDate(issue.DueDate)))
	}

	return model.Embed{
		Title:       "New issue: " + issue.Ref(),
		Description: description,
		Color:       model.ColorSuccess,
		Fields:      fields,
		Footer:      footer(env.TypeName(), issueKey(issue)),
	}
}

func (f *Factory) issueUpdated(env *model.EventEnvelope, issue *model.Issue) model.Embed {
	var prior *model.Issue
	if env.PriorState != nil && env.PriorState.Kind == model.KindIssue {
		prior = env.PriorState.Issue
	}

	var changes []Change
	if prior != nil {
		changes = DiffIssues(prior, issue)
	}

	return model.Embed{
		Title:       "Issue updated: " + issue.Ref(),
		Description: renderChanges(changes, "Issue details updated"),
		Color:       model.ColorWarning,
		Fields: []model.EmbedField{
			field("Team", issue.Team.Display()),
			field("Status", issue.State.Display()),
			field("Assignee", issue.Assignee.Display(model.PlaceholderUnassigned)),
		},
		Footer: footer(env.TypeName(), issueKey(issue)),
	}
}

func (f *Factory) issueRemoved(env *model.EventEnvelope, issue *model.Issue) model.Embed {
	return model.Embed{
		Title:       "Issue removed: " + issue.Ref(),
		Description: fmt.Sprintf("Issue %q was removed from team %s.", issue.Ref(), issue.Team.Display()),
		Color:       model.ColorDanger,
		Fields: []model.EmbedField{
			field("Team", issue.Team.Display()),
			field("Last status", issue.State.Display()),
		},
		Footer: footer(env.TypeName(), issueKey(issue)),
	}
}

func issueKey(issue *model.Issue) string {
	if issue.Identifier != "" {
		return issue.Identifier
	}
	return issue.ID
}
