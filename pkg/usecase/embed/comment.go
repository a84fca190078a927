package embed

import (
	"fmt"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

func (f *Factory) commentEmbed(env *model.EventEnvelope, comment *model.Comment) model.Embed {
	var e model.Embed
	switch env.Action {
	case model.ActionCreate:
		body := preview(comment.BodyText(), descriptionPreview)
		if body == "" {
			body = "No content"
		}
		e = model.Embed{
			Title:       "New comment on " + comment.Issue.Display(),
			Description: body,
			Color:       model.ColorSuccess,
		}

	case model.ActionUpdate:
		var changes []Change
		if env.PriorState != nil && env.PriorState.Kind == model.KindComment && env.PriorState.Comment != nil {
			changes = DiffComments(env.PriorState.Comment, comment)
		}
		e = model.Embed{
			Title:       "Comment edited on " + comment.Issue.Display(),
			Description: renderChanges(changes, "Comment details updated"),
			Color:       model.ColorWarning,
		}

	case model.ActionRemove:
		e = model.Embed{
			Title: "Comment removed from " + comment.Issue.Display(),
			Description: fmt.Sprintf("A comment by %s on %q was removed.",
				comment.User.Display(model.PlaceholderUnknown), comment.Issue.Display()),
			Color: model.ColorDanger,
		}

	default:
		return f.genericEmbed(env)
	}

	var team *model.Team
	if comment.Issue != nil {
		team = comment.Issue.Team
	}
	e.Fields = []model.EmbedField{
		field("Author", comment.User.Display(model.PlaceholderUnknown)),
		field("Issue", comment.Issue.Display()),
		field("Team", team.Display()),
	}
	e.Footer = footer(env.TypeName(), comment.ID)

	return e
}
