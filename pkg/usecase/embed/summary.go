package embed

import (
	"fmt"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

// Summary builds the plain-text line sent as message content. When the actor's name is
// unavailable the sentence is phrased in the passive voice.
func (f *Factory) Summary(env *model.EventEnvelope) string {
	actor := env.Actor.DisplayName()

	switch env.Data.Kind {
	case model.KindIssue:
		subject := issueSubject(orEmptyIssue(env.Data.Issue))
		if actor == "" {
			return fmt.Sprintf("Issue %s was %s", subject, env.Action.Past())
		}
		return fmt.Sprintf("%s %s issue %s", actor, env.Action.Past(), subject)

	case model.KindComment:
		target := orEmptyComment(env.Data.Comment).Issue.Display()
		return commentSummary(actor, env.Action, target)

	default:
		return genericSummary(actor, env)
	}
}

func issueSubject(issue *model.Issue) string {
	if issue.Identifier == "" {
		return issue.Name()
	}
	return issue.Identifier + ": " + issue.Name()
}

func commentSummary(actor string, action model.Action, target string) string {
	if actor == "" {
		switch action {
		case model.ActionCreate:
			return "New comment on " + target
		case model.ActionUpdate:
			return "A comment on " + target + " was edited"
		case model.ActionRemove:
			return "A comment on " + target + " was deleted"
		default:
			return "A comment on " + target + " changed"
		}
	}

	switch action {
	case model.ActionCreate:
		return actor + " commented on " + target
	case model.ActionUpdate:
		return actor + " edited a comment on " + target
	case model.ActionRemove:
		return actor + " deleted a comment on " + target
	default:
		return actor + " changed a comment on " + target
	}
}

func genericSummary(actor string, env *model.EventEnvelope) string {
	noun := humanize(env.TypeName())
	name := env.Data.Generic.Name()

	if actor == "" {
		if name == "" {
			return fmt.Sprintf("%s %s was %s", capitalize(article(noun)), noun, env.Action.Past())
		}
		return fmt.Sprintf("%s %s was %s", capitalize(noun), name, env.Action.Past())
	}

	if name == "" {
		return fmt.Sprintf("%s %s %s %s", actor, env.Action.Past(), article(noun), noun)
	}
	return fmt.Sprintf("%s %s %s %s", actor, env.Action.Past(), noun, name)
}
