package embed

import (
	"net/url"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

// entityURL picks the link for the embed title: the envelope URL, then the entity's own
// URL, then a derived fallback.
func (f *Factory) entityURL(env *model.EventEnvelope) string {
	if env.SourceURL != "" {
		return env.SourceURL
	}

	switch env.Data.Kind {
	case model.KindIssue:
		if u := orEmptyIssue(env.Data.Issue).URL; u != "" {
			return u
		}
	case model.KindComment:
		if u := orEmptyComment(env.Data.Comment).URL; u != "" {
			return u
		}
	default:
		if u := env.Data.Generic.String("url"); u != "" {
			return u
		}
	}

	return f.FallbackURL(env)
}

// FallbackURL derives a deep link per entity type. It returns an empty string when
// no link base is configured.
func (f *Factory) FallbackURL(env *model.EventEnvelope) string {
	if f.linkBase == "" {
		return ""
	}

	switch env.Data.Kind {
	case model.KindIssue:
		issue := orEmptyIssue(env.Data.Issue)
		if key := issueKey(issue); key != "" {
			return f.link("issue", key)
		}
		return f.linkBase

	case model.KindComment:
		comment := orEmptyComment(env.Data.Comment)
		key := comment.IssueID
		if comment.Issue != nil {
			if comment.Issue.Identifier != "" {
				key = comment.Issue.Identifier
			} else if comment.Issue.ID != "" {
				key = comment.Issue.ID
			}
		}
		if key == "" {
			return f.linkBase
		}
		link := f.link("issue", key)
		if comment.ID != "" {
			link += "#comment-" + comment.ID
		}
		return link
	}

	data := env.Data.Generic
	switch env.EntityType {
	case model.EntityProject:
		if key := firstNonEmpty(data.String("slugId"), data.String("id")); key != "" {
			return f.link("project", key)
		}
	case model.EntityTeam:
		if key := firstNonEmpty(data.String("key"), data.String("id")); key != "" {
			return f.link("team", key)
		}
	case model.EntityDocument:
		if key := firstNonEmpty(data.String("slugId"), data.String("id")); key != "" {
			return f.link("document", key)
		}
	case model.EntityUser:
		if key := firstNonEmpty(data.String("displayName"), data.String("id")); key != "" {
			return f.link("profiles", key)
		}
	case model.EntityIssueLabel:
		return f.link("settings", "labels")
	}

	return f.linkBase
}

func (f *Factory) link(kind, key string) string {
	return f.linkBase + "/" + kind + "/" + url.PathEscape(key)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
