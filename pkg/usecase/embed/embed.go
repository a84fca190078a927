// Package embed turns decoded events into notification messages: a plain-text summary
// line plus one rich embed whose content depends on entity type and action.
package embed

import (
	"strings"
	"time"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

const (
	// DefaultLinkBase is the web app root used to build deep links
	DefaultLinkBase = "https://linear.app"

	// descriptionPreview bounds entity descriptions rendered into create embeds
	descriptionPreview = 300
)

// Factory builds messages from envelopes
type Factory struct {
	linkBase string
}

// Option configures a Factory
type Option func(*Factory)

// WithLinkBase sets the root URL used for fallback deep links, e.g.
// "https://linear.app/acme". An empty value disables fallback links.
func WithLinkBase(base string) Option {
	return func(f *Factory) {
		f.linkBase = strings.TrimRight(base, "/")
	}
}

// New creates a Factory
func New(opts ...Option) *Factory {
	f := &Factory{linkBase: DefaultLinkBase}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Transform builds the message for env. It never fails for a decoded envelope: entity
// types without specific rules use the generic embed.
func (f *Factory) Transform(env *model.EventEnvelope) model.Message {
	var e model.Embed
	switch env.Data.Kind {
	case model.KindIssue:
		e = f.issueEmbed(env, orEmptyIssue(env.Data.Issue))
	case model.KindComment:
		e = f.commentEmbed(env, orEmptyComment(env.Data.Comment))
	default:
		e = f.genericEmbed(env)
	}

	if e.Color == 0 {
		e.Color = actionColor(env.Action)
	}
	if e.URL == "" {
		e.URL = f.entityURL(env)
	}
	if name := env.Actor.DisplayName(); name != "" {
		e.Author = &model.EmbedAuthor{Name: name, URL: env.Actor.URL}
	}
	if !env.OccurredAt.IsZero() {
		e.Timestamp = env.OccurredAt.UTC().Format(time.RFC3339)
	}

	return model.Message{
		Content: f.Summary(env),
		Embeds:  []model.Embed{e},
	}
}

func actionColor(action model.Action) int {
	switch action {
	case model.ActionCreate:
		return model.ColorSuccess
	case model.ActionUpdate:
		return model.ColorWarning
	case model.ActionRemove:
		return model.ColorDanger
	default:
		return model.ColorInfo
	}
}

func footer(typeName, ref string) *model.EmbedFooter {
	if ref == "" {
		return &model.EmbedFooter{Text: typeName}
	}
	return &model.EmbedFooter{Text: typeName + " • " + ref}
}

func field(name, value string) model.EmbedField {
	return model.EmbedField{Name: name, Value: value, Inline: true}
}

func orEmptyIssue(i *model.Issue) *model.Issue {
	if i == nil {
		return &model.Issue{}
	}
	return i
}

func orEmptyComment(c *model.Comment) *model.Comment {
	if c == nil {
		return &model.Comment{}
	}
	return c
}
