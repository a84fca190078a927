package embed

import (
	"fmt"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

// genericEmbed handles every entity type without specific rules. It always yields a
// non-empty embed.
func (f *Factory) genericEmbed(env *model.EventEnvelope) model.Embed {
	typeName := env.TypeName()
	data := env.Data.Generic

	description := preview(data.Description(), descriptionPreview)
	if description == "" {
		noun := humanize(typeName)
		description = fmt.Sprintf("%s %s was %s.", capitalize(article(noun)), noun, env.Action.Past())
	}

	name := data.Name()
	if name == "" {
		name = model.PlaceholderUnknown
	}

	return model.Embed{
		Title:       fmt.Sprintf("%s %s", typeName, env.Action.Past()),
		Description: description,
		Color:       actionColor(env.Action),
		Fields: []model.EmbedField{
			field("Name", name),
			field("Type", typeName),
		},
		Footer: footer(typeName, data.String("id")),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
