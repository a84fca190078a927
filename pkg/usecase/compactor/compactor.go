// Package compactor rewrites messages so that they satisfy the sink's size limits.
package compactor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

const ellipsis = "..."

// Stats reports what a Compact call removed
type Stats struct {
	TruncatedTexts int
	DroppedFields  int
	DroppedEmbeds  int
	ShrunkEmbeds   int
}

// Compactor enforces Limits on messages
type Compactor struct {
	limits Limits
}

// New creates a Compactor with the given limits
func New(limits Limits) *Compactor {
	return &Compactor{limits: limits}
}

// Compact returns a new message that fits the limits. It is lossy and order
// preserving: earlier embeds are never sacrificed for later ones. The input is not
// modified.
func (c *Compactor) Compact(msg model.Message) model.Message {
	out, _ := c.CompactWithStats(msg)
	return out
}

// CompactWithStats is Compact and also reports what was removed
func (c *Compactor) CompactWithStats(msg model.Message) (model.Message, Stats) {
	var stats Stats
	l := c.limits

	out := model.Message{
		Content: truncate(msg.Content, l.Content, &stats),
	}

	embeds := make([]model.Embed, 0, len(msg.Embeds))
	for _, e := range msg.Embeds {
		embeds = append(embeds, c.compactEmbed(e, &stats))
	}

	if len(embeds) > l.EmbedsPerMessage {
		stats.DroppedEmbeds += len(embeds) - l.EmbedsPerMessage
		embeds = embeds[:l.EmbedsPerMessage]
	}

	kept := make([]model.Embed, 0, len(embeds))
	total := 0
	for i, e := range embeds {
		size := EmbedSize(e)
		if total+size <= l.TotalEmbedChars {
			kept = append(kept, e)
			total += size
			continue
		}

		remaining := l.TotalEmbedChars - total
		shrunk := shrink(e, remaining, &stats)
		if size := EmbedSize(shrunk); size <= remaining && !isEmpty(shrunk) {
			kept = append(kept, shrunk)
			total += size
			stats.ShrunkEmbeds++
			continue
		}

		stats.DroppedEmbeds += len(embeds) - i
		break
	}

	if len(kept) > 0 {
		out.Embeds = kept
	}
	return out, stats
}

func (c *Compactor) compactEmbed(e model.Embed, stats *Stats) model.Embed {
	l := c.limits
	out := e.Clone()

	out.Title = truncate(e.Title, l.Title, stats)
	out.Description = truncate(e.Description, l.Description, stats)
	if e.Footer != nil {
		out.Footer.Text = truncate(e.Footer.Text, l.Footer, stats)
	}
	if e.Author != nil {
		out.Author.Name = truncate(e.Author.Name, l.AuthorName, stats)
	}

	out.Fields = compactFields(e.Fields, l.FieldName, l.FieldValue, l.FieldsPerEmbed, stats)
	return out
}

// compactFields truncates names and values, drops fields left empty, and caps the count
func compactFields(fields []model.EmbedField, nameLimit, valueLimit, maxFields int, stats *Stats) []model.EmbedField {
	if len(fields) == 0 {
		return nil
	}

	out := make([]model.EmbedField, 0, len(fields))
	for _, f := range fields {
		name := truncate(f.Name, nameLimit, stats)
		value := truncate(f.Value, valueLimit, stats)
		if strings.TrimSpace(name) == "" || strings.TrimSpace(value) == "" {
			stats.DroppedFields++
			continue
		}
		out = append(out, model.EmbedField{Name: name, Value: value, Inline: f.Inline})
	}

	if len(out) > maxFields {
		stats.DroppedFields += len(out) - maxFields
		out = out[:maxFields]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// shrink reduces an embed that does not fit into the remaining budget
func shrink(e model.Embed, remaining int, stats *Stats) model.Embed {
	out := e.Clone()
	if remaining <= 0 {
		return out
	}

	out.Description = truncate(e.Description, int(float64(remaining)*shrinkDescriptionRatio), stats)
	out.Fields = compactFields(e.Fields, shrinkFieldName, shrinkFieldValue, shrinkMaxFields, stats)
	return out
}

// EmbedSize is the number of characters an embed contributes to the total limit
func EmbedSize(e model.Embed) int {
	n := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
	if e.Footer != nil {
		n += utf8.RuneCountInString(e.Footer.Text)
	}
	if e.Author != nil {
		n += utf8.RuneCountInString(e.Author.Name)
	}
	for _, f := range e.Fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	return n
}

func isEmpty(e model.Embed) bool {
	return e.Title == "" && e.Description == "" && len(e.Fields) == 0
}

// truncate cuts s to at most limit runes. It prefers the last whitespace before the cut
// point when that boundary lies beyond boundaryRatio of the cut point, and appends an
// ellipsis whenever it cuts.
func truncate(s string, limit int, stats *Stats) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	stats.TruncatedTexts++

	if limit <= len(ellipsis) {
		runes := []rune(s)
		if limit <= 0 {
			return ""
		}
		return string(runes[:limit])
	}

	runes := []rune(s)
	cut := limit - len(ellipsis)

	boundary := -1
	for i := cut; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			boundary = i
			break
		}
	}
	if boundary > int(float64(cut)*boundaryRatio) {
		cut = boundary
	}

	head := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
	return head + ellipsis
}
