package model

// Message is the notification sent to the sink: a plain-text summary line plus
// structured blocks (embeds).
type Message struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds"`
}

// Embed is one rich structured block of a message
type Embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField is a named value inside an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the small text at the bottom of an embed
type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedAuthor is shown above the embed title
type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// Clone returns a deep copy of the message
func (m Message) Clone() Message {
	out := Message{Content: m.Content}
	if m.Embeds != nil {
		out.Embeds = make([]Embed, len(m.Embeds))
		for i, e := range m.Embeds {
			out.Embeds[i] = e.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the embed
func (e Embed) Clone() Embed {
	out := e
	if e.Fields != nil {
		out.Fields = make([]EmbedField, len(e.Fields))
		copy(out.Fields, e.Fields)
	}
	if e.Footer != nil {
		f := *e.Footer
		out.Footer = &f
	}
	if e.Author != nil {
		a := *e.Author
		out.Author = &a
	}
	return out
}

// Sink colors
const (
	ColorSuccess = 0x57F287
	ColorWarning = 0xFEE75C
	ColorDanger  = 0xED4245
	ColorInfo    = 0x5865F2
)
