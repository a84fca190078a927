package compactor

// Limits are the hard size ceilings enforced by the sink. Lengths count runes.
type Limits struct {
	Content          int
	Title            int
	Description      int
	FieldName        int
	FieldValue       int
	Footer           int
	AuthorName       int
	FieldsPerEmbed   int
	EmbedsPerMessage int
	TotalEmbedChars  int
}

// DefaultLimits are the chat sink's documented limits
var DefaultLimits = Limits{
	Content:          2000,
	Title:            256,
	Description:      4096,
	FieldName:        256,
	FieldValue:       1024,
	Footer:           2048,
	AuthorName:       256,
	FieldsPerEmbed:   25,
	EmbedsPerMessage: 10,
	TotalEmbedChars:  6000,
}

// Shrink parameters applied to an embed that does not fit the remaining total budget
const (
	shrinkDescriptionRatio = 0.6
	shrinkMaxFields        = 5
	shrinkFieldName        = 64
	shrinkFieldValue       = 128
)

// boundaryRatio is how far back from the cut point a word boundary may be used
const boundaryRatio = 0.8
