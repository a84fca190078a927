// Package decoder validates raw event bodies and decodes them into envelopes.
package decoder

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/courier/pkg/domain/model"
	"github.com/m-mizutani/courier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/envelope.json
var envelopeSchema []byte

const schemaURL = "https://courier.local/schema/envelope.json"

// Decoder turns raw JSON bodies into EventEnvelope values
type Decoder struct {
	schema  *jsonschema.Schema
	printer *message.Printer
	now     func() time.Time
}

// Option configures a Decoder
type Option func(*Decoder)

// WithClock replaces time.Now, used when the envelope carries no timestamp
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) {
		d.now = now
	}
}

// New compiles the embedded envelope schema
func New(opts ...Option) (*Decoder, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(envelopeSchema))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse envelope schema")
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to add envelope schema")
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compile envelope schema")
	}

	d := &Decoder{
		schema:  compiled,
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

type wireEnvelope struct {
	Action           string           `json:"action"`
	Type             string           `json:"type"`
	Data             json.RawMessage  `json:"data"`
	UpdatedFrom      json.RawMessage  `json:"updatedFrom"`
	CreatedAt        *model.Timestamp `json:"createdAt"`
	URL              *string          `json:"url"`
	WebhookID        *string          `json:"webhookId"`
	WebhookTimestamp json.RawMessage  `json:"webhookTimestamp"`
	OrganizationID   *string          `json:"organizationId"`
	Actor            *model.Actor     `json:"actor"`
}

// Decode parses and validates raw. Failures are *model.ValidationError tagged with
// types.ErrTagValidation.
func (d *Decoder) Decode(raw []byte) (*model.EventEnvelope, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, validationError(model.ValidationMalformed, model.ValidationIssue{
			Path:   "",
			Reason: "body is not valid JSON: " + err.Error(),
		})
	}

	if err := d.schema.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, goerr.Wrap(err, "failed to run schema validation")
		}
		return nil, validationError(model.ValidationInvalid, d.collectIssues(ve)...)
	}

	var wire wireEnvelope
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, validationError(model.ValidationInvalid, unmarshalIssue("", err))
	}

	entityType := model.ParseEntityType(wire.Type)
	data, err := decodeEntity(entityType, wire.Data)
	if err != nil {
		return nil, validationError(model.ValidationInvalid, unmarshalIssue("/data", err))
	}

	env := &model.EventEnvelope{
		Action:         model.Action(wire.Action),
		EntityType:     entityType,
		RawType:        wire.Type,
		Data:           data,
		SourceURL:      deref(wire.URL),
		WebhookID:      deref(wire.WebhookID),
		OrganizationID: deref(wire.OrganizationID),
		Actor:          wire.Actor,
	}

	if env.Action == model.ActionUpdate && !isNull(wire.UpdatedFrom) {
		prior, err := decodeEntity(entityType, wire.UpdatedFrom)
		if err != nil {
			return nil, validationError(model.ValidationInvalid, unmarshalIssue("/updatedFrom", err))
		}
		env.PriorState = &prior
	}

	if wire.CreatedAt != nil && !wire.CreatedAt.IsZero() {
		env.OccurredAt = wire.CreatedAt.Time
	} else {
		env.OccurredAt = d.now().UTC()
	}
	if !isNull(wire.WebhookTimestamp) {
		ts, err := model.ParseUnixMilli(string(wire.WebhookTimestamp))
		if err != nil {
			return nil, validationError(model.ValidationInvalid, unmarshalIssue("/webhookTimestamp", err))
		}
		env.WebhookTimestamp = ts
	}

	env.DeliveryID = env.WebhookID
	if env.DeliveryID == "" {
		env.DeliveryID = uuid.NewString()
	}

	return env, nil
}

func decodeEntity(entityType model.EntityType, raw json.RawMessage) (model.EntityData, error) {
	switch entityType {
	case model.EntityIssue:
		var issue model.Issue
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &issue); err != nil {
				return model.EntityData{}, err
			}
		}
		return model.IssueData(&issue), nil

	case model.EntityComment:
		var comment model.Comment
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &comment); err != nil {
				return model.EntityData{}, err
			}
		}
		return model.CommentData(&comment), nil

	default:
		fields := map[string]any{}
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &fields); err != nil {
				return model.EntityData{}, err
			}
		}
		return model.GenericData(fields), nil
	}
}

func (d *Decoder) collectIssues(ve *jsonschema.ValidationError) []model.ValidationIssue {
	var issues []model.ValidationIssue
	seen := map[model.ValidationIssue]bool{}

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		issue := model.ValidationIssue{
			Path:   jsonPointer(e.InstanceLocation),
			Reason: e.ErrorKind.LocalizedString(d.printer),
		}
		if !seen[issue] {
			seen[issue] = true
			issues = append(issues, issue)
		}
	}
	walk(ve)

	return issues
}

func validationError(kind model.ValidationKind, issues ...model.ValidationIssue) error {
	return goerr.Wrap(&model.ValidationError{Kind: kind, Issues: issues},
		"event payload rejected",
		goerr.T(types.ErrTagValidation),
		goerr.V("kind", kind),
	)
}

func unmarshalIssue(base string, err error) model.ValidationIssue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return model.ValidationIssue{
			Path:   base + "/" + strings.ReplaceAll(typeErr.Field, ".", "/"),
			Reason: "expected " + typeErr.Type.String() + ", got " + typeErr.Value,
		}
	}
	return model.ValidationIssue{Path: base, Reason: err.Error()}
}

func jsonPointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	escaped := make([]string, len(tokens))
	for i, t := range tokens {
		t = strings.ReplaceAll(t, "~", "~0")
		escaped[i] = strings.ReplaceAll(t, "/", "~1")
	}
	return "/" + strings.Join(escaped, "/")
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
