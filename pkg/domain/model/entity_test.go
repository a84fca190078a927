package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/courier/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestReferencePlaceholders(t *testing.T) {
	var (
		state    *model.State
		user     *model.User
		team     *model.Team
		project  *model.Project
		cycle    *model.Cycle
		priority *model.Priority
	)

	gt.Equal(t, state.Display(), "Unknown")
	gt.Equal(t, user.Display(model.PlaceholderUnassigned), "Unassigned")
	gt.Equal(t, team.Display(), "Unknown")
	gt.Equal(t, project.Display(), "No project")
	gt.Equal(t, cycle.Display(), "No cycle")
	gt.Equal(t, priority.Display(), "No priority")

	gt.Equal(t, (&model.State{}).Display(), "Unknown")
	gt.Equal(t, (&model.User{Email: "a@example.com"}).Display("x"), "a@example.com")
	gt.Equal(t, (&model.Team{Key: "ENG"}).Display(), "ENG")
	n := 12.0
	gt.Equal(t, (&model.Cycle{Number: &n}).Display(), "Cycle 12")
}

func TestIssuePriority(t *testing.T) {
	two := 2.0
	zero := 0.0
	tests := []struct {
		name  string
		issue *model.Issue
		want  string
	}{
		{name: "absent", issue: &model.Issue{}, want: "No priority"},
		{name: "zero", issue: &model.Issue{PriorityValue: &zero}, want: "No priority"},
		{name: "value only", issue: &model.Issue{PriorityValue: &two}, want: "High"},
		{name: "label wins", issue: &model.Issue{PriorityValue: &two, PriorityLabel: "P2"}, want: "P2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Equal(t, tt.issue.Priority().Display(), tt.want)
		})
	}
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "RFC3339", input: `"2026-10-19T10:00:00.000Z"`, want: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)},
		{name: "date only", input: `"2026-10-19"`, want: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		{name: "unix ms", input: `1792404000000`, want: time.UnixMilli(1792404000000).UTC()},
		{name: "unix ms with exponent", input: `1.7e12`, want: time.UnixMilli(1700000000000).UTC()},
		{name: "unix ms with fraction", input: `1700000000000.0`, want: time.UnixMilli(1700000000000).UTC()},
		{name: "null", input: `null`, want: time.Time{}},
		{name: "fractional ms", input: `1700000000000.5`, wantErr: true},
		{name: "garbage", input: `"yesterday"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts model.Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.True(t, ts.Equal(tt.want))
		})
	}
}

func TestParseUnixMilli(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "1792404000000", want: 1792404000000},
		{input: "1.7e12", want: 1700000000000},
		{input: "1700000000000.0", want: 1700000000000},
		{input: "-1000", want: -1000},
		{input: "1e400", wantErr: true},
		{input: "12.5", wantErr: true},
		{input: `"1700000000000"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := model.ParseUnixMilli(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, got, tt.want)
		})
	}
}

func TestParseEntityType(t *testing.T) {
	gt.Equal(t, model.ParseEntityType("Issue"), model.EntityIssue)
	gt.Equal(t, model.ParseEntityType("IssueLabel"), model.EntityIssueLabel)
	gt.Equal(t, model.ParseEntityType("CustomerNeed"), model.EntityOther)
	gt.Equal(t, model.ParseEntityType(""), model.EntityOther)
}

func TestMessage_Clone(t *testing.T) {
	orig := model.Message{
		Content: "hello",
		Embeds: []model.Embed{{
			Title:  "t",
			Fields: []model.EmbedField{{Name: "a", Value: "b"}},
			Footer: &model.EmbedFooter{Text: "f"},
		}},
	}

	cloned := orig.Clone()
	cloned.Embeds[0].Fields[0].Value = "changed"
	cloned.Embeds[0].Footer.Text = "changed"

	gt.Equal(t, orig.Embeds[0].Fields[0].Value, "b")
	gt.Equal(t, orig.Embeds[0].Footer.Text, "f")
}
