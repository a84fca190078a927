package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/courier/pkg/utils/signature"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
)

const sampleEvent = `{"action":"create","type":"Issue","actor":{"name":"Alice"},"data":{"id":"issue-1","identifier":"ENG-1","title":"Fix login bug"}}`

func writeEvent(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.json")
	gt.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runCommand(t *testing.T, sub *cli.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := &cli.Command{
		Name:     "courier",
		Writer:   &buf,
		Commands: []*cli.Command{sub},
	}
	err := root.Run(context.Background(), append([]string{"courier"}, args...))
	return buf.String(), err
}

func TestSignCommand(t *testing.T) {
	path := writeEvent(t, sampleEvent)

	out, err := runCommand(t, cmdSign(), "sign", "--source-secret", "s3cr3t", "--timestamp", "1790000000000", path)
	gt.NoError(t, err)
	gt.Equal(t, strings.TrimSpace(out), signature.Sign([]byte(sampleEvent), "s3cr3t", 1790000000000))
}

func TestSignCommand_DefaultsToSignedTimestamp(t *testing.T) {
	body := `{"action":"create","type":"Issue","webhookTimestamp":1792404000000,"data":{"id":"issue-1"}}`
	path := writeEvent(t, body)

	out, err := runCommand(t, cmdSign(), "sign", "--source-secret", "s3cr3t", path)
	gt.NoError(t, err)

	ts, _, err := signature.ParseHeader(strings.TrimSpace(out))
	gt.NoError(t, err)
	gt.Equal(t, ts, int64(1792404000000))
}

func TestRenderCommand(t *testing.T) {
	path := writeEvent(t, sampleEvent)

	out, err := runCommand(t, cmdRender(), "render", "--sink-username", "relay-bot", path)
	gt.NoError(t, err)

	var payload struct {
		Username string `json:"username"`
		Content  string `json:"content"`
		Embeds   []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"embeds"`
	}
	gt.NoError(t, json.Unmarshal([]byte(out), &payload))
	gt.Equal(t, payload.Username, "relay-bot")
	gt.Equal(t, payload.Content, "Alice created issue ENG-1: Fix login bug")
	gt.A(t, payload.Embeds).Length(1)
	gt.Equal(t, payload.Embeds[0].URL, "https://linear.app/issue/ENG-1")
}

func TestRenderCommand_InvalidEvent(t *testing.T) {
	path := writeEvent(t, `{"action":"explode"}`)

	_, err := runCommand(t, cmdRender(), "render", path)
	gt.Error(t, err)
}

func TestReadInput_MissingFile(t *testing.T) {
	_, err := readInput(filepath.Join(t.TempDir(), "missing.json"))
	gt.Error(t, err)
}
