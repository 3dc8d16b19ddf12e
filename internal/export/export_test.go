package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/pomo/internal/model"
)

func sampleRuns() []model.TimerRun {
	return []model.TimerRun{
		{RunID: "r1", User: "alice", WorkingTimeSecs: 1200, BreakingTimeSecs: 300, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{RunID: "r2", User: "alice", WorkingTimeSecs: 600, BreakingTimeSecs: 60, Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatYAML, "YML": FormatYAML, "yaml": FormatYAML, " toml ": FormatTOML}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q): expected %q, got %q", in, want, got)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatalf("expected error for csv")
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, "alice", sampleRuns()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var doc document
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, buf.String())
	}
	if doc.User != "alice" || doc.WorkingSecs != 1800 || doc.BreakingSecs != 360 {
		t.Fatalf("unexpected totals: %+v", doc)
	}
	if len(doc.Runs) != 2 || doc.Runs[1].Date != "2024-01-03" {
		t.Fatalf("unexpected runs: %+v", doc.Runs)
	}
}

func TestWriteTOMLEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatTOML, "bob", nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	var doc document
	if _, err := toml.Decode(buf.String(), &doc); err != nil {
		t.Fatalf("decode toml: %v\n%s", err, buf.String())
	}
	if doc.User != "bob" || len(doc.Runs) != 0 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}
