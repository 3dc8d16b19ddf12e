// Package export writes session history in portable formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/pomo/internal/model"
)

// Format is an export file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat accepts yaml, yml or toml.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yaml", "yml", "":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (available: yaml, toml)", value)
	}
}

type document struct {
	User         string    `yaml:"user" toml:"user"`
	WorkingSecs  int       `yaml:"working_secs" toml:"working_secs"`
	BreakingSecs int       `yaml:"breaking_secs" toml:"breaking_secs"`
	Runs         []runItem `yaml:"runs" toml:"runs"`
}

type runItem struct {
	RunID            string `yaml:"run_id,omitempty" toml:"run_id,omitempty"`
	Date             string `yaml:"date" toml:"date"`
	WorkingTimeSecs  int32  `yaml:"working_time_secs" toml:"working_time_secs"`
	BreakingTimeSecs int32  `yaml:"breaking_time_secs" toml:"breaking_time_secs"`
}

// Write encodes the runs of one user to w.
func Write(w io.Writer, format Format, user string, runs []model.TimerRun) error {
	doc := document{
		User: user,
		Runs: make([]runItem, 0, len(runs)),
	}
	for _, run := range runs {
		doc.WorkingSecs += int(run.WorkingTimeSecs)
		doc.BreakingSecs += int(run.BreakingTimeSecs)
		doc.Runs = append(doc.Runs, runItem{
			RunID:            run.RunID,
			Date:             run.Date.Format("2006-01-02"),
			WorkingTimeSecs:  run.WorkingTimeSecs,
			BreakingTimeSecs: run.BreakingTimeSecs,
		})
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("flush yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}
