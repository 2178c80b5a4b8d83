package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/monitors/internal/config"
	"github.com/1broseidon/monitors/internal/monitor"
	"github.com/1broseidon/monitors/internal/platform"
)

func sampleInfos() []monitor.Info {
	return []monitor.Info{
		{
			Index:          0,
			Name:           "DP-1",
			Primary:        true,
			PhysicalWidth:  600,
			PhysicalHeight: 340,
			Unit:           monitor.UnitMillimeters,
			Current:        &monitor.ModeInfo{Width: 2560, Height: 1440, Refresh: 144, Current: true},
			Modes: []monitor.ModeInfo{
				{Width: 2560, Height: 1440, Refresh: 144, Current: true},
				{Width: 1920, Height: 1080, Refresh: 60},
			},
		},
		{
			Index: 1,
			Name:  "Display",
			Modes: []monitor.ModeInfo{{Width: 1024, Height: 768, Refresh: -1}},
		},
	}
}

func TestPrintMonitors_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := printMonitors(&buf, config.FormatTable, sampleInfos(), false); err != nil {
		t.Fatalf("printMonitors() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"NAME", "DP-1", "yes", "600x340 mm", "2560x1440@144", "Display"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "1920x1080@60") {
		t.Fatalf("table should not list every mode without --modes:\n%s", out)
	}

	buf.Reset()
	if err := printMonitors(&buf, config.FormatTable, sampleInfos(), true); err != nil {
		t.Fatalf("printMonitors() error: %v", err)
	}
	if !strings.Contains(buf.String(), "1920x1080@60") || !strings.Contains(buf.String(), "1024x768") {
		t.Fatalf("table with modes missing entries:\n%s", buf.String())
	}
}

func TestPrintMonitors_Structured(t *testing.T) {
	var buf bytes.Buffer
	if err := printMonitors(&buf, config.FormatJSON, sampleInfos(), false); err != nil {
		t.Fatalf("printMonitors(json) error: %v", err)
	}
	var fromJSON []monitor.Info
	if err := json.Unmarshal(buf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if len(fromJSON) != 2 || fromJSON[0].Current.Refresh != 144 || fromJSON[1].Current != nil {
		t.Fatalf("json output = %+v", fromJSON)
	}

	buf.Reset()
	if err := printMonitors(&buf, config.FormatYAML, sampleInfos(), false); err != nil {
		t.Fatalf("printMonitors(yaml) error: %v", err)
	}
	var fromYAML []monitor.Info
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml output: %v", err)
	}
	if len(fromYAML) != 2 || fromYAML[0].Unit != monitor.UnitMillimeters {
		t.Fatalf("yaml output = %+v", fromYAML)
	}
}

func TestPrintMonitors_Empty(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{config.FormatTable, "no monitors detected\n"},
		{config.FormatJSON, "[]\n"},
		{config.FormatYAML, "[]\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := printMonitors(&buf, tt.format, nil, false); err != nil {
			t.Fatalf("printMonitors(%s) error: %v", tt.format, err)
		}
		if buf.String() != tt.want {
			t.Fatalf("printMonitors(%s) = %q, want %q", tt.format, buf.String(), tt.want)
		}
	}
}

func TestSetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"local rejection", fmt.Errorf("%w: driver", platform.ErrModeRejected), exitRejected},
		{"local not found", platform.ErrModeNotFound, exitRejected},
		{"daemon rejection", errors.New("daemon error: Failed to set mode: mode switch rejected: x"), exitRejected},
		{"other", errors.New(`no monitor "VGA-1"`), 1},
	}
	for _, tt := range tests {
		if got := setExitCode(tt.err); got != tt.want {
			t.Fatalf("%s: setExitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPrintSnapshot(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printSnapshot(&buf, at, sampleInfos())
	want := "2026-03-01T12:00:00Z 0 DP-1 2560x1440@144 primary\n" +
		"2026-03-01T12:00:00Z 1 Display ?\n"
	if buf.String() != want {
		t.Fatalf("printSnapshot() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	printSnapshot(&buf, at, nil)
	if buf.String() != "2026-03-01T12:00:00Z no monitors\n" {
		t.Fatalf("printSnapshot(empty) = %q", buf.String())
	}
}
