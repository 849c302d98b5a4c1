package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoa/internal/domain"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "LINE", cfg.AppTitle)
	assert.True(t, cfg.Run.DryRun)
	assert.Len(t, cfg.Sections, 2)
}

func TestValidateClampsConfidences(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vision.Confidence = 1.7
	cfg.Vision.ArrowLadder = []float64{1.2, 0.8, 0.1}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.98, cfg.Vision.Confidence)
	assert.Equal(t, []float64{0.98, 0.8, 0.55}, cfg.Vision.ArrowLadder)
}

func TestValidateRejectsBadRunSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero friend limit", func(c *Config) { c.Run.FriendLimit = 0 }},
		{"negative delay", func(c *Config) { c.Run.DelaySeconds = -1 }},
		{"negative throttle", func(c *Config) { c.Run.ThrottleMin = -0.5 }},
		{"inverted throttle window", func(c *Config) { c.Run.ThrottleMin = 3; c.Run.ThrottleMax = 1 }},
		{"bad section state", func(c *Config) { c.Sections[0].Desired = "sideways" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoa.toml")
	svc := NewConfigService()

	cfg := DefaultConfig()
	cfg.Run.Message = "hello there"
	cfg.Run.FriendLimit = 42
	cfg.Vision.Confidence = 0.91
	cfg.Sections = append(cfg.Sections, SectionSetting{Name: "favorites", Template: "fav-header", Desired: "expanded"})
	require.NoError(t, svc.SaveToPath(cfg, path))

	loaded, err := svc.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Run.Message, loaded.Run.Message)
	assert.Equal(t, 42, loaded.Run.FriendLimit)
	assert.Equal(t, 0.91, loaded.Vision.Confidence)
	assert.Len(t, loaded.Sections, 3)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("run = { friend_limit = -5 }"), 0644))

	_, err := NewConfigService().LoadFromPath(path)
	assert.Error(t, err)
}

func TestSidebarSections(t *testing.T) {
	cfg := DefaultConfig()
	sections := cfg.SidebarSections()
	require.Len(t, sections, 2)
	assert.Equal(t, domain.SidebarSection{
		Name:           "groups",
		HeaderTemplate: "group-header",
		Desired:        domain.StateCollapsed,
	}, sections[0])
	assert.Equal(t, domain.StateExpanded, sections[1].Desired)
}

func TestParseSectionState(t *testing.T) {
	s, err := ParseSectionState("expanded")
	require.NoError(t, err)
	assert.Equal(t, domain.StateExpanded, s)

	s, err = ParseSectionState("collapsed")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCollapsed, s)

	_, err = ParseSectionState("open")
	assert.Error(t, err)
}
