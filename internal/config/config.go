package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"autoa/internal/domain"
)

// Config represents the application configuration. Every empirically tuned
// screen-geometry constant lives here rather than in code: the values were
// measured against one display scale and do not necessarily generalize.
type Config struct {
	Version   int    `toml:"version"`
	AppTitle  string `toml:"app_title"` // window title hint of the target app
	Templates string `toml:"templates_dir"`
	Reports   string `toml:"reports_dir"`
	Debug     bool   `toml:"debug"` // save per-match debug crops

	Recipients string `toml:"recipients_file"` // optional CSV of display names

	Run      RunSettings      `toml:"run"`
	Vision   VisionSettings   `toml:"vision"`
	Geometry GeometrySettings `toml:"geometry"`

	Sections []SectionSetting `toml:"sections"`
}

// RunSettings holds the user-facing execution parameters.
type RunSettings struct {
	FriendLimit  int     `toml:"friend_limit"`
	Message      string  `toml:"message"`
	DelaySeconds float64 `toml:"delay_seconds"` // per-contact delay
	DryRun       bool    `toml:"dry_run"`
	ThrottleMin  float64 `toml:"throttle_min_seconds"`
	ThrottleMax  float64 `toml:"throttle_max_seconds"`
	SettleMillis int     `toml:"settle_ms"` // wait after click, UI animation
	PauseMillis  int     `toml:"pause_ms"`  // short wait between UI actions
}

// VisionSettings controls template matching.
type VisionSettings struct {
	Confidence        float64   `toml:"confidence"`         // nominal match confidence
	FallbackThreshold float64   `toml:"fallback_threshold"` // grayscale correlation last resort
	ArrowLadder       []float64 `toml:"arrow_ladder"`       // descending confidences for arrow detection
}

// GeometrySettings holds search-region and plausibility tuning.
type GeometrySettings struct {
	ArrowPadLeft     int `toml:"arrow_pad_left"`     // region extends this far left of the anchor
	ArrowExtendRight int `toml:"arrow_extend_right"` // and this far beyond the anchor width
	ArrowPadTop      int `toml:"arrow_pad_top"`
	ArrowPadBottom   int `toml:"arrow_pad_bottom"`
	MaxArrowDX       int `toml:"max_arrow_dx"` // plausibility: horizontal distance from anchor
	MaxArrowDY       int `toml:"max_arrow_dy"` // plausibility: vertical distance from anchor

	SidebarExtraWidth   int `toml:"sidebar_extra_width"`   // beyond the friend-list anchor right edge
	SidebarDefaultWidth int `toml:"sidebar_default_width"` // when the anchor is not found
	SidebarBottomMargin int `toml:"sidebar_bottom_margin"` // excluded so the taskbar is never matched
	SidebarMinHeight    int `toml:"sidebar_min_height"`

	FirstRowOffsetX int `toml:"first_row_offset_x"` // from friend header center to the first row
	FirstRowOffsetY int `toml:"first_row_offset_y"` // below the friend header bottom
	RowStride       int `toml:"row_stride"`         // estimated row height, used to re-focus the list

	ArrowEstimateInset int `toml:"arrow_estimate_inset"` // from header right edge when detection yields no box
	ArrowEstimateSize  int `toml:"arrow_estimate_size"`
}

// SectionSetting is the TOML form of a domain.SidebarSection. File, when
// set, overrides which image under the templates directory backs Template.
type SectionSetting struct {
	Name     string `toml:"name"`
	Template string `toml:"template"`
	File     string `toml:"file,omitempty"`
	Desired  string `toml:"desired"` // "expanded" or "collapsed"
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service rooted at the default path.
func NewConfigService() ConfigService {
	return &configService{filePath: "autoa.toml"}
}

// Load loads the configuration from the default path, falling back to
// defaults when no file exists yet.
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to the default path.
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate normalizes and checks the configuration. Confidence values are
// clamped to [0.55, 0.98]; the matcher rejects anything outside that band.
func (c *Config) Validate() error {
	c.Vision.Confidence = ClampConfidence(c.Vision.Confidence)
	for i, v := range c.Vision.ArrowLadder {
		c.Vision.ArrowLadder[i] = ClampConfidence(v)
	}
	if c.Vision.FallbackThreshold <= 0 {
		c.Vision.FallbackThreshold = 0.55
	}

	if c.Run.FriendLimit <= 0 {
		return fmt.Errorf("friend_limit must be positive, got %d", c.Run.FriendLimit)
	}
	if c.Run.DelaySeconds < 0 {
		return fmt.Errorf("delay_seconds must not be negative, got %g", c.Run.DelaySeconds)
	}
	if c.Run.ThrottleMin < 0 || c.Run.ThrottleMax < 0 {
		return fmt.Errorf("throttle bounds must not be negative")
	}
	if c.Run.ThrottleMin > c.Run.ThrottleMax {
		return fmt.Errorf("throttle_min_seconds %g exceeds throttle_max_seconds %g",
			c.Run.ThrottleMin, c.Run.ThrottleMax)
	}

	for _, s := range c.Sections {
		if _, err := ParseSectionState(s.Desired); err != nil {
			return fmt.Errorf("section %q: %w", s.Name, err)
		}
	}
	return nil
}

// ClampConfidence forces a confidence into the band the matcher accepts.
func ClampConfidence(v float64) float64 {
	if v < 0.55 {
		return 0.55
	}
	if v > 0.98 {
		return 0.98
	}
	return v
}

// ParseSectionState converts the TOML string form to a domain state.
func ParseSectionState(s string) (domain.SectionState, error) {
	switch s {
	case "expanded":
		return domain.StateExpanded, nil
	case "collapsed":
		return domain.StateCollapsed, nil
	}
	return domain.StateUnknown, fmt.Errorf("invalid section state %q", s)
}

// SidebarSections converts the configured sections to domain values.
func (c *Config) SidebarSections() []domain.SidebarSection {
	out := make([]domain.SidebarSection, 0, len(c.Sections))
	for _, s := range c.Sections {
		state, err := ParseSectionState(s.Desired)
		if err != nil {
			continue // Validate rejects these before a run
		}
		out = append(out, domain.SidebarSection{
			Name:           s.Name,
			HeaderTemplate: s.Template,
			Desired:        state,
		})
	}
	return out
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:   1,
		AppTitle:  "LINE",
		Templates: "templates",
		Reports:   "reports",

		Run: RunSettings{
			FriendLimit:  10,
			DelaySeconds: 2,
			DryRun:       true,
			ThrottleMin:  1.0,
			ThrottleMax:  2.0,
			SettleMillis: 800,
			PauseMillis:  350,
		},

		Vision: VisionSettings{
			Confidence:        0.88,
			FallbackThreshold: 0.55,
			ArrowLadder:       []float64{0.85, 0.80, 0.75, 0.70, 0.65, 0.60},
		},

		Geometry: GeometrySettings{
			ArrowPadLeft:     50,
			ArrowExtendRight: 150,
			ArrowPadTop:      10,
			ArrowPadBottom:   20,
			MaxArrowDX:       350,
			MaxArrowDY:       80,

			SidebarExtraWidth:   1000,
			SidebarDefaultWidth: 1100,
			SidebarBottomMargin: 80,
			SidebarMinHeight:    400,

			FirstRowOffsetX: 40,
			FirstRowOffsetY: 20,
			RowStride:       50,

			ArrowEstimateInset: 40,
			ArrowEstimateSize:  28,
		},

		Sections: []SectionSetting{
			{Name: "groups", Template: "group-header", Desired: "collapsed"},
			{Name: "friends", Template: "friend-header", Desired: "expanded"},
		},
	}
}
