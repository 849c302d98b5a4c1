package vision

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/vcaesar/imgo"
)

// Well-known logical template names. The calibrator and cycler refer to
// templates by these names, never by file path.
const (
	TplFriendList   = "friend-list"
	TplFriendHeader = "friend-header"
	TplGroupHeader  = "group-header"
	TplMessageInput = "message-input-anchor"
	TplChatOpen     = "chat-open-button"
	TplHideArrow    = "hide-arrow"
	TplShowArrow    = "show-arrow"
)

// defaultFiles maps logical names to files under the templates directory.
var defaultFiles = map[string]string{
	TplFriendList:   "friend-list.png",
	TplFriendHeader: "friend.png",
	TplGroupHeader:  "group.png",
	TplMessageInput: "message_cube.png",
	TplChatOpen:     "greenchat.png",
	TplHideArrow:    "hide.png",
	TplShowArrow:    "show.png",
}

// Store resolves logical template names to image assets on disk. Templates
// are configuration: the name set is fixed at construction, but existence is
// re-checked on every load because a missing file is a recoverable condition,
// not a startup failure.
type Store struct {
	dir   string
	files map[string]string
}

// NewStore creates a template store over the given directory.
func NewStore(dir string) *Store {
	files := make(map[string]string, len(defaultFiles))
	for name, file := range defaultFiles {
		files[name] = file
	}
	return &Store{dir: dir, files: files}
}

// Register adds or overrides a logical template name.
func (s *Store) Register(name, file string) {
	s.files[name] = file
}

// Path returns the file path for a logical name.
func (s *Store) Path(name string) (string, bool) {
	file, ok := s.files[name]
	if !ok {
		return "", false
	}
	return filepath.Join(s.dir, file), true
}

// Load reads the template image. Absence on disk is reported as an error the
// locator treats as a miss.
func (s *Store) Load(name string) (image.Image, error) {
	path, ok := s.Path(name)
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("template %q missing: %w", name, err)
	}
	img, err := imgo.Read(path)
	if err != nil {
		return nil, fmt.Errorf("template %q unreadable: %w", name, err)
	}
	return img, nil
}

// Missing returns the paths of registered templates absent on disk, sorted.
// A non-empty result blocks live runs but not dry runs or inspection.
func (s *Store) Missing() []string {
	var missing []string
	for name := range s.files {
		path, _ := s.Path(name)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	sort.Strings(missing)
	return missing
}
