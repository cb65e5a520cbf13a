// Package prefs provides viewer preferences backed by viper.
//
// Preferences live in a JSON file under the user config directory. Any key
// can be overridden from the environment with the IMAGEMAP_ prefix, dots
// replaced by underscores (view.zoom_step -> IMAGEMAP_VIEW_ZOOM_STEP).
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	appDir    = "imagemap"
	prefsFile = "preferences.json"
	envPrefix = "IMAGEMAP"
)

// Preference keys.
const (
	KeyZoomStep     = "view.zoom_step"
	KeyMinZoom      = "view.min_zoom"
	KeyMaxZoom      = "view.max_zoom"
	KeyWindowWidth  = "window.width"
	KeyWindowHeight = "window.height"
	KeyLastImage    = "files.last_image"
	KeyLastScene    = "files.last_scene"
	KeyHitPolicy    = "overlay.hit_policy"
)

// Hit policies for KeyHitPolicy.
const (
	HitFirst   = "first"
	HitTopmost = "topmost"
)

// Prefs stores application preferences.
type Prefs struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
}

// DefaultPath returns ~/.config/imagemap/preferences.json or the platform
// equivalent.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, appDir, prefsFile)
}

// Load reads preferences from DefaultPath. A missing file yields defaults.
func Load() (*Prefs, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads preferences from path. A missing file yields defaults.
func LoadFrom(path string) (*Prefs, error) {
	v := viper.New()

	v.SetDefault(KeyZoomStep, 1.25)
	v.SetDefault(KeyMinZoom, 0.1)
	v.SetDefault(KeyMaxZoom, 10.0)
	v.SetDefault(KeyWindowWidth, 1024.0)
	v.SetDefault(KeyWindowHeight, 768.0)
	v.SetDefault(KeyHitPolicy, HitFirst)

	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read preferences: %w", err)
		}
	}
	return &Prefs{v: v, path: path}, nil
}

// Path returns the preferences file location.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("mkdir preferences dir: %w", err)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.v.WriteConfigAs(p.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

// Float returns a float64 preference, or 0 if not set.
func (p *Prefs) Float(key string) float64 {
	return p.FloatWithFallback(key, 0)
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.v.IsSet(key) {
		return fallback
	}
	return p.v.GetFloat64(key)
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.set(key, val)
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.v.GetString(key)
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.set(key, val)
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.v.IsSet(key) {
		return fallback
	}
	return p.v.GetBool(key)
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.set(key, val)
}

// TopmostHit reports whether taps should go to the last painted shape
// instead of the first registered one.
func (p *Prefs) TopmostHit() bool {
	return strings.EqualFold(p.String(KeyHitPolicy), HitTopmost)
}

func (p *Prefs) set(key string, val any) {
	p.mu.Lock()
	p.v.Set(key, val)
	p.mu.Unlock()
}
