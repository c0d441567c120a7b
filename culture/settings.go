package culture

import (
	"errors"
	"fmt"
)

// Settings are the presentation preferences bundled with a language.
type Settings struct {
	LayoutDensity    string `json:"layoutDensity" yaml:"layout_density"`
	InteractionStyle string `json:"interactionStyle" yaml:"interaction_style"`
	ContentPriority  string `json:"contentPriority" yaml:"content_priority"`
	ColorScheme      string `json:"colorScheme" yaml:"color_scheme"`
	NavigationStyle  string `json:"navigationStyle" yaml:"navigation_style"`
}

// SettingKey names one field of Settings.
type SettingKey string

const (
	LayoutDensity    SettingKey = "layoutDensity"
	InteractionStyle SettingKey = "interactionStyle"
	ContentPriority  SettingKey = "contentPriority"
	ColorScheme      SettingKey = "colorScheme"
	NavigationStyle  SettingKey = "navigationStyle"
)

// ErrUnknownSetting is returned by Settings.With for keys outside the
// Settings record.
var ErrUnknownSetting = errors.New("unknown cultural setting")

// defaultSettings holds exactly one record per language.
var defaultSettings = map[Language]Settings{
	English: {
		LayoutDensity:    "spacious",
		InteractionStyle: "direct",
		ContentPriority:  "individual",
		ColorScheme:      "modern",
		NavigationStyle:  "exploration",
	},
	Urdu: {
		LayoutDensity:    "moderate",
		InteractionStyle: "respectful",
		ContentPriority:  "community",
		ColorScheme:      "traditional",
		NavigationStyle:  "relationship",
	},
	Chinese: {
		LayoutDensity:    "dense",
		InteractionStyle: "indirect",
		ContentPriority:  "collective",
		ColorScheme:      "balanced",
		NavigationStyle:  "efficient",
	},
}

// DefaultSettings returns the fixed default record for lang. Unknown
// languages get the English record.
func DefaultSettings(lang Language) Settings {
	if s, ok := defaultSettings[lang]; ok {
		return s
	}
	return defaultSettings[English]
}

// With returns a copy of s with one field replaced.
func (s Settings) With(key SettingKey, value string) (Settings, error) {
	switch key {
	case LayoutDensity:
		s.LayoutDensity = value
	case InteractionStyle:
		s.InteractionStyle = value
	case ContentPriority:
		s.ContentPriority = value
	case ColorScheme:
		s.ColorScheme = value
	case NavigationStyle:
		s.NavigationStyle = value
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	return s, nil
}

// Get returns the value of one field.
func (s Settings) Get(key SettingKey) (string, error) {
	switch key {
	case LayoutDensity:
		return s.LayoutDensity, nil
	case InteractionStyle:
		return s.InteractionStyle, nil
	case ContentPriority:
		return s.ContentPriority, nil
	case ColorScheme:
		return s.ColorScheme, nil
	case NavigationStyle:
		return s.NavigationStyle, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSetting, key)
}

// SettingKeys returns all keys in declaration order.
func SettingKeys() []SettingKey {
	return []SettingKey{LayoutDensity, InteractionStyle, ContentPriority, ColorScheme, NavigationStyle}
}

// QuizResults are the answers of the cultural preference quiz.
type QuizResults struct {
	PrefersDenseInformation      bool `json:"prefersDenseInformation"`
	PrefersIndirectCommunication bool `json:"prefersIndirectCommunication"`
}

// applyQuiz fine-tunes s from quiz answers. Answers left false keep the
// current value.
func (s Settings) applyQuiz(q QuizResults) Settings {
	if q.PrefersDenseInformation {
		s.LayoutDensity = "dense"
	}
	if q.PrefersIndirectCommunication {
		s.InteractionStyle = "indirect"
	}
	return s
}
