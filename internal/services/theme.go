package services

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/utils"
)

// Theme is one presentation color scheme, loadable from a YAML file in
// the themes directory or served from the built-in set.
type Theme struct {
	Name       string `yaml:"name" json:"name"`
	Background string `yaml:"background" json:"background"`
	TitleColor string `yaml:"title_color" json:"title_color"`
	TextColor  string `yaml:"text_color" json:"text_color"`
	Accent     string `yaml:"accent" json:"accent"`
	FontFamily string `yaml:"font_family" json:"font_family"`
}

type ThemeService interface {
	Get(name string) Theme
	List() []Theme
}

type themeService struct {
	log    *logger.Logger
	themes map[string]Theme
}

func builtinThemes() map[string]Theme {
	return map[string]Theme{
		"default": {
			Name:       "default",
			Background: "#FFFFFF",
			TitleColor: "#1F3864",
			TextColor:  "#333333",
			Accent:     "#4472C4",
			FontFamily: "Calibri",
		},
		"dark": {
			Name:       "dark",
			Background: "#1E1E2E",
			TitleColor: "#E0DEF4",
			TextColor:  "#CDD6F4",
			Accent:     "#89B4FA",
			FontFamily: "Calibri",
		},
		"academic": {
			Name:       "academic",
			Background: "#FDF6E3",
			TitleColor: "#586E75",
			TextColor:  "#073642",
			Accent:     "#B58900",
			FontFamily: "Georgia",
		},
	}
}

// NewThemeService loads YAML theme files from THEMES_DIR on top of the
// built-in set. File themes with the same name override built-ins.
func NewThemeService(log *logger.Logger) ThemeService {
	slog := log.With("service", "ThemeService")
	themes := builtinThemes()

	dir := utils.GetEnv("THEMES_DIR", "themes", log)
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("No themes directory; using built-in themes", "dir", dir)
		return &themeService{log: slog, themes: themes}
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			slog.Warn("Failed to read theme file", "file", e.Name(), "error", err)
			continue
		}
		var t Theme
		if err := yaml.Unmarshal(raw, &t); err != nil {
			slog.Warn("Failed to parse theme file", "file", e.Name(), "error", err)
			continue
		}
		if t.Name == "" {
			t.Name = strings.TrimSuffix(e.Name(), ext)
		}
		themes[t.Name] = normalizeTheme(t)
		slog.Debug("Loaded theme", "name", t.Name)
	}

	return &themeService{log: slog, themes: themes}
}

func normalizeTheme(t Theme) Theme {
	def := builtinThemes()["default"]
	if t.Background == "" {
		t.Background = def.Background
	}
	if t.TitleColor == "" {
		t.TitleColor = def.TitleColor
	}
	if t.TextColor == "" {
		t.TextColor = def.TextColor
	}
	if t.Accent == "" {
		t.Accent = def.Accent
	}
	if t.FontFamily == "" {
		t.FontFamily = def.FontFamily
	}
	return t
}

func (s *themeService) Get(name string) Theme {
	if t, ok := s.themes[name]; ok {
		return t
	}
	s.log.Debug("Unknown theme; falling back to default", "name", name)
	return s.themes["default"]
}

func (s *themeService) List() []Theme {
	out := make([]Theme, 0, len(s.themes))
	for _, t := range s.themes {
		out = append(out, t)
	}
	return out
}
