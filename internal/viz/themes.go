package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
)

// Theme colors the live view: the canvas, the title gradient and the chart.
type Theme struct {
	Name       string
	Canvas     lipgloss.Color
	TitleStart mgl64.Vec4
	TitleEnd   mgl64.Vec4
	Chart      lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:       "cyberpunk",
		Canvas:     lipgloss.Color("#00ffff"),
		TitleStart: mgl64.Vec4{1, 0, 1, 1},
		TitleEnd:   mgl64.Vec4{0, 1, 1, 1},
		Chart:      lipgloss.Color("#ff00ff"),
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Canvas:     lipgloss.Color("#00ff00"),
		TitleStart: mgl64.Vec4{0, 0.8, 0, 1},
		TitleEnd:   mgl64.Vec4{0.53, 1, 0.53, 1},
		Chart:      lipgloss.Color("#88ff88"),
	}

	ThemeMinimal = Theme{
		Name:       "minimal",
		Canvas:     lipgloss.Color("#ffffff"),
		TitleStart: mgl64.Vec4{1, 1, 1, 1},
		TitleEnd:   mgl64.Vec4{0.5, 0.5, 0.5, 1},
		Chart:      lipgloss.Color("#0088ff"),
	}

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to cyberpunk.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

// next returns the theme after t in Themes, wrapping around.
func (t Theme) next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
