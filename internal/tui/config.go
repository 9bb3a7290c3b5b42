package tui

// Config holds browser configuration.
type Config struct {
	Theme     Theme
	Title     string
	Width     int
	Height    int
	AltScreen bool
}

// Option is a functional option for configuring the browser.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:     Default,
		Title:     "Classifications",
		Width:     100,
		Height:    30,
		AltScreen: true,
	}
}

// WithTheme sets the color theme.
func WithTheme(theme Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithSize sets the initial dimensions, before the terminal reports its own.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithoutAltScreen renders inline instead of on the alternate screen.
func WithoutAltScreen() Option {
	return func(c *Config) {
		c.AltScreen = false
	}
}
