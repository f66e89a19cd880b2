package ui

// Config contains TUI-specific configuration.
type Config struct {
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool

	// Voice speaks replies when the session starts.
	Voice bool
	// SpeakLimit caps the characters read aloud per reply.
	SpeakLimit int

	// For debugging the UI
	GlamourEnabled bool `env:"STUDYBUDDY_ENABLE_GLAMOUR" envDefault:"true"`
}
