package config

// HTTPConfig contains HTTP server and gateway configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application (e.g., "https://app.example.com").
	// Used for generating absolute URLs in redirects and auth callbacks.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// DefaultLocale is the locale prefix assumed when a path carries none.
	DefaultLocale string `env:"APP_DEFAULT_LOCALE" envDefault:"en"`

	// DemoExclusionEnabled bypasses gateway checks for the demo walkthrough
	// pages. Temporary; tracked for removal after the sales demo period.
	DemoExclusionEnabled bool `env:"DEMO_EXCLUSION_ENABLED" envDefault:"false"`

	// MaxConns caps concurrent accepted connections. Zero disables the cap.
	MaxConns int `env:"HTTP_MAX_CONNS" envDefault:"0"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.DefaultLocale == "" {
		h.DefaultLocale = "en"
	}
	if h.MaxConns < 0 {
		h.MaxConns = 0
	}
}
