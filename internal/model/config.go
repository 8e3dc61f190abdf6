package model

// ================ Config ================
type ProviderConfig struct {
	BaseURL      string `envconfig:"GOTO_BASE_URL" default:"https://api.goto.com"`
	AccountKey   string `envconfig:"GOTO_ACCOUNT_KEY" required:"true"`
	AccessToken  string `envconfig:"GOTO_ACCESS_TOKEN"`
	TokenURL     string `envconfig:"GOTO_TOKEN_URL" default:"https://api.getgo.com/oauth/v2/token"`
	ClientID     string `envconfig:"GOTO_CLIENT_ID"`
	ClientSecret string `envconfig:"GOTO_CLIENT_SECRET"`
	RefreshToken string `envconfig:"GOTO_REFRESH_TOKEN"`
	PageSize     int    `envconfig:"GOTO_PAGE_SIZE" default:"100"`
	Timeout      string `envconfig:"GOTO_TIMEOUT" default:"15s"`
	Concurrency  int    `envconfig:"GOTO_FETCH_CONCURRENCY" default:"4"`
}

// UsesOAuth reports whether the refresh-token grant is fully configured.
func (c ProviderConfig) UsesOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

type DashboardConfig struct {
	Addr          string `envconfig:"DASHBOARD_ADDR" default:":8501"`
	Title         string `envconfig:"DASHBOARD_TITLE" default:"GoTo Call Dashboard"`
	Timezone      string `envconfig:"DASHBOARD_TIMEZONE" default:"America/New_York"`
	Username      string `envconfig:"DASHBOARD_USERNAME" default:"admin"`
	Password      string `envconfig:"DASHBOARD_PASSWORD"`
	SessionTTL    string `envconfig:"DASHBOARD_SESSION_TTL" default:"12h"`
	GapThreshold  int    `envconfig:"DASHBOARD_GAP_THRESHOLD" default:"30"`
	ClockIn       string `envconfig:"DASHBOARD_CLOCK_IN" default:"09:00"`
	ClockOut      string `envconfig:"DASHBOARD_CLOCK_OUT" default:"17:00"`
	UsersCacheTTL string `envconfig:"DASHBOARD_USERS_CACHE_TTL" default:"5m"`
	WebhookToken  string `envconfig:"WEBHOOK_TOKEN"`
}
