package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
//
// Provider sections (SMS, Voicemail, TTS, SMTP) are deliberately optional:
// an unconfigured channel degrades to a mock/no-op dispatch result instead
// of failing at startup.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	SMS       SMSConfig
	Voicemail VoicemailConfig
	TTS       TTSConfig
	SMTP      SMTPConfig
	Media     MediaConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL is the externally reachable base used to mint media
	// URLs handed to the voicemail drop provider.
	PublicBaseURL string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// SMSConfig selects and configures the outbound SMS provider chain.
// Provider is "bonzo", "twilio", "mock", or empty; empty builds the
// default chain (twilio when configured, else mock).
type SMSConfig struct {
	Provider string

	Bonzo  BonzoConfig
	Twilio TwilioConfig
}

type BonzoConfig struct {
	BaseURL    string
	APIKey     string
	FromNumber string
	SendPath   string
	AuthHeader string
	AuthScheme string
	OnBehalfOf string
	SendAs     string

	// WebhookToken, when set, is required on inbound bonzo webhooks.
	WebhookToken string
}

func (c BonzoConfig) Configured() bool { return c.BaseURL != "" && c.APIKey != "" }

type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	FromNumber          string
	MessagingServiceSID string
}

func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && (c.FromNumber != "" || c.MessagingServiceSID != "")
}

// VoicemailConfig configures the slybroadcast drop provider.
type VoicemailConfig struct {
	Provider        string
	BaseURL         string
	Username        string
	Password        string
	DefaultAudioURL string
	CallerID        string
	MobileOnly      bool
	DispoURL        string
}

func (c VoicemailConfig) Configured() bool { return c.Username != "" && c.Password != "" }

type TTSConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
}

func (c TTSConfig) Configured() bool { return c.APIKey != "" && c.VoiceID != "" }

type SMTPConfig struct {
	Host   string
	Port   int
	User   string
	Pass   string
	Secure bool
}

func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port > 0 && c.User != "" && c.Pass != ""
}

type MediaConfig struct {
	// TTL bounds the lifetime of ephemeral voicemail audio blobs.
	TTL time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = optionalDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = optionalDuration("JWT_REFRESH_TTL")

	c.SMS.Provider = strings.ToLower(strings.TrimSpace(os.Getenv("SMS_PROVIDER")))
	c.SMS.Bonzo.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BONZO_API_BASE_URL")), "/")
	c.SMS.Bonzo.APIKey = os.Getenv("BONZO_API_KEY")
	c.SMS.Bonzo.FromNumber = strings.TrimSpace(os.Getenv("BONZO_FROM_NUMBER"))
	c.SMS.Bonzo.SendPath = envDefault("BONZO_SEND_PATH", "/messages/send")
	c.SMS.Bonzo.AuthHeader = envDefault("BONZO_AUTH_HEADER", "Authorization")
	// Scheme may be set to the empty string on purpose (raw key in header),
	// so unset and empty must stay distinguishable.
	if v, ok := os.LookupEnv("BONZO_AUTH_SCHEME"); ok {
		c.SMS.Bonzo.AuthScheme = v
	} else {
		c.SMS.Bonzo.AuthScheme = "Bearer"
	}
	c.SMS.Bonzo.OnBehalfOf = strings.TrimSpace(os.Getenv("BONZO_ON_BEHALF_OF"))
	c.SMS.Bonzo.SendAs = strings.TrimSpace(os.Getenv("BONZO_SEND_AS"))
	c.SMS.Bonzo.WebhookToken = os.Getenv("BONZO_WEBHOOK_TOKEN")

	c.SMS.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.SMS.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.SMS.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER"))
	c.SMS.Twilio.MessagingServiceSID = strings.TrimSpace(os.Getenv("TWILIO_MESSAGING_SERVICE_SID"))

	c.Voicemail.Provider = strings.ToLower(envDefault("VOICEMAIL_PROVIDER", "slybroadcast"))
	c.Voicemail.BaseURL = envDefault("SLYBROADCAST_API_BASE_URL", "https://www.mobile-sphere.com/gateway/vmb.php")
	c.Voicemail.Username = strings.TrimSpace(os.Getenv("SLYBROADCAST_USERNAME"))
	c.Voicemail.Password = os.Getenv("SLYBROADCAST_PASSWORD")
	c.Voicemail.DefaultAudioURL = strings.TrimSpace(os.Getenv("SLYBROADCAST_DEFAULT_AUDIO_URL"))
	c.Voicemail.CallerID = strings.TrimSpace(os.Getenv("SLYBROADCAST_CALLER_ID"))
	c.Voicemail.MobileOnly = os.Getenv("SLYBROADCAST_MOBILE_ONLY") == "1"
	c.Voicemail.DispoURL = strings.TrimSpace(os.Getenv("SLYBROADCAST_DISPO_URL"))

	c.TTS.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	c.TTS.VoiceID = strings.TrimSpace(os.Getenv("ELEVENLABS_VOICE_ID"))
	c.TTS.ModelID = envDefault("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2")
	c.TTS.BaseURL = strings.TrimRight(envDefault("ELEVENLABS_API_BASE_URL", "https://api.elevenlabs.io/v1"), "/")

	c.SMTP.Host = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	if v := strings.TrimSpace(os.Getenv("SMTP_PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("SMTP_PORT must be an integer, got %q", v))
		}
		c.SMTP.Port = n
	}
	c.SMTP.User = strings.TrimSpace(os.Getenv("SMTP_USER"))
	c.SMTP.Pass = os.Getenv("SMTP_PASS")
	c.SMTP.Secure = os.Getenv("SMTP_SECURE") == "true" || c.SMTP.Port == 465

	c.Media.TTL = optionalDuration("MEDIA_TTL")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.IsProduction() && c.App.PublicBaseURL == "" {
		// Voicemail drops cannot work without a reachable media URL.
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required in production"))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	switch c.SMS.Provider {
	case "", "bonzo", "twilio", "mock":
	default:
		errs = append(errs, fmt.Errorf("SMS_PROVIDER must be one of bonzo, twilio, mock, got %q", c.SMS.Provider))
	}

	if c.Media.TTL <= 0 {
		c.Media.TTL = 24 * time.Hour
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func envDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
