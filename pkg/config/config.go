package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Storage       StorageConfig
	Aligo         AligoConfig
	Push          PushConfig
	Slack         SlackConfig
	Dialogflow    DialogflowConfig
	Statistics    StatisticsConfig
	QR            QRConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string   `envconfig:"MUMUL_APP_ENV" required:"true"`
	Port          string   `envconfig:"MUMUL_APP_PORT" required:"true"`
	LogLevel      string   `envconfig:"MUMUL_LOG_LEVEL" default:"info"`
	LogWarnStack  bool     `envconfig:"MUMUL_LOG_WARN_STACK" default:"false"`
	TimeZone      string   `envconfig:"MUMUL_TIME_ZONE" default:"Asia/Seoul"`
	PublicBaseURL string   `envconfig:"MUMUL_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	CORSOrigins   []string `envconfig:"MUMUL_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the configured time zone used for dates shown to people
// (complaint numbers, join dates, merge output names).
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.TimeZone)
	if name == "" {
		name = DefaultTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN    string `envconfig:"MUMUL_DB_DSN"`
	Driver string `envconfig:"MUMUL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MUMUL_DB_HOST"`
	LegacyPort     int    `envconfig:"MUMUL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MUMUL_DB_USER"`
	LegacyPassword string `envconfig:"MUMUL_DB_PASSWORD"`
	LegacyName     string `envconfig:"MUMUL_DB_NAME"`
	LegacySSLMode  string `envconfig:"MUMUL_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"MUMUL_SQLITE_PATH" default:"mumul.db"`

	MaxOpenConns    int           `envconfig:"MUMUL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MUMUL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MUMUL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MUMUL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MUMUL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MUMUL_REDIS_ADDR"`
	Password     string        `envconfig:"MUMUL_REDIS_PASSWORD"`
	DB           int           `envconfig:"MUMUL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MUMUL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MUMUL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MUMUL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MUMUL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MUMUL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MUMUL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MUMUL_JWT_ISSUER" default:"mumul"`
	ExpirationMinutes      int    `envconfig:"MUMUL_JWT_EXPIRATION_MINUTES" default:"120"`
	RefreshTokenTTLMinutes int    `envconfig:"MUMUL_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MUMUL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MUMUL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MUMUL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MUMUL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MUMUL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"MUMUL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit    int           `envconfig:"MUMUL_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"MUMUL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow          time.Duration `envconfig:"MUMUL_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupIdentityLimit   int           `envconfig:"MUMUL_AUTH_RATE_LIMIT_SIGNUP_IDENTITY_LIMIT" default:"3"`
	SignupIPLimit         int           `envconfig:"MUMUL_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
	SendCodeWindow        time.Duration `envconfig:"MUMUL_AUTH_RATE_LIMIT_SEND_CODE_WINDOW" default:"10m"`
	SendCodeIdentityLimit int           `envconfig:"MUMUL_AUTH_RATE_LIMIT_SEND_CODE_IDENTITY_LIMIT" default:"5"`
	SendCodeIPLimit       int           `envconfig:"MUMUL_AUTH_RATE_LIMIT_SEND_CODE_IP_LIMIT" default:"30"`

	// Covers /verify-code and /reset-password.
	VerifyCodeWindow        time.Duration `envconfig:"MUMUL_AUTH_RATE_LIMIT_VERIFY_CODE_WINDOW" default:"10m"`
	VerifyCodeIdentityLimit int           `envconfig:"MUMUL_AUTH_RATE_LIMIT_VERIFY_CODE_IDENTITY_LIMIT" default:"10"`
	VerifyCodeIPLimit       int           `envconfig:"MUMUL_AUTH_RATE_LIMIT_VERIFY_CODE_IP_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite        bool `envconfig:"MUMUL_USE_SQLITE" default:"false"`
	AutoMigrate      bool `envconfig:"MUMUL_AUTO_MIGRATE" default:"false"`
	ComplaintSMS     bool `envconfig:"MUMUL_FEATURE_COMPLAINT_SMS" default:"false"`
	RequireResetOTP  bool `envconfig:"MUMUL_FEATURE_REQUIRE_RESET_OTP" default:"true"`
	MetricsEndpoint  bool `envconfig:"MUMUL_FEATURE_METRICS_ENDPOINT" default:"true"`
	ServeLocalMedia  bool `envconfig:"MUMUL_FEATURE_SERVE_LOCAL_MEDIA" default:"true"`
	SlackOnSignup    bool `envconfig:"MUMUL_FEATURE_SLACK_ON_SIGNUP" default:"true"`
	ExcelMenuImports bool `envconfig:"MUMUL_FEATURE_EXCEL_MENU_IMPORTS" default:"true"`
}

type StorageConfig struct {
	Driver      string `envconfig:"MUMUL_STORAGE_DRIVER" default:"local"`
	MediaRoot   string `envconfig:"MUMUL_MEDIA_ROOT" default:"media"`
	MediaURL    string `envconfig:"MUMUL_MEDIA_URL" default:"/media/"`
	MaxUploadMB int    `envconfig:"MUMUL_MAX_UPLOAD_MB" default:"20"`

	S3Bucket    string `envconfig:"MUMUL_S3_BUCKET"`
	S3Region    string `envconfig:"MUMUL_S3_REGION" default:"ap-northeast-2"`
	S3Endpoint  string `envconfig:"MUMUL_S3_ENDPOINT"`
	S3AccessKey string `envconfig:"MUMUL_S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"MUMUL_S3_SECRET_KEY"`
	S3PublicURL string `envconfig:"MUMUL_S3_PUBLIC_URL"`
}

// MaxUploadBytes converts the configured MB limit into bytes.
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 20 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

type AligoConfig struct {
	Endpoint string        `envconfig:"MUMUL_ALIGO_ENDPOINT" default:"https://apis.aligo.in/send/"`
	APIKey   string        `envconfig:"MUMUL_ALIGO_API_KEY"`
	UserID   string        `envconfig:"MUMUL_ALIGO_USER_ID"`
	Sender   string        `envconfig:"MUMUL_ALIGO_SENDER"`
	TestMode bool          `envconfig:"MUMUL_ALIGO_TEST_MODE" default:"true"`
	Timeout  time.Duration `envconfig:"MUMUL_ALIGO_TIMEOUT" default:"10s"`
}

type PushConfig struct {
	Provider            string        `envconfig:"MUMUL_PUSH_PROVIDER" default:"expo"`
	ExpoEndpoint        string        `envconfig:"MUMUL_EXPO_PUSH_ENDPOINT" default:"https://exp.host/--/api/v2/push/send"`
	ExpoAccessToken     string        `envconfig:"MUMUL_EXPO_ACCESS_TOKEN"`
	FCMCredentialsFile  string        `envconfig:"MUMUL_FCM_CREDENTIALS_FILE"`
	FCMCredentialsJSON  string        `envconfig:"MUMUL_FCM_CREDENTIALS_JSON"`
	Timeout             time.Duration `envconfig:"MUMUL_PUSH_TIMEOUT" default:"10s"`
	DefaultNotification string        `envconfig:"MUMUL_PUSH_DEFAULT_TITLE" default:"무물"`
}

type SlackConfig struct {
	WebhookURL string        `envconfig:"MUMUL_SLACK_WEBHOOK_URL"`
	Timeout    time.Duration `envconfig:"MUMUL_SLACK_TIMEOUT" default:"5s"`
}

type DialogflowConfig struct {
	ProjectID       string `envconfig:"MUMUL_DIALOGFLOW_PROJECT_ID"`
	Location        string `envconfig:"MUMUL_DIALOGFLOW_LOCATION" default:"asia-northeast1"`
	AgentID         string `envconfig:"MUMUL_DIALOGFLOW_AGENT_ID"`
	LanguageCode    string `envconfig:"MUMUL_DIALOGFLOW_LANGUAGE" default:"ko"`
	CredentialsFile string `envconfig:"MUMUL_DIALOGFLOW_CREDENTIALS_FILE"`
	CredentialsJSON string `envconfig:"MUMUL_DIALOGFLOW_CREDENTIALS_JSON"`
}

// Endpoint returns the regional Dialogflow CX endpoint for the configured location.
func (d DialogflowConfig) Endpoint() string {
	loc := strings.TrimSpace(d.Location)
	if loc == "" || loc == "global" {
		return "https://dialogflow.googleapis.com/"
	}
	return fmt.Sprintf("https://%s-dialogflow.googleapis.com/", loc)
}

// Enabled reports whether enough settings exist to call Dialogflow.
func (d DialogflowConfig) Enabled() bool {
	return d.ProjectID != "" && d.AgentID != ""
}

type StatisticsConfig struct {
	ConversationRoot string        `envconfig:"MUMUL_CONVERSATION_ROOT" default:"conversation_history"`
	CronInterval     time.Duration `envconfig:"MUMUL_STATISTICS_CRON_INTERVAL" default:"1h"`
	TopN             int           `envconfig:"MUMUL_STATISTICS_TOP_N" default:"5"`
	// FontPath points at a TTF with Hangul glyphs for chart labels.
	FontPath string `envconfig:"MUMUL_STATISTICS_FONT_PATH"`
}

type QRConfig struct {
	ContentBaseURL string `envconfig:"MUMUL_QR_CONTENT_BASE_URL" default:"https://mumulai.com"`
	Size           int    `envconfig:"MUMUL_QR_SIZE" default:"330"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
