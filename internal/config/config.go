package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"smartsplit/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Log        LogConfig
	CORS       CORSConfig
	Processing ProcessingConfig
	Layout     LayoutConfig
	Oracle     OracleConfig
	Naming     NamingConfig
	Patterns   PatternsConfig
	Export     ExportConfig
}

// ProcessingConfig holds the classification pipeline settings.
type ProcessingConfig struct {
	MinDocumentLength   int     `mapstructure:"min_document_length"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	MaxInputChars       int     `mapstructure:"max_input_chars"`
	RuleConfidence      float64 `mapstructure:"rule_confidence"`
	OracleConfidence    float64 `mapstructure:"oracle_confidence"`
	Workers             int     `mapstructure:"workers"`
	OracleConcurrency   int     `mapstructure:"oracle_concurrency"`
}

// LayoutConfig holds the boundary heuristics thresholds.
type LayoutConfig struct {
	FontSizeRatio      float64 `mapstructure:"font_size_ratio"`
	HeaderFooterLoss   bool    `mapstructure:"header_footer_loss"`
	NumberResetCeiling int     `mapstructure:"number_reset_ceiling"`
	FirstLines         int     `mapstructure:"first_lines"`
	TailLines          int     `mapstructure:"tail_lines"`
}

// OracleProviderConfig holds settings for a single classification oracle provider.
type OracleProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	BaseURL      string `mapstructure:"base_url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// OracleConfig holds the ordered oracle providers.
type OracleConfig struct {
	Primary   OracleProviderConfig `mapstructure:"primary"`
	Secondary OracleProviderConfig `mapstructure:"secondary"`
}

// PrimaryConfig returns the primary provider config, or nil if not configured.
func (o *OracleConfig) PrimaryConfig() *OracleProviderConfig {
	if o.Primary.Provider != "" {
		return &o.Primary
	}
	return nil
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (o *OracleConfig) SecondaryConfig() *OracleProviderConfig {
	if o.Secondary.Provider != "" {
		return &o.Secondary
	}
	return nil
}

// Timeout returns the deadline of one request to this provider.
func (p *OracleProviderConfig) Timeout() time.Duration {
	secs := p.TimeoutSecs
	if secs <= 0 {
		secs = 10
	}
	return time.Duration(secs) * time.Second
}

// Budget returns how long one logical oracle call may take: the primary's
// timeout plus the secondary's when one is configured, so failover after a
// hung primary still fits.
func (o *OracleConfig) Budget() time.Duration {
	budget := o.Primary.Timeout()
	if sc := o.SecondaryConfig(); sc != nil {
		budget += sc.Timeout()
	}
	return budget
}

// NamingConfig holds filename generation settings.
type NamingConfig struct {
	FilenameMaxLength int    `mapstructure:"filename_max_length"`
	Placeholder       string `mapstructure:"placeholder"`
	UseUnderscores    bool   `mapstructure:"use_underscores"`
}

// PatternsConfig points at an optional YAML pattern extension file.
type PatternsConfig struct {
	File string `mapstructure:"file"`
}

// ExportConfig holds section export settings.
type ExportConfig struct {
	Provider          string `mapstructure:"provider"`
	OutputDir         string `mapstructure:"output_dir"`
	CollisionStrategy string `mapstructure:"collision_strategy"`
	Prefix            string `mapstructure:"prefix"`
	URLExpirySecs     int64  `mapstructure:"url_expiry_secs"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the SMARTSPLIT_
// prefix, layered over an optional YAML file named by SMARTSPLIT_CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SMARTSPLIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "smartsplit")
	v.SetDefault("db.password", "smartsplit_secret")
	v.SetDefault("db.name", "smartsplit_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "smartsplit-sections")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 100)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Processing defaults
	v.SetDefault("processing.min_document_length", 1)
	v.SetDefault("processing.confidence_threshold", 0.7)
	v.SetDefault("processing.max_input_chars", 1000)
	v.SetDefault("processing.rule_confidence", 0.9)
	v.SetDefault("processing.oracle_confidence", 0.8)
	v.SetDefault("processing.workers", 4)
	v.SetDefault("processing.oracle_concurrency", 4)

	// Layout heuristics defaults
	v.SetDefault("layout.font_size_ratio", 1.2)
	v.SetDefault("layout.header_footer_loss", true)
	v.SetDefault("layout.number_reset_ceiling", 1)
	v.SetDefault("layout.first_lines", 5)
	v.SetDefault("layout.tail_lines", 3)

	// Oracle defaults
	v.SetDefault("oracle.primary.provider", "")
	v.SetDefault("oracle.primary.api_key", "")
	v.SetDefault("oracle.primary.default_model", "")
	v.SetDefault("oracle.primary.base_url", "")
	v.SetDefault("oracle.primary.max_retries", 0)
	v.SetDefault("oracle.primary.timeout_secs", 10)
	v.SetDefault("oracle.secondary.provider", "")
	v.SetDefault("oracle.secondary.api_key", "")
	v.SetDefault("oracle.secondary.default_model", "")
	v.SetDefault("oracle.secondary.base_url", "")
	v.SetDefault("oracle.secondary.max_retries", 0)
	v.SetDefault("oracle.secondary.timeout_secs", 10)

	// Naming defaults
	v.SetDefault("naming.filename_max_length", 200)
	v.SetDefault("naming.placeholder", "Unknown")
	v.SetDefault("naming.use_underscores", true)

	v.SetDefault("patterns.file", "")

	// Export defaults
	v.SetDefault("export.provider", "none")
	v.SetDefault("export.output_dir", "./output")
	v.SetDefault("export.collision_strategy", "rename")
	v.SetDefault("export.prefix", "sections")
	v.SetDefault("export.url_expiry_secs", 3600)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                     "SMARTSPLIT_SERVER_PORT",
		"server.read_timeout":             "SMARTSPLIT_SERVER_READ_TIMEOUT",
		"server.write_timeout":            "SMARTSPLIT_SERVER_WRITE_TIMEOUT",
		"server.environment":              "SMARTSPLIT_SERVER_ENVIRONMENT",
		"db.host":                         "SMARTSPLIT_DB_HOST",
		"db.port":                         "SMARTSPLIT_DB_PORT",
		"db.user":                         "SMARTSPLIT_DB_USER",
		"db.password":                     "SMARTSPLIT_DB_PASSWORD",
		"db.name":                         "SMARTSPLIT_DB_NAME",
		"db.sslmode":                      "SMARTSPLIT_DB_SSLMODE",
		"db.max_open":                     "SMARTSPLIT_DB_MAX_OPEN",
		"db.max_idle":                     "SMARTSPLIT_DB_MAX_IDLE",
		"s3.region":                       "SMARTSPLIT_S3_REGION",
		"s3.bucket":                       "SMARTSPLIT_S3_BUCKET",
		"s3.endpoint":                     "SMARTSPLIT_S3_ENDPOINT",
		"s3.access_key":                   "SMARTSPLIT_S3_ACCESS_KEY",
		"s3.secret_key":                   "SMARTSPLIT_S3_SECRET_KEY",
		"s3.max_file_size_mb":             "SMARTSPLIT_S3_MAX_FILE_SIZE_MB",
		"log.level":                       "SMARTSPLIT_LOG_LEVEL",
		"log.format":                      "SMARTSPLIT_LOG_FORMAT",
		"cors.allowed_origins":            "SMARTSPLIT_CORS_ALLOWED_ORIGINS",
		"processing.min_document_length":  "SMARTSPLIT_PROCESSING_MIN_DOCUMENT_LENGTH",
		"processing.confidence_threshold": "SMARTSPLIT_PROCESSING_CONFIDENCE_THRESHOLD",
		"processing.max_input_chars":      "SMARTSPLIT_PROCESSING_MAX_INPUT_CHARS",
		"processing.rule_confidence":      "SMARTSPLIT_PROCESSING_RULE_CONFIDENCE",
		"processing.oracle_confidence":    "SMARTSPLIT_PROCESSING_ORACLE_CONFIDENCE",
		"processing.workers":              "SMARTSPLIT_PROCESSING_WORKERS",
		"processing.oracle_concurrency":   "SMARTSPLIT_PROCESSING_ORACLE_CONCURRENCY",
		"layout.font_size_ratio":          "SMARTSPLIT_LAYOUT_FONT_SIZE_RATIO",
		"layout.header_footer_loss":       "SMARTSPLIT_LAYOUT_HEADER_FOOTER_LOSS",
		"layout.number_reset_ceiling":     "SMARTSPLIT_LAYOUT_NUMBER_RESET_CEILING",
		"layout.first_lines":              "SMARTSPLIT_LAYOUT_FIRST_LINES",
		"layout.tail_lines":               "SMARTSPLIT_LAYOUT_TAIL_LINES",
		"oracle.primary.provider":         "SMARTSPLIT_ORACLE_PRIMARY_PROVIDER",
		"oracle.primary.api_key":          "SMARTSPLIT_ORACLE_PRIMARY_API_KEY",
		"oracle.primary.default_model":    "SMARTSPLIT_ORACLE_PRIMARY_DEFAULT_MODEL",
		"oracle.primary.base_url":         "SMARTSPLIT_ORACLE_PRIMARY_BASE_URL",
		"oracle.primary.max_retries":      "SMARTSPLIT_ORACLE_PRIMARY_MAX_RETRIES",
		"oracle.primary.timeout_secs":     "SMARTSPLIT_ORACLE_PRIMARY_TIMEOUT_SECS",
		"oracle.secondary.provider":       "SMARTSPLIT_ORACLE_SECONDARY_PROVIDER",
		"oracle.secondary.api_key":        "SMARTSPLIT_ORACLE_SECONDARY_API_KEY",
		"oracle.secondary.default_model":  "SMARTSPLIT_ORACLE_SECONDARY_DEFAULT_MODEL",
		"oracle.secondary.base_url":       "SMARTSPLIT_ORACLE_SECONDARY_BASE_URL",
		"oracle.secondary.max_retries":    "SMARTSPLIT_ORACLE_SECONDARY_MAX_RETRIES",
		"oracle.secondary.timeout_secs":   "SMARTSPLIT_ORACLE_SECONDARY_TIMEOUT_SECS",
		"naming.filename_max_length":      "SMARTSPLIT_NAMING_FILENAME_MAX_LENGTH",
		"naming.placeholder":              "SMARTSPLIT_NAMING_PLACEHOLDER",
		"naming.use_underscores":          "SMARTSPLIT_NAMING_USE_UNDERSCORES",
		"patterns.file":                   "SMARTSPLIT_PATTERNS_FILE",
		"export.provider":                 "SMARTSPLIT_EXPORT_PROVIDER",
		"export.output_dir":               "SMARTSPLIT_EXPORT_OUTPUT_DIR",
		"export.collision_strategy":       "SMARTSPLIT_EXPORT_COLLISION_STRATEGY",
		"export.prefix":                   "SMARTSPLIT_EXPORT_PREFIX",
		"export.url_expiry_secs":          "SMARTSPLIT_EXPORT_URL_EXPIRY_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if path := os.Getenv("SMARTSPLIT_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if SMARTSPLIT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SMARTSPLIT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Processing = ProcessingConfig{
		MinDocumentLength:   v.GetInt("processing.min_document_length"),
		ConfidenceThreshold: v.GetFloat64("processing.confidence_threshold"),
		MaxInputChars:       v.GetInt("processing.max_input_chars"),
		RuleConfidence:      v.GetFloat64("processing.rule_confidence"),
		OracleConfidence:    v.GetFloat64("processing.oracle_confidence"),
		Workers:             v.GetInt("processing.workers"),
		OracleConcurrency:   v.GetInt("processing.oracle_concurrency"),
	}
	cfg.Layout = LayoutConfig{
		FontSizeRatio:      v.GetFloat64("layout.font_size_ratio"),
		HeaderFooterLoss:   v.GetBool("layout.header_footer_loss"),
		NumberResetCeiling: v.GetInt("layout.number_reset_ceiling"),
		FirstLines:         v.GetInt("layout.first_lines"),
		TailLines:          v.GetInt("layout.tail_lines"),
	}
	cfg.Oracle = OracleConfig{
		Primary:   providerConfig(v, "oracle.primary"),
		Secondary: providerConfig(v, "oracle.secondary"),
	}
	cfg.Naming = NamingConfig{
		FilenameMaxLength: v.GetInt("naming.filename_max_length"),
		Placeholder:       v.GetString("naming.placeholder"),
		UseUnderscores:    v.GetBool("naming.use_underscores"),
	}
	cfg.Patterns = PatternsConfig{File: v.GetString("patterns.file")}
	cfg.Export = ExportConfig{
		Provider:          v.GetString("export.provider"),
		OutputDir:         v.GetString("export.output_dir"),
		CollisionStrategy: v.GetString("export.collision_strategy"),
		Prefix:            v.GetString("export.prefix"),
		URLExpirySecs:     v.GetInt64("export.url_expiry_secs"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) OracleProviderConfig {
	return OracleProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		BaseURL:      v.GetString(prefix + ".base_url"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

// Validate rejects out-of-range settings. The error wraps domain.ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []string
	p := c.Processing
	if p.MinDocumentLength < 1 {
		problems = append(problems, "processing.min_document_length must be >= 1")
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		problems = append(problems, "processing.confidence_threshold must be in [0,1]")
	}
	if p.MaxInputChars <= 0 {
		problems = append(problems, "processing.max_input_chars must be > 0")
	}
	if p.RuleConfidence < 0 || p.RuleConfidence > 1 {
		problems = append(problems, "processing.rule_confidence must be in [0,1]")
	}
	if p.OracleConfidence < 0 || p.OracleConfidence > 1 {
		problems = append(problems, "processing.oracle_confidence must be in [0,1]")
	}
	if p.Workers < 1 {
		problems = append(problems, "processing.workers must be >= 1")
	}
	if p.OracleConcurrency < 1 {
		problems = append(problems, "processing.oracle_concurrency must be >= 1")
	}
	if c.Layout.FontSizeRatio <= 1 {
		problems = append(problems, "layout.font_size_ratio must be > 1")
	}
	if c.Layout.NumberResetCeiling < 0 {
		problems = append(problems, "layout.number_reset_ceiling must be >= 0")
	}
	if c.Layout.FirstLines < 1 || c.Layout.TailLines < 1 {
		problems = append(problems, "layout.first_lines and layout.tail_lines must be >= 1")
	}
	if c.Oracle.Primary.MaxRetries < 0 || c.Oracle.Secondary.MaxRetries < 0 {
		problems = append(problems, "oracle.*.max_retries must be >= 0")
	}
	if c.Naming.FilenameMaxLength <= 0 {
		problems = append(problems, "naming.filename_max_length must be > 0")
	}
	switch domain.CollisionStrategy(c.Export.CollisionStrategy) {
	case domain.CollisionRename, domain.CollisionSkip, domain.CollisionOverwrite:
	default:
		problems = append(problems, "export.collision_strategy must be one of rename, skip, overwrite")
	}
	if c.Export.URLExpirySecs < 0 || c.Export.URLExpirySecs > 7*24*3600 {
		problems = append(problems, "export.url_expiry_secs must be in [0,604800]")
	}
	switch c.Export.Provider {
	case "none", "local", "s3":
	default:
		problems = append(problems, "export.provider must be one of none, local, s3")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
