package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/limmweb/instagram-ai-commentator/models"
	"github.com/limmweb/instagram-ai-commentator/pkg/ai"
)

// EnvConfigPath — переменная окружения с путём к файлу настроек.
const EnvConfigPath = "COMMENTER_CONFIG"

// Config — настройки приложения. Пустые поля заполняются значениями по умолчанию.
type Config struct {
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	GatewayURL    string `yaml:"gateway_url"`

	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	SleepIntervalsMinutes       []int `yaml:"sleep_intervals_minutes"`
	CooldownMinutes             int   `yaml:"cooldown_minutes"`
	RateLimitSleepHours         int   `yaml:"rate_limit_sleep_hours"`
	DelayBetweenUsersSeconds    []int `yaml:"delay_between_users_seconds"`
	DelayBetweenCommentsSeconds []int `yaml:"delay_between_comments_seconds"`
	PostCutoffHours             int   `yaml:"post_cutoff_hours"`
	PostsPerAccount             int   `yaml:"posts_per_account"`
	PostTypes                   []int `yaml:"post_types"`
	MinCaptionLength            int   `yaml:"min_caption_length"`

	OpenAIModel       string  `yaml:"openai_model"`
	CostPerToken      float64 `yaml:"cost_per_token"`
	DescribeMaxTokens int64   `yaml:"describe_max_tokens"`
	CommentMaxTokens  int64   `yaml:"comment_max_tokens"`
	FallbackLanguage  string  `yaml:"fallback_language"`
	Persona           string  `yaml:"persona"`

	SessionsDir  string `yaml:"sessions_dir"`
	LogsDir      string `yaml:"logs_dir"`
	CommentedLog string `yaml:"commented_log"`
	StatusAddr   string `yaml:"status_addr"`
	StatusToken  string `yaml:"status_token"`
	LogLevel     string `yaml:"log_level"`

	// EnvFileErr — ошибка чтения .env; не фатальна, журналируется после создания логгера.
	EnvFileErr error `yaml:"-"`
}

// Path возвращает путь к файлу настроек из окружения или путь по умолчанию.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return "./config.yaml"
}

// Load читает .env (если есть) и YAML-файл. Отсутствие файла не ошибка:
// тогда берутся значения по умолчанию и переменные окружения.
func Load(path string) (*Config, error) {
	envErr := loadDotEnv()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, errors.Wrap(err, "read config file")
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config yaml")
		}
	}

	cfg.EnvFileErr = envErr
	applyDefaults(cfg)
	if err := applyEnvironmentOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return cfg, nil
}

// loadDotEnv загружает переменные из .env; отсутствие файлов не ошибка.
func loadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.SleepIntervalsMinutes) == 0 {
		cfg.SleepIntervalsMinutes = []int{5, 10, 20, 60, 120, 300}
	}
	if cfg.CooldownMinutes == 0 {
		cfg.CooldownMinutes = 3
	}
	if cfg.RateLimitSleepHours == 0 {
		cfg.RateLimitSleepHours = 3
	}
	if len(cfg.DelayBetweenUsersSeconds) == 0 {
		cfg.DelayBetweenUsersSeconds = []int{1, 2}
	}
	if len(cfg.DelayBetweenCommentsSeconds) == 0 {
		cfg.DelayBetweenCommentsSeconds = []int{180, 300}
	}
	if cfg.PostCutoffHours == 0 {
		cfg.PostCutoffHours = 24
	}
	if cfg.PostsPerAccount == 0 {
		cfg.PostsPerAccount = 3
	}
	if len(cfg.PostTypes) == 0 {
		cfg.PostTypes = []int{int(models.MediaPhoto), int(models.MediaVideo), int(models.MediaAlbum)}
	}
	if cfg.MinCaptionLength == 0 {
		cfg.MinCaptionLength = 30
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = ai.DefaultModel
	}
	if cfg.CostPerToken == 0 {
		cfg.CostPerToken = ai.DefaultCostPerToken
	}
	if cfg.DescribeMaxTokens == 0 {
		cfg.DescribeMaxTokens = 300
	}
	if cfg.CommentMaxTokens == 0 {
		cfg.CommentMaxTokens = 120
	}
	if cfg.FallbackLanguage == "" {
		cfg.FallbackLanguage = "en"
	}
	if cfg.Persona == "" {
		cfg.Persona = ai.DefaultPersona
	}
	if cfg.SessionsDir == "" {
		cfg.SessionsDir = "Sessions"
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = "logs"
	}
	if cfg.CommentedLog == "" {
		cfg.CommentedLog = "commented.txt"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) error {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, "parse TELEGRAM_CHAT_ID")
		}
		cfg.TelegramChatID = id
	}
	if v := os.Getenv("INSTAGRAM_GATEWAY_URL"); v != "" {
		cfg.GatewayURL = v
	}
	if v := os.Getenv("STATUS_TOKEN"); v != "" {
		cfg.StatusToken = v
	}
	return nil
}

// Validate проверяет обязательные поля и диапазоны.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return errors.New("openai_api_key is required")
	}
	if c.GatewayURL == "" {
		return errors.New("gateway_url is required")
	}
	for _, m := range c.SleepIntervalsMinutes {
		if m <= 0 {
			return errors.Errorf("sleep_intervals_minutes must be positive, got %d", m)
		}
	}
	if err := checkRange("delay_between_users_seconds", c.DelayBetweenUsersSeconds); err != nil {
		return err
	}
	if err := checkRange("delay_between_comments_seconds", c.DelayBetweenCommentsSeconds); err != nil {
		return err
	}
	for _, t := range c.PostTypes {
		switch models.MediaType(t) {
		case models.MediaPhoto, models.MediaVideo, models.MediaAlbum:
		default:
			return errors.Errorf("unknown post type %d", t)
		}
	}
	if _, err := language.Parse(c.FallbackLanguage); err != nil {
		return errors.Wrapf(err, "invalid fallback_language %q", c.FallbackLanguage)
	}
	return nil
}

func checkRange(name string, r []int) error {
	if len(r) != 2 {
		return errors.Errorf("%s must have two values [min, max]", name)
	}
	if r[0] < 0 || r[0] > r[1] {
		return errors.Errorf("%s: min must not exceed max, got %v", name, r)
	}
	return nil
}

// SleepIntervals — паузы при лимите запросов.
func (c *Config) SleepIntervals() []time.Duration {
	out := make([]time.Duration, len(c.SleepIntervalsMinutes))
	for i, m := range c.SleepIntervalsMinutes {
		out[i] = time.Duration(m) * time.Minute
	}
	return out
}

func (c *Config) Cooldown() time.Duration { return time.Duration(c.CooldownMinutes) * time.Minute }

func (c *Config) RateLimitSleep() time.Duration {
	return time.Duration(c.RateLimitSleepHours) * time.Hour
}

func (c *Config) PostCutoff() time.Duration { return time.Duration(c.PostCutoffHours) * time.Hour }

func (c *Config) DelayBetweenUsers() [2]time.Duration {
	return secondsRange(c.DelayBetweenUsersSeconds)
}

func (c *Config) DelayBetweenComments() [2]time.Duration {
	return secondsRange(c.DelayBetweenCommentsSeconds)
}

// MediaTypes — разрешённые типы постов.
func (c *Config) MediaTypes() []models.MediaType {
	out := make([]models.MediaType, len(c.PostTypes))
	for i, t := range c.PostTypes {
		out[i] = models.MediaType(t)
	}
	return out
}

// Language — язык комментария, если язык подписи не определить.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.FallbackLanguage)
	if err != nil {
		return language.English
	}
	return tag
}

// AI собирает параметры клиента OpenAI.
func (c *Config) AI() ai.Config {
	return ai.Config{
		APIKey:            c.OpenAIAPIKey,
		BaseURL:           c.OpenAIBaseURL,
		Model:             c.OpenAIModel,
		CostPerToken:      c.CostPerToken,
		DescribeMaxTokens: c.DescribeMaxTokens,
		CommentMaxTokens:  c.CommentMaxTokens,
		Persona:           c.Persona,
		FallbackLanguage:  c.Language(),
		MaxRetries:        2,
	}
}

func secondsRange(r []int) [2]time.Duration {
	return [2]time.Duration{time.Duration(r[0]) * time.Second, time.Duration(r[1]) * time.Second}
}
