package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/limmweb/instagram-ai-commentator/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"OPENAI_API_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "INSTAGRAM_GATEWAY_URL", "STATUS_TOKEN"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "openai_api_key: sk-test\ngateway_url: http://localhost:8000\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Minute, 10 * time.Minute, 20 * time.Minute, time.Hour, 2 * time.Hour, 5 * time.Hour}, cfg.SleepIntervals())
	assert.Equal(t, 3*time.Minute, cfg.Cooldown())
	assert.Equal(t, 3*time.Hour, cfg.RateLimitSleep())
	assert.Equal(t, 24*time.Hour, cfg.PostCutoff())
	assert.Equal(t, [2]time.Duration{time.Second, 2 * time.Second}, cfg.DelayBetweenUsers())
	assert.Equal(t, [2]time.Duration{180 * time.Second, 300 * time.Second}, cfg.DelayBetweenComments())
	assert.Equal(t, []models.MediaType{models.MediaPhoto, models.MediaVideo, models.MediaAlbum}, cfg.MediaTypes())
	assert.Equal(t, 30, cfg.MinCaptionLength)
	assert.Equal(t, 3, cfg.PostsPerAccount)
	assert.Equal(t, "Sessions", cfg.SessionsDir)
	assert.Equal(t, "commented.txt", cfg.CommentedLog)
	assert.Equal(t, language.English, cfg.Language())
	assert.Equal(t, "gpt-4o-mini", cfg.AI().Model)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100500")
	t.Setenv("INSTAGRAM_GATEWAY_URL", "http://gw")
	path := writeConfig(t, "openai_api_key: sk-file\nfallback_language: de\nposts_per_account: 5\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenAIAPIKey)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, int64(-100500), cfg.TelegramChatID)
	assert.Equal(t, "http://gw", cfg.GatewayURL)
	assert.Equal(t, 5, cfg.PostsPerAccount)
	assert.Equal(t, language.German, cfg.Language())
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("INSTAGRAM_GATEWAY_URL", "http://gw")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "logs", cfg.LogsDir)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"нет ключа OpenAI", "gateway_url: http://gw\n"},
		{"нет адреса шлюза", "openai_api_key: k\n"},
		{"min больше max", "openai_api_key: k\ngateway_url: http://gw\ndelay_between_comments_seconds: [300, 180]\n"},
		{"неизвестный тип поста", "openai_api_key: k\ngateway_url: http://gw\npost_types: [1, 5]\n"},
		{"неверный язык", "openai_api_key: k\ngateway_url: http://gw\nfallback_language: '###'\n"},
		{"отрицательная пауза", "openai_api_key: k\ngateway_url: http://gw\nsleep_intervals_minutes: [5, -1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadChatID(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err := Load(writeConfig(t, "openai_api_key: k\ngateway_url: http://gw\n"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/commenter.yaml")
	assert.Equal(t, "/etc/commenter.yaml", Path())
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, "./config.yaml", Path())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))

	t.Setenv("DOTENV_TEST_VALUE", "")
	os.Unsetenv("DOTENV_TEST_VALUE")
	good := filepath.Join(dir, "good.env")
	require.NoError(t, os.WriteFile(good, []byte("DOTENV_TEST_VALUE=42\n"), 0o600))
	require.NoError(t, loadDotEnv(good))
	assert.Equal(t, "42", os.Getenv("DOTENV_TEST_VALUE"))

	// каталог вместо файла: ошибка чтения не теряется
	assert.Error(t, loadDotEnv(dir))
}
