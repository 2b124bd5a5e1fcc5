package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inEmptyDir runs the test from a directory without a .env file.
func inEmptyDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("TELEGRAM_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "coffee_shop.db", cfg.DatabaseURL)
	assert.Equal(t, ModePolling, cfg.TelegramMode)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "coffee_shop:orders", cfg.OrderEventsChannel)
	assert.Equal(t, 86400, cfg.UpdateDedupTTL)
	assert.Equal(t, "Europe/Moscow", cfg.Shop.Timezone)
	assert.Equal(t, 150.0, cfg.Shop.DeliveryFee)
}

func TestLoadFromEnvironment(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_CHAT_ID", "-1001234567890")
	t.Setenv("DATABASE_URL", "postgres://shop@localhost/shop")
	t.Setenv("TELEGRAM_MODE", "WEBHOOK")
	t.Setenv("TELEGRAM_WEBHOOK_URL", "https://shop.example/api/telegram/webhook")
	t.Setenv("SHOP_MIN_ORDER", "450.5")
	t.Setenv("POSTERIX_COMPANY", "77")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, int64(-1001234567890), cfg.AdminChatID)
	assert.Equal(t, "postgres://shop@localhost/shop", cfg.DatabaseURL)
	assert.Equal(t, ModeWebhook, cfg.TelegramMode)
	assert.Equal(t, 450.5, cfg.Shop.MinOrder)
	assert.Equal(t, 77, cfg.PosterixCompany)
}

func TestLoadReadsDotEnv(t *testing.T) {
	inEmptyDir(t)
	require.NoError(t, os.WriteFile(".env", []byte("SHOP_NAME=Dot Env Coffee\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SHOP_NAME") })
	t.Setenv("TELEGRAM_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Dot Env Coffee", cfg.Shop.Name)
}

func TestLoadReadsConfigFile(t *testing.T) {
	inEmptyDir(t)
	file := filepath.Join(t.TempDir(), "coffee.yaml")
	require.NoError(t, os.WriteFile(file, []byte("SHOP_NAME: Yaml Coffee\nSERVER_PORT: \"9090\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("TELEGRAM_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Yaml Coffee", cfg.Shop.Name)
	assert.Equal(t, "7070", cfg.ServerPort, "environment wins over the config file")
}

func TestLoadSkipsServerValidation(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("TELEGRAM_MODE", "webhook")
	t.Setenv("TELEGRAM_WEBHOOK_URL", "")
	t.Setenv("POSTERIX_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.PosterixToken)
	assert.Error(t, cfg.ValidateServer())
}

func TestValidateServer(t *testing.T) {
	valid := Config{BotToken: "123:abc", TelegramMode: ModePolling}
	assert.NoError(t, valid.ValidateServer())

	noToken := valid
	noToken.BotToken = ""
	assert.ErrorContains(t, noToken.ValidateServer(), "BOT_TOKEN")

	webhook := valid
	webhook.TelegramMode = ModeWebhook
	assert.ErrorContains(t, webhook.ValidateServer(), "TELEGRAM_WEBHOOK_URL")

	webhook.TelegramWebhookURL = "https://shop.example/api/telegram/webhook"
	assert.NoError(t, webhook.ValidateServer())

	unknown := valid
	unknown.TelegramMode = "carrier-pigeon"
	assert.ErrorContains(t, unknown.ValidateServer(), "unknown TELEGRAM_MODE")
}
