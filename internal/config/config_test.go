package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCfg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeCfg(t, "server:\n  addr: \"\"\n"))
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Cache.Kind)
	require.Equal(t, "60s", cfg.Game.RankingTTL)
	require.Equal(t, "info", cfg.Log.Level)
	require.True(t, filepath.IsAbs(cfg.Data.Root), "data root relativa se ancla al dir del YAML")
}

func TestLoadFull(t *testing.T) {
	cfg, err := Load(writeCfg(t, `
app:
  app_env: prod
server:
  addr: ":9090"
data:
  root: /var/lib/niuniu
cache:
  kind: redis
  redis:
    addr: localhost:6379
    db: 2
    prefix: "niuniu:"
bot:
  api_base: http://localhost:5700
  token: tok
  admins: ["11", "22"]
game:
  ranking_ttl: 30s
  seed: 7
log:
  level: debug
`))
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.App.Env)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "/var/lib/niuniu", cfg.Data.Root)
	require.Equal(t, int64(7), cfg.Game.Seed)
	require.True(t, cfg.IsAdmin("11"))
	require.False(t, cfg.IsAdmin("33"))
}

func TestLoadRejectsBadDuration(t *testing.T) {
	_, err := Load(writeCfg(t, "game:\n  ranking_ttl: nope\n"))
	require.Error(t, err)
}

func TestLoadRejectsRedisWithoutAddr(t *testing.T) {
	_, err := Load(writeCfg(t, "cache:\n  kind: redis\n"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("BOT_ADMINS", "1, 2 ,3")
	t.Setenv("GAME_SEED", "99")

	cfg, err := Load(writeCfg(t, "server:\n  addr: \":9090\"\n"))
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, []string{"1", "2", "3"}, cfg.Bot.Admins)
	require.Equal(t, int64(99), cfg.Game.Seed)
}
