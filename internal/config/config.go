package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	// Data: directorio donde viven los archivos de particiones,
	// alianzas y mercado.
	Data struct {
		Root string `yaml:"root"`
	} `yaml:"data"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	// Bot: conexión saliente hacia la plataforma de chat y lista de
	// superusuarios que pueden ejecutar comandos administrativos.
	Bot struct {
		APIBase string   `yaml:"api_base"`
		Token   string   `yaml:"token"`
		Admins  []string `yaml:"admins"`
		Timeout string   `yaml:"timeout"`
	} `yaml:"bot"`

	Game struct {
		// Ventana de frescura de la caché del ranking.
		RankingTTL string `yaml:"ranking_ttl"`
		// Semilla fija para pruebas; 0 = aleatoria.
		Seed int64 `yaml:"seed"`
	} `yaml:"game"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Data.Root == "" {
		c.Data.Root = "./data/niuniu" // default for development
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Bot.Timeout == "" {
		c.Bot.Timeout = "5s"
	}
	if c.Game.RankingTTL == "" {
		c.Game.RankingTTL = "60s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	// validate string durations
	for _, d := range []string{c.Cache.Memory.DefaultTTL, c.Bot.Timeout, c.Game.RankingTTL} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, fmt.Errorf("config: duración inválida %q: %w", d, err)
		}
	}

	// Overrides por env
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Normalizar data root (si relativa) respecto al directorio del YAML
	if p := strings.TrimSpace(c.Data.Root); p != "" && !filepath.IsAbs(p) {
		base := filepath.Dir(path)
		c.Data.Root = filepath.Clean(filepath.Join(base, p))
	}

	return &c, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvInt64(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// DATA
	if v, ok := getEnvStr("DATA_ROOT"); ok {
		c.Data.Root = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// BOT
	if v, ok := getEnvStr("BOT_API_BASE"); ok {
		c.Bot.APIBase = v
	}
	if v, ok := getEnvStr("BOT_TOKEN"); ok {
		c.Bot.Token = v
	}
	if v, ok := getEnvCSV("BOT_ADMINS"); ok {
		c.Bot.Admins = v
	}
	if v, ok := getEnvStr("BOT_TIMEOUT"); ok {
		c.Bot.Timeout = v
	}

	// GAME
	if v, ok := getEnvStr("GAME_RANKING_TTL"); ok {
		c.Game.RankingTTL = v
	}
	if v, ok := getEnvInt64("GAME_SEED"); ok {
		c.Game.Seed = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
}

// Validate valida los valores críticos de configuración.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Cache.Kind) {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: cache.kind desconocido %q", c.Cache.Kind)
	}
	if strings.ToLower(c.Cache.Kind) == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return fmt.Errorf("config: cache.redis.addr requerido con kind=redis")
	}
	return nil
}

// IsAdmin reporta si user está en la lista de superusuarios.
func (c *Config) IsAdmin(user string) bool {
	for _, a := range c.Bot.Admins {
		if a == user {
			return true
		}
	}
	return false
}
