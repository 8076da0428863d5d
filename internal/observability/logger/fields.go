package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos tipados comunes. Usar estos en lugar de zap.String directo
// para mantener nombres consistentes en todos los logs.

func RequestID(id string) zap.Field  { return zap.String("request_id", id) }
func Method(m string) zap.Field      { return zap.String("method", m) }
func Path(p string) zap.Field        { return zap.String("path", p) }
func Status(code int) zap.Field      { return zap.Int("status", code) }
func ClientIP(ip string) zap.Field   { return zap.String("client_ip", ip) }
func Duration(d time.Duration) zap.Field { return zap.Duration("duration", d) }

func GroupID(id string) zap.Field    { return zap.String("group_id", id) }
func UserID(id string) zap.Field     { return zap.String("user_id", id) }
func AllianceID(id string) zap.Field { return zap.String("alliance_id", id) }
func Command(cmd string) zap.Field   { return zap.String("command", cmd) }

func Component(name string) zap.Field { return zap.String("component", name) }
func Op(name string) zap.Field        { return zap.String("op", name) }
func Count(n int) zap.Field           { return zap.Int("count", n) }
func Err(err error) zap.Field         { return zap.Error(err) }
func Any(key string, v interface{}) zap.Field { return zap.Any(key, v) }
