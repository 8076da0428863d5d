package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
	"github.com/Superskyyy/niuniu-plus/internal/stock"
)

const (
	dajiaoCooldown  = 600  // 10 minutos
	dajiaoBonusWait = 1200 // esperar 20+ minutos mejora la banda
)

// dajiao resuelve un 打胶: bandas de probabilidad según el tiempo
// esperado, eventos raros y bono diario, más el empujón al mercado.
func (s *Service) dajiao(ctx context.Context, ev Event) (string, error) {
	rec, err := s.viewUser(ev.GroupID, ev.UserID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return msgNotRegistered, nil
	}

	now := s.now()
	elapsed := now - rec.LastDajiao
	if rec.LastDajiao > 0 && elapsed < dajiaoCooldown {
		wait := (dajiaoCooldown - elapsed + 59) / 60
		return fmt.Sprintf(msgDajiaoCooldown, wait), nil
	}

	var lines []string
	var delta float64
	var coins int
	hardness := rec.Hardness

	// Banda temprana (10-20min): 40% sube 2-10, 30% baja 1-3.
	// Banda tardía (20min+): 70% sube 4-12 con +1 dureza, 20% baja 1-2.
	roll := s.rng.Float64()
	late := rec.LastDajiao == 0 || elapsed >= dajiaoBonusWait
	if late {
		switch {
		case roll < 0.7:
			delta = float64(4 + s.rng.Intn(9))
			hardness++
			lines = append(lines, fmt.Sprintf("🚀 耐心等待有回报！牛牛增长 %s，硬度+1", types.FormatLengthChange(delta)))
		case roll < 0.9:
			delta = -float64(1 + s.rng.Intn(2))
			lines = append(lines, fmt.Sprintf("💥 用力过猛！牛牛缩短 %s", types.FormatLengthChange(delta)))
		default:
			lines = append(lines, "😶 这次什么都没发生……")
		}
	} else {
		switch {
		case roll < 0.4:
			delta = float64(2 + s.rng.Intn(9))
			lines = append(lines, fmt.Sprintf("📈 打胶成功！牛牛增长 %s", types.FormatLengthChange(delta)))
		case roll < 0.7:
			delta = -float64(1 + s.rng.Intn(3))
			lines = append(lines, fmt.Sprintf("📉 手法生疏，牛牛缩短 %s", types.FormatLengthChange(delta)))
		default:
			lines = append(lines, "😶 平平无奇的一次打胶")
		}
	}

	// Hora del día: la franja matutina suma 1cm extra al éxito.
	if delta > 0 {
		if h := time.Unix(now, 0).Hour(); h >= 6 && h < 9 {
			delta++
			lines = append(lines, "🌄 早间时间加成 +1cm")
		}
	}

	// Eventos raros: una sola tirada repartida en bandas.
	switch rollRare(s.rng.Float64(), delta) {
	case rareCrit:
		delta *= 3
		lines = append(lines, "⚡ 暴击！增长三倍！")
	case rareFumble:
		delta *= 2
		lines = append(lines, "🤕 失手！损失加倍……")
	case rareAwaken:
		up := 1 + s.rng.Intn(2)
		hardness += up
		lines = append(lines, fmt.Sprintf("💎 硬度觉醒！硬度 +%d", up))
	case rareCoins:
		coins = 10 + s.rng.Intn(21)
		lines = append(lines, fmt.Sprintf("💰 捡到了 %d 金币！", coins))
	}

	// Bono diario: primera vez del día (+2cm).
	if firstOfDay(rec.LastDajiao, now) {
		delta += 2
		lines = append(lines, msgDajiaoFirst)
	}

	nextCooldown := now
	// Distorsión temporal: 2% de resetear el cooldown.
	if s.rng.Float64() < 0.02 {
		nextCooldown = 0
		lines = append(lines, "🌀 时间扭曲！冷却已重置，马上可以再来一次")
	}

	if hardness > types.HardnessCeil {
		hardness = types.HardnessCeil
	}

	batch := types.Batch{
		types.DeltaField{Name: "length", Delta: delta},
		types.SetField{Name: "hardness", Value: float64(hardness)},
		types.SetField{Name: "last_dajiao", Value: float64(nextCooldown)},
		types.Touch{At: now},
	}
	if coins > 0 {
		batch = append(batch, types.DeltaField{Name: "coins", Delta: float64(coins)})
	}
	if err := s.sync.Apply(ev.GroupID, ev.UserID, batch); err != nil {
		return "", err
	}
	s.invalidateRanking(ctx, ev.GroupID)

	// El mercado reacciona al resultado.
	dir := 0
	if delta > 0 {
		dir = 1
	} else if delta < 0 {
		dir = -1
	}
	if dir != 0 {
		if _, _, _, err := s.market.Nudge(ev.GroupID, stock.EventDajiao, dir, 1, ev.Nickname, ""); err != nil {
			s.log.Warn("market nudge failed", logger.Err(err))
		}
	}

	after, err := s.viewUser(ev.GroupID, ev.UserID)
	if err == nil && after != nil {
		lines = append(lines, fmt.Sprintf("📏 当前长度: %s｜硬度: %d", types.FormatLength(after.Length), after.Hardness))
	}
	return strings.Join(lines, "\n"), nil
}

type rareEvent int

const (
	rareNone rareEvent = iota
	rareCrit
	rareFumble
	rareAwaken
	rareCoins
)

// rollRare asigna la tirada a un evento raro: crítico 3% (solo si hubo
// ganancia), pifia 2% (solo si hubo pérdida), despertar de dureza 5% y
// monedas 8%. Las bandas se corren según el signo para que cada evento
// conserve su probabilidad exacta.
func rollRare(r, delta float64) rareEvent {
	cut := 0.0
	switch {
	case delta > 0:
		cut = 0.03
		if r < cut {
			return rareCrit
		}
	case delta < 0:
		cut = 0.02
		if r < cut {
			return rareFumble
		}
	}
	if r < cut+0.05 {
		return rareAwaken
	}
	if r < cut+0.13 {
		return rareCoins
	}
	return rareNone
}

// firstOfDay reporta si last cae en un día (hora local) anterior a now.
func firstOfDay(last, now int64) bool {
	if last == 0 {
		return true
	}
	l, n := time.Unix(last, 0), time.Unix(now, 0)
	return l.YearDay() != n.YearDay() || l.Year() != n.Year()
}
