package game

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Superskyyy/niuniu-plus/internal/alliance"
	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
	"github.com/Superskyyy/niuniu-plus/internal/stock"
)

const (
	compareCooldown = 600
	minBet          = 10
	maxBet          = 10000
	betMultiplier   = 1.8
)

// compare resuelve un 比划 contra otro usuario del scope. Uso:
// 比划 <apodo> [赌注].
func (s *Service) compare(ctx context.Context, ev Event, args []string) (string, error) {
	if len(args) == 0 {
		return "❌ 要和谁比划？用法：比划 <对方昵称> [赌注]", nil
	}
	targetName := args[0]
	bet := 0
	if len(args) > 1 {
		if n, ok := parseInt(args[1]); ok {
			bet = n
		}
	}

	me, err := s.viewUser(ev.GroupID, ev.UserID)
	if err != nil {
		return "", err
	}
	if me == nil {
		return msgNotRegistered, nil
	}

	now := s.now()
	if me.LastCompare > 0 && now-me.LastCompare < compareCooldown {
		wait := (compareCooldown - (now - me.LastCompare) + 59) / 60
		return fmt.Sprintf(msgCompareCooldown, wait), nil
	}

	targetID, target, err := s.findByNickname(ev.GroupID, targetName)
	if err != nil {
		return "", err
	}
	if target == nil {
		return fmt.Sprintf(msgCompareNoTarget, targetName), nil
	}
	if targetID == ev.UserID {
		return msgCompareSelf, nil
	}

	if bet != 0 {
		if bet < minBet || bet > maxBet {
			return fmt.Sprintf(msgBetRange, minBet, maxBet), nil
		}
		if me.Coins < bet {
			return fmt.Sprintf(msgBetInsufficient, me.Coins), nil
		}
		if target.Coins < bet {
			return fmt.Sprintf("❌ 对方金币不足 %d，无法接受赌注", bet), nil
		}
	}

	var lines []string

	// Empate posible cuando están parejos.
	diff := me.Length - target.Length
	if math.Abs(diff) < 5 && s.rng.Float64() < 0.075 {
		batch := types.Batch{
			types.SetField{Name: "last_compare", Value: float64(now)},
			types.Touch{At: now},
		}
		if err := s.sync.Apply(ev.GroupID, ev.UserID, batch); err != nil {
			return "", err
		}
		return msgCompareDraw, nil
	}

	winProb := compareWinProb(me, target)
	iWin := s.rng.Float64() < winProb

	winner, loser := me, target
	winnerID, loserID := ev.UserID, targetID
	if !iWin {
		winner, loser = target, me
		winnerID, loserID = targetID, ev.UserID
	}

	gain := float64(s.rng.Intn(4))     // 0-3
	loss := float64(1 + s.rng.Intn(2)) // 1-2

	// Protección de racha: con 3+ derrotas seguidas no se pierde largo.
	protected := loser.LoseStreak >= 3
	if protected {
		loss = 0
		lines = append(lines, "🛡️ 连败保护发动，败者未损失长度")
	}

	// Saqueo: diferencia grande transfiere 20% del largo del perdedor.
	var plunder float64
	if winner.Length-loser.Length > 10 && loser.Length > 0 {
		plunder = math.Round(loser.Length*0.2*10) / 10
		lines = append(lines, fmt.Sprintf("🏴‍☠️ 掠夺发动！夺走对方 %s", types.FormatLength(plunder)))
	}

	winnerBatch := types.Batch{
		types.DeltaField{Name: "length", Delta: gain + plunder},
		types.SetField{Name: "win_streak", Value: float64(winner.WinStreak + 1)},
		types.SetField{Name: "lose_streak", Value: 0},
	}
	loserBatch := types.Batch{
		types.DeltaField{Name: "length", Delta: -(loss + plunder)},
		types.SetField{Name: "win_streak", Value: 0},
		types.SetField{Name: "lose_streak", Value: float64(loser.LoseStreak + 1)},
	}

	// Desgaste de dureza: 30% de perder un punto cada uno.
	for i, b := range []*types.Batch{&winnerBatch, &loserBatch} {
		rec := winner
		if i == 1 {
			rec = loser
		}
		if s.rng.Float64() < 0.3 && rec.Hardness > types.HardnessFloor {
			*b = append(*b, types.SetField{Name: "hardness", Value: float64(rec.Hardness - 1)})
		}
	}

	if bet > 0 {
		prize := int(math.Round(float64(bet) * betMultiplier))
		winnerBatch = append(winnerBatch, types.DeltaField{Name: "coins", Delta: float64(prize - bet)})
		loserBatch = append(loserBatch, types.DeltaField{Name: "coins", Delta: -float64(bet)})
		lines = append(lines, fmt.Sprintf("🎰 赌注结算：赢家 +%d 金币，输家 -%d 金币", prize-bet, bet))
	}

	// El cooldown y la actividad son del iniciador.
	initiator := &winnerBatch
	if !iWin {
		initiator = &loserBatch
	}
	*initiator = append(*initiator,
		types.SetField{Name: "last_compare", Value: float64(now)},
		types.Touch{At: now},
	)

	if err := s.sync.Apply(ev.GroupID, winnerID, winnerBatch); err != nil {
		return "", err
	}
	if err := s.sync.Apply(ev.GroupID, loserID, loserBatch); err != nil {
		return "", err
	}
	s.invalidateRanking(ctx, ev.GroupID)

	dir := -1
	if iWin {
		dir = 1
	}
	if _, _, _, err := s.market.Nudge(ev.GroupID, stock.EventCompare, dir, 1, ev.Nickname, ""); err != nil {
		s.log.Warn("market nudge failed", logger.Err(err))
	}

	head := fmt.Sprintf("⚔️ %s vs %s\n🏆 %s 获胜！(胜率 %.0f%%)",
		me.Nickname, target.Nickname, winner.Nickname, winProb*100)
	body := fmt.Sprintf("📈 赢家 %s｜📉 输家 %s",
		types.FormatLengthChange(gain+plunder), types.FormatLengthChange(-(loss + plunder)))
	out := append([]string{head, body}, lines...)
	return strings.Join(out, "\n"), nil
}

// compareWinProb: base 50%, el largo pesa hasta ±20%, cada punto de
// dureza de diferencia ±5%, rachas ajustan, acotado a [20%,80%].
func compareWinProb(me, other *types.UserRecord) float64 {
	p := 0.5

	total := math.Abs(me.Length) + math.Abs(other.Length)
	if total > 0 {
		p += (me.Length - other.Length) / total * 0.2
	}
	p += float64(me.Hardness-other.Hardness) * 0.05

	if me.WinStreak >= 3 {
		p += 0.05
	}
	if me.LoseStreak >= 3 {
		p += 0.10
	}

	return math.Max(0.2, math.Min(0.8, p))
}

// findByNickname busca un usuario del scope por apodo exacto (o por id
// cuando el arg es un id crudo). Si el grupo está federado busca en la
// vista merged de cada usuario conocido del scope.
func (s *Service) findByNickname(groupID, name string) (string, *types.UserRecord, error) {
	c, err := s.parts.Load()
	if err != nil {
		return "", nil, err
	}
	groups, a, err := s.scopeGroups(groupID)
	if err != nil {
		return "", nil, err
	}

	name = strings.TrimPrefix(name, "@")
	seen := map[string]bool{}
	for _, gid := range groups {
		p, ok := c[gid]
		if !ok {
			continue
		}
		for uid, rec := range p.Users {
			if seen[uid] {
				continue
			}
			seen[uid] = true
			if rec.Nickname != name && uid != name {
				continue
			}
			if a != nil {
				if merged, ok := alliance.Merge(uid, a, c); ok {
					return uid, merged, nil
				}
				continue
			}
			return uid, rec.Clone(), nil
		}
	}
	return "", nil, nil
}
