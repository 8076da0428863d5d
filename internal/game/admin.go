package game

import (
	"context"
	"fmt"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/metrics"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
	"github.com/Superskyyy/niuniu-plus/internal/stock"
)

// adminReset limpia todos los registros del grupo (solo el grupo que
// lo pide; el flag de habilitado se conserva).
func (s *Service) adminReset(ev Event) (string, error) {
	if !s.isAdmin(ev.UserID) {
		return msgNoPermission, nil
	}
	c, err := s.parts.Load()
	if err != nil {
		return "", err
	}
	p, ok := c[ev.GroupID]
	if !ok || len(p.Users) == 0 {
		return fmt.Sprintf(msgResetAll, 0), nil
	}
	n := len(p.Users)
	p.Users = map[string]*types.UserRecord{}
	if err := s.parts.Save(c); err != nil {
		return "", err
	}
	metrics.PartitionSaves.Inc()
	s.log.Info("group reset", logger.GroupID(ev.GroupID), logger.Count(n))
	return fmt.Sprintf(msgResetAll, n), nil
}

// adminRedPacket reparte monedas a cada usuario registrado del grupo:
// un monto fijo si viene como argumento, o aleatorio (10-100) si no.
// Avisa a la alianza si la hay.
func (s *Service) adminRedPacket(ctx context.Context, ev Event, args []string) (string, error) {
	if !s.isAdmin(ev.UserID) {
		return msgNoPermission, nil
	}

	fixed := 0
	if len(args) > 0 {
		n, ok := parseInt(args[0])
		if !ok || n <= 0 {
			return "❌ 红包金额要是正整数", nil
		}
		fixed = n
	}

	c, err := s.parts.Load()
	if err != nil {
		return "", err
	}
	p, ok := c[ev.GroupID]
	if !ok || len(p.Users) == 0 {
		return "❌ 本群还没有注册用户", nil
	}

	var total int
	for uid := range p.Users {
		amount := fixed
		if amount == 0 {
			amount = 10 + s.rng.Intn(91)
		}
		total += amount
		batch := types.Batch{types.DeltaField{Name: "coins", Delta: float64(amount)}}
		if err := s.sync.Apply(ev.GroupID, uid, batch); err != nil {
			return "", err
		}
	}

	// El mercado celebra con todos.
	if _, _, _, err := s.market.Nudge(ev.GroupID, stock.EventGlobal, 1, 1, "牛牛红包", ""); err != nil {
		s.log.Warn("market nudge failed", logger.Err(err))
	}
	_ = s.bcast.Broadcast(ctx, ev.GroupID, "🧧 隔壁群发牛牛红包啦！羡慕吗？", true)

	return fmt.Sprintf("🧧 红包雨！%d位用户共领取 %d 金币", len(p.Users), total), nil
}

// adminSubsidy completa hasta 100 monedas a los usuarios pobres del
// grupo.
func (s *Service) adminSubsidy(ctx context.Context, ev Event) (string, error) {
	if !s.isAdmin(ev.UserID) {
		return msgNoPermission, nil
	}

	c, err := s.parts.Load()
	if err != nil {
		return "", err
	}
	p, ok := c[ev.GroupID]
	if !ok || len(p.Users) == 0 {
		return "❌ 本群还没有注册用户", nil
	}

	const floor = 100
	var helped int
	for uid := range p.Users {
		rec, err := s.viewUserIn(c, ev.GroupID, uid)
		if err != nil {
			return "", err
		}
		if rec == nil || rec.Coins >= floor {
			continue
		}
		batch := types.Batch{types.DeltaField{Name: "coins", Delta: float64(floor - rec.Coins)}}
		if err := s.sync.Apply(ev.GroupID, uid, batch); err != nil {
			return "", err
		}
		helped++
	}
	if helped == 0 {
		return "💰 本群没有需要补贴的牛牛，大家都很富", nil
	}
	return fmt.Sprintf("💰 扶贫补贴发放完毕！%d位用户回到 %d 金币", helped, floor), nil
}

// adminBailout mete o saca plata del mercado del grupo en nombre del
// 国家队: monto positivo empuja el precio hacia arriba, negativo lo
// hunde. El impacto crece logarítmico con el monto.
func (s *Service) adminBailout(ev Event, args []string) (string, error) {
	if !s.isAdmin(ev.UserID) {
		return msgNoPermission, nil
	}
	if len(args) == 0 {
		return "❌ 用法：牛牛救市 <金币>（负数砸盘）", nil
	}
	coins, err := parseFloat(args[0])
	if err != nil || coins == 0 {
		return "❌ 金额要是非零数字", nil
	}

	oldP, newP, pct, err := s.market.Bailout(ev.GroupID, coins, "牛牛国家队")
	if err != nil {
		return fmt.Sprintf("❌ %v", err), nil
	}
	verb := "救市"
	if coins < 0 {
		verb = "砸盘"
	}
	s.log.Info("market bailout",
		logger.GroupID(ev.GroupID),
		logger.UserID(ev.UserID),
		logger.Any("coins", coins),
	)
	return fmt.Sprintf("🏛️ 国家队%s！注入 %.0f 金币\n💵 股价 %.2f → %.2f (%+.2f%%)",
		verb, coins, oldP, newP, pct), nil
}
