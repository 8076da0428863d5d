package game

import (
	"fmt"
	"strings"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/stock"
)

// El mercado es por grupo: no participa del scope de alianzas, cada
// grupo tiene su propia 妖牛股.

func (s *Service) stockView(ev Event) (string, error) {
	price, err := s.market.Price(ev.GroupID)
	if err != nil {
		return "", err
	}
	held, err := s.market.Holdings(ev.GroupID, ev.UserID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n═══════════════\n💵 当前股价: %.2f/股\n",
		stock.StockEmoji, stock.StockName, price)
	if held > 0 {
		fmt.Fprintf(&b, "📦 你的持仓: %.4f股 (约%.0f金币)\n", held, held*price)
	}
	evs, err := s.market.Events(ev.GroupID, 5)
	if err != nil {
		return "", err
	}
	if len(evs) > 0 {
		b.WriteString("— 最近动态 —\n")
		for _, e := range evs {
			arrow := "📈"
			if e.Direction < 0 {
				arrow = "📉"
			}
			desc := e.Desc
			if desc == "" {
				desc = fmt.Sprintf("%s %s", e.Nickname, e.Type)
			}
			fmt.Fprintf(&b, "%s %s (%.2f%%)\n", arrow, desc, e.ChangePct)
		}
	}
	b.WriteString("发送「牛牛买股 <金币>」「牛牛卖股 [股数]」交易")
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Service) stockBuy(ev Event, args []string) (string, error) {
	if len(args) == 0 {
		return "❌ 用法：牛牛买股 <金币>", nil
	}
	coins, ok := parseInt(args[0])
	if !ok || coins <= 0 {
		return "❌ 金额要是正整数", nil
	}

	rec, err := s.viewUser(ev.GroupID, ev.UserID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return msgNotRegistered, nil
	}
	if rec.Coins < coins {
		return fmt.Sprintf("❌ 金币不够！当前 %d 金币", rec.Coins), nil
	}

	res, err := s.market.Buy(ev.GroupID, ev.UserID, float64(coins))
	if err != nil {
		return fmt.Sprintf("❌ %v", err), nil
	}
	batch := types.Batch{
		types.DeltaField{Name: "coins", Delta: -float64(coins)},
		types.Touch{At: s.now()},
	}
	if err := s.sync.Apply(ev.GroupID, ev.UserID, batch); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"✅ 购买成功！\n%s %s\n📦 +%.4f股\n💰 支付 %d金币 (含手续费 %.0f)\n📈 成交价 %.2f/股 (买入推高 +%.2f%%)",
		stock.StockEmoji, stock.StockName, res.Shares, coins, res.Fee, res.Price, res.ImpactPct,
	), nil
}

func (s *Service) stockSell(ev Event, args []string) (string, error) {
	var shares float64 // 0 = vender todo
	if len(args) > 0 && args[0] != "全部" {
		n, err := parseFloat(args[0])
		if err != nil || n <= 0 {
			return "❌ 股数要是正数，或用「全部」", nil
		}
		shares = n
	}

	rec, err := s.viewUser(ev.GroupID, ev.UserID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return msgNotRegistered, nil
	}

	avg, err := s.scopeAverageCoins(ev.GroupID)
	if err != nil {
		return "", err
	}

	res, err := s.market.Sell(ev.GroupID, ev.UserID, shares, avg)
	if err != nil {
		return fmt.Sprintf("❌ %v", err), nil
	}
	batch := types.Batch{
		types.DeltaField{Name: "coins", Delta: res.Net},
		types.Touch{At: s.now()},
	}
	if err := s.sync.Apply(ev.GroupID, ev.UserID, batch); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ 卖出成功！\n%s %s\n📦 -%.4f股\n📉 成交价 %.2f/股 (卖出压低 -%.2f%%)\n💵 卖出总额 %.0f金币\n",
		stock.StockEmoji, stock.StockName, res.Shares, res.Price, res.ImpactPct, res.Gross)
	if res.Profit >= 0 {
		fmt.Fprintf(&b, "📈 本次盈利 +%.0f金币\n", res.Profit)
	} else {
		fmt.Fprintf(&b, "📉 本次亏损 %.0f金币\n", res.Profit)
	}
	fmt.Fprintf(&b, "💸 手续费: -%.0f金币 (3%%)", res.Fee)
	if res.Tax > 0 {
		fmt.Fprintf(&b, "\n🏛️ 收益税: -%.0f金币 (税率 %.1f%%)", res.Tax, res.TaxRate*100)
	}
	fmt.Fprintf(&b, "\n💰 实得 %.0f金币", res.Net)
	return b.String(), nil
}

// scopeAverageCoins: promedio de monedas por usuario registrado del
// scope, base de los tramos del impuesto.
func (s *Service) scopeAverageCoins(groupID string) (float64, error) {
	c, err := s.parts.Load()
	if err != nil {
		return 0, err
	}
	groups, _, err := s.scopeGroups(groupID)
	if err != nil {
		return 0, err
	}
	var total, n float64
	seen := map[string]bool{}
	for _, gid := range groups {
		p, ok := c[gid]
		if !ok {
			continue
		}
		for uid := range p.Users {
			if seen[uid] {
				continue
			}
			seen[uid] = true
			rec, err := s.viewUserIn(c, groupID, uid)
			if err != nil {
				return 0, err
			}
			if rec != nil {
				total += float64(rec.Coins)
				n++
			}
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total / n, nil
}
