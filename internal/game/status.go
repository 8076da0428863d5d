package game

import (
	"fmt"
	"strings"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
)

// status arma la ficha del usuario sobre su vista efectiva (merged si
// está federado).
func (s *Service) status(ev Event) (string, error) {
	rec, err := s.viewUser(ev.GroupID, ev.UserID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return msgNotRegistered, nil
	}

	fed, err := s.res.IsFederated(ev.GroupID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🐂 %s 的牛牛\n═══════════════\n", nicknameOr(rec.Nickname, ev.Nickname))
	fmt.Fprintf(&b, "📏 长度: %s\n", types.FormatLength(rec.Length))
	fmt.Fprintf(&b, "💪 硬度: %d\n", rec.Hardness)
	fmt.Fprintf(&b, "💰 金币: %d\n", rec.Coins)
	if rec.WinStreak > 0 {
		fmt.Fprintf(&b, "🔥 连胜: %d\n", rec.WinStreak)
	}
	if rec.LoseStreak > 0 {
		fmt.Fprintf(&b, "💧 连败: %d\n", rec.LoseStreak)
	}
	if n := len(rec.Items); n > 0 {
		fmt.Fprintf(&b, "🎒 道具: %d种\n", n)
	}
	if rec.Parasite != nil {
		fmt.Fprintf(&b, "🦠 夺牛魔附身中\n")
	}
	fmt.Fprintf(&b, "📝 评价: %s", evaluate(rec.Length))
	if fed {
		b.WriteString("\n🤝 数据已跨群联盟合并")
	}
	return b.String(), nil
}

func nicknameOr(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}
