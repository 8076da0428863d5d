package game

import (
	"fmt"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/shop"
)

func (s *Service) shopCatalog(Event) (string, error) {
	return shop.RenderCatalog(), nil
}

func (s *Service) shopBuy(ev Event, args []string) (string, error) {
	if len(args) == 0 {
		return "❌ 用法：牛牛购买 <编号>", nil
	}
	id, ok := parseInt(args[0])
	if !ok {
		return "❌ 编号要是数字哦", nil
	}
	it, ok := shop.ByID(id)
	if !ok {
		return fmt.Sprintf("❌ 商店里没有编号 %d 的商品", id), nil
	}

	rec, err := s.viewUser(ev.GroupID, ev.UserID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return msgNotRegistered, nil
	}

	batch, err := shop.Purchase(rec, it)
	if err != nil {
		return fmt.Sprintf("❌ %v", err), nil
	}
	batch = append(batch, types.Touch{At: s.now()})
	if err := s.sync.Apply(ev.GroupID, ev.UserID, batch); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ 购买成功！%s ×%d，花费 %d 金币", it.Name, it.Units(), it.Price), nil
}

func (s *Service) shopBackpack(ev Event) (string, error) {
	rec, err := s.viewUser(ev.GroupID, ev.UserID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return msgNotRegistered, nil
	}
	return shop.RenderBackpack(rec), nil
}
