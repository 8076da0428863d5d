package game

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Superskyyy/niuniu-plus/internal/cache"
	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
)

const rankingSize = 10

// ranking arma el top del scope efectivo. El resultado se cachea por
// scope (la partición sigue siendo la verdad; la caché solo ahorra el
// merge en grupos charlatanes).
func (s *Service) ranking(ctx context.Context, ev Event) (string, error) {
	scope, err := s.res.EffectiveScope(ev.GroupID)
	if err != nil {
		return "", err
	}
	key := "ranking:" + scope
	if cached, err := s.cache.Get(ctx, key); err == nil {
		return cached, nil
	} else if !cache.IsNotFound(err) {
		s.log.Warn("ranking cache get failed", logger.Err(err))
	}

	// Colapsa rankings concurrentes del mismo scope en un solo merge.
	out, err, _ := s.flight.Do(key, func() (any, error) {
		built, err := s.buildRanking(ctx, ev, key)
		return built, err
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (s *Service) buildRanking(ctx context.Context, ev Event, key string) (string, error) {
	c, err := s.parts.Load()
	if err != nil {
		return "", err
	}
	groups, a, err := s.scopeGroups(ev.GroupID)
	if err != nil {
		return "", err
	}

	type entry struct {
		uid string
		rec *types.UserRecord
	}
	var entries []entry
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
			rec, err := s.viewUserIn(c, ev.GroupID, uid)
			if err != nil {
				return "", err
			}
			if rec != nil {
				entries = append(entries, entry{uid, rec})
			}
		}
	}
	if len(entries) == 0 {
		return "📊 本群还没有注册的牛牛", nil
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].rec.Length != entries[j].rec.Length {
			return entries[i].rec.Length > entries[j].rec.Length
		}
		return entries[i].uid < entries[j].uid
	})
	if len(entries) > rankingSize {
		entries = entries[:rankingSize]
	}

	var b strings.Builder
	title := "📊 牛牛排行榜"
	if a != nil {
		title += fmt.Sprintf("（联盟 %d 群）", len(a.Groups))
	}
	b.WriteString(title + "\n═══════════════\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for i, e := range entries {
		mark := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			mark = medals[i]
		}
		fmt.Fprintf(&b, "%s %s - %s (硬度%d)\n",
			mark, nicknameOr(e.rec.Nickname, e.uid), types.FormatLength(e.rec.Length), e.rec.Hardness)
	}
	out := strings.TrimRight(b.String(), "\n")

	if err := s.cache.Set(ctx, key, out, s.rankingTTL); err != nil {
		s.log.Warn("ranking cache set failed", logger.Err(err))
	}
	return out, nil
}
