// Package game implementa los comandos del juego: registro, 打胶,
// 比划, estado, ranking, tienda, mercado, administración y los verbos
// de alianza. Todas las lecturas pasan por el resolver (scope
// efectivo) y todas las escrituras por el synchronizer.
package game

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Superskyyy/niuniu-plus/internal/alliance"
	"github.com/Superskyyy/niuniu-plus/internal/cache"
	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/metrics"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
	"github.com/Superskyyy/niuniu-plus/internal/stock"
	"github.com/Superskyyy/niuniu-plus/internal/store"
)

// Event es un mensaje entrante ya parseado por el transporte.
type Event struct {
	GroupID  string
	UserID   string
	Nickname string
	Message  string
}

// Service enruta comandos y orquesta los subsistemas.
type Service struct {
	parts  *store.PartitionStore
	reg    *alliance.RegistryStore
	res    *alliance.Resolver
	sync   *alliance.Synchronizer
	lc     *alliance.Lifecycle
	bcast  *alliance.Broadcaster
	market *stock.Market
	cache  cache.Client

	isAdmin    alliance.AdminChecker
	now        func() int64
	rng        *rand.Rand
	rankingTTL time.Duration
	flight     singleflight.Group
	log        *zap.Logger
}

// Deps agrupa las dependencias del servicio.
type Deps struct {
	Parts      *store.PartitionStore
	Registry   *alliance.RegistryStore
	Resolver   *alliance.Resolver
	Sync       *alliance.Synchronizer
	Lifecycle  *alliance.Lifecycle
	Broadcast  *alliance.Broadcaster
	Market     *stock.Market
	Cache      cache.Client
	IsAdmin    alliance.AdminChecker
	RankingTTL time.Duration
	Seed       int64
}

func New(d Deps) *Service {
	seed := d.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ttl := d.RankingTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		parts:      d.Parts,
		reg:        d.Registry,
		res:        d.Resolver,
		sync:       d.Sync,
		lc:         d.Lifecycle,
		bcast:      d.Broadcast,
		market:     d.Market,
		cache:      d.Cache,
		isAdmin:    d.IsAdmin,
		now:        func() int64 { return time.Now().Unix() },
		rng:        rand.New(rand.NewSource(seed)),
		rankingTTL: ttl,
		log:        logger.Named("game"),
	}
}

// Handle procesa un evento y devuelve la respuesta para el grupo.
// Respuesta vacía significa "nada que decir" (comando desconocido o
// plugin apagado).
func (s *Service) Handle(ctx context.Context, ev Event) (string, error) {
	msg := strings.TrimSpace(ev.Message)
	if msg == "" {
		return "", nil
	}
	verb, args := splitCommand(msg)

	// Los verbos de administración y alianza corren aunque el plugin
	// esté apagado; el resto necesita el grupo habilitado.
	switch verb {
	case "牛牛开":
		return s.setEnabled(ev, true)
	case "牛牛关":
		return s.setEnabled(ev, false)
	case "牛牛结盟":
		return s.allianceCreate(ctx, ev, args)
	case "牛牛联盟":
		return s.allianceView(ev)
	case "牛牛退盟":
		return s.allianceLeave(ctx, ev)
	case "牛牛解散联盟":
		return s.allianceDissolve(ctx, ev)
	}

	enabled, err := s.groupEnabled(ev.GroupID)
	if err != nil {
		return "", err
	}
	if !enabled {
		return msgPluginDisabled, nil
	}

	metrics.CommandsTotal.WithLabelValues(verb).Inc()
	start := time.Now()
	defer func() {
		metrics.CommandLatency.Observe(float64(time.Since(start).Milliseconds()))
	}()

	switch verb {
	case "注册牛牛":
		return s.register(ev)
	case "打胶":
		return s.dajiao(ctx, ev)
	case "比划", "比划比划":
		return s.compare(ctx, ev, args)
	case "我的牛牛":
		return s.status(ev)
	case "牛牛排行":
		return s.ranking(ctx, ev)
	case "牛牛商店":
		return s.shopCatalog(ev)
	case "牛牛购买":
		return s.shopBuy(ev, args)
	case "牛牛背包":
		return s.shopBackpack(ev)
	case "牛牛股市":
		return s.stockView(ev)
	case "牛牛买股":
		return s.stockBuy(ev, args)
	case "牛牛卖股":
		return s.stockSell(ev, args)
	case "重置所有牛牛":
		return s.adminReset(ev)
	case "牛牛红包":
		return s.adminRedPacket(ctx, ev, args)
	case "牛牛补贴":
		return s.adminSubsidy(ctx, ev)
	case "牛牛救市":
		return s.adminBailout(ev, args)
	}
	return "", nil
}

func splitCommand(msg string) (string, []string) {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// --- helpers de scope ---

// scopeGroups devuelve los grupos del scope efectivo del grupo dado y
// la alianza (nil si es independiente).
func (s *Service) scopeGroups(groupID string) ([]string, *alliance.Alliance, error) {
	reg, err := s.reg.Load()
	if err != nil {
		return nil, nil, err
	}
	if aid, ok := reg.GroupToAlliance[groupID]; ok {
		if a := reg.Alliances[aid]; a != nil {
			return a.Groups, a, nil
		}
	}
	return []string{groupID}, nil, nil
}

// viewUser arma la vista de lectura del usuario: el merge federado si
// el grupo está en alianza, o su registro local directo. Devuelve nil
// si el usuario no está registrado en el scope.
func (s *Service) viewUser(groupID, userID string) (*types.UserRecord, error) {
	c, err := s.parts.Load()
	if err != nil {
		return nil, err
	}
	return s.viewUserIn(c, groupID, userID)
}

func (s *Service) viewUserIn(c store.Collection, groupID, userID string) (*types.UserRecord, error) {
	_, a, err := s.scopeGroups(groupID)
	if err != nil {
		return nil, err
	}
	if a != nil {
		if rec, ok := alliance.Merge(userID, a, c); ok {
			return rec, nil
		}
		return nil, nil
	}
	p, ok := c[groupID]
	if !ok {
		return nil, nil
	}
	rec, ok := p.Users[userID]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (s *Service) groupEnabled(groupID string) (bool, error) {
	c, err := s.parts.Load()
	if err != nil {
		return false, err
	}
	p, ok := c[groupID]
	if !ok {
		return false, nil
	}
	return p.Enabled, nil
}

func (s *Service) setEnabled(ev Event, enable bool) (string, error) {
	if !s.isAdmin(ev.UserID) {
		return msgNoPermission, nil
	}
	c, err := s.parts.Load()
	if err != nil {
		return "", err
	}
	c.Ensure(ev.GroupID).Enabled = enable
	if err := s.parts.Save(c); err != nil {
		return "", err
	}
	metrics.PartitionSaves.Inc()
	if enable {
		return msgPluginOn, nil
	}
	return msgPluginOff, nil
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// invalidateRanking tira la caché de ranking del scope del grupo.
func (s *Service) invalidateRanking(ctx context.Context, groupID string) {
	scope, err := s.res.EffectiveScope(groupID)
	if err != nil {
		return
	}
	_ = s.cache.Delete(ctx, "ranking:"+scope)
}
