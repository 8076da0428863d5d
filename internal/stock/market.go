// Package stock implementa el mercado de la 妖牛股: random walk por
// eventos del juego, compra/venta con comisión e impacto de precio, y
// el impuesto progresivo a las ganancias. Una sola acción por grupo,
// estado en JSON bajo el data root.
package stock

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
	"github.com/Superskyyy/niuniu-plus/internal/util/atomicwrite"
)

// MarketFile es el nombre del archivo de mercado bajo el data root.
const MarketFile = "niuniu_stock.json"

const (
	StockName  = "妖牛股"
	StockEmoji = "🐂"

	basePrice = 100.0
	minPrice  = 0.01
	maxPrice  = 999999.99

	tradeFeeRate = 0.03
	maxEvents    = 50
)

// Volatilidad (min, max) por tipo de evento del juego.
var volatility = map[EventType][2]float64{
	EventDajiao:  {0.005, 0.02},
	EventCompare: {0.01, 0.05},
	EventItem:    {0.02, 0.08},
	EventChaos:   {0.02, 0.08},
	EventGlobal:  {0.05, 0.15},
}

// EventType clasifica qué acción del juego movió el precio.
type EventType string

const (
	EventDajiao  EventType = "dajiao"
	EventCompare EventType = "compare"
	EventItem    EventType = "item"
	EventChaos   EventType = "chaos"
	EventGlobal  EventType = "global"
	EventBailout EventType = "bailout"
	EventDump    EventType = "dump"
)

// Event es una entrada del historial reciente del mercado.
type Event struct {
	Time      int64     `json:"time"`
	Type      EventType `json:"type"`
	Nickname  string    `json:"nickname"`
	Direction int       `json:"direction"`
	ChangePct float64   `json:"change_pct"`
	Desc      string    `json:"desc"`
}

// groupMarket es el estado persistido de un grupo.
type groupMarket struct {
	Price      float64            `json:"price"`
	Holdings   map[string]float64 `json:"holdings"`
	CostBasis  map[string]float64 `json:"cost_basis"`
	BuyTimes   map[string]int64   `json:"buy_times"`
	Events     []Event            `json:"events"`
	LastUpdate int64              `json:"last_update"`
}

func newGroupMarket(now int64) *groupMarket {
	return &groupMarket{
		Price:      basePrice,
		Holdings:   map[string]float64{},
		CostBasis:  map[string]float64{},
		BuyTimes:   map[string]int64{},
		LastUpdate: now,
	}
}

// Market gestiona el archivo de mercado completo. Las mutaciones son
// load→mutate→save bajo un único lock: el mercado es por-grupo, nunca
// participa del scope de alianzas.
type Market struct {
	path string
	now  func() int64
	rng  *rand.Rand
	mu   sync.Mutex
	log  *zap.Logger
}

// New crea el mercado sobre el data root. seed 0 = aleatoria.
func New(root string, seed int64) *Market {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Market{
		path: filepath.Join(root, MarketFile),
		now:  func() int64 { return time.Now().Unix() },
		rng:  rand.New(rand.NewSource(seed)),
		log:  logger.Named("stock"),
	}
}

func (m *Market) load() (map[string]*groupMarket, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*groupMarket{}, nil
		}
		return nil, fmt.Errorf("stock: leer %s: %w", m.path, err)
	}
	var data map[string]*groupMarket
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("stock: estado corrupto en %s: %w", m.path, err)
	}
	if data == nil {
		data = map[string]*groupMarket{}
	}
	return data, nil
}

func (m *Market) save(data map[string]*groupMarket) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("stock: serializar mercado: %w", err)
	}
	if err := atomicwrite.AtomicWriteFile(m.path, b, 0o644); err != nil {
		return fmt.Errorf("stock: guardar %s: %w", m.path, err)
	}
	return nil
}

func ensureGroup(data map[string]*groupMarket, gid string, now int64) *groupMarket {
	g, ok := data[gid]
	if !ok {
		g = newGroupMarket(now)
		data[gid] = g
	}
	if g.Holdings == nil {
		g.Holdings = map[string]float64{}
	}
	if g.CostBasis == nil {
		g.CostBasis = map[string]float64{}
	}
	if g.BuyTimes == nil {
		g.BuyTimes = map[string]int64{}
	}
	return g
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func clampPrice(p float64) float64 {
	return math.Max(minPrice, math.Min(maxPrice, round2(p)))
}

// Price devuelve el precio actual del grupo.
func (m *Market) Price(groupID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := m.load()
	if err != nil {
		return 0, err
	}
	if g, ok := data[groupID]; ok {
		return g.Price, nil
	}
	return basePrice, nil
}

// Holdings devuelve las acciones del usuario en el grupo.
func (m *Market) Holdings(groupID, userID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := m.load()
	if err != nil {
		return 0, err
	}
	if g, ok := data[groupID]; ok {
		return g.Holdings[userID], nil
	}
	return 0, nil
}

// Events devuelve los últimos eventos del grupo, los más nuevos al final.
func (m *Market) Events(groupID string, limit int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := m.load()
	if err != nil {
		return nil, err
	}
	g, ok := data[groupID]
	if !ok || len(g.Events) == 0 {
		return nil, nil
	}
	evs := g.Events
	if limit > 0 && len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	out := make([]Event, len(evs))
	copy(out, evs)
	return out, nil
}

func appendEvent(g *groupMarket, ev Event) {
	g.Events = append(g.Events, ev)
	if len(g.Events) > maxEvents {
		g.Events = g.Events[len(g.Events)-maxEvents:]
	}
}

// Nudge aplica el random walk de un evento del juego al precio.
// direction: 1 sube, -1 baja, 0 al azar. Devuelve el precio nuevo, el
// cambio porcentual firmado y la dirección efectiva.
func (m *Market) Nudge(groupID string, typ EventType, direction int, magnitude float64, nickname, desc string) (float64, float64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.load()
	if err != nil {
		return 0, 0, 0, err
	}
	g := ensureGroup(data, groupID, m.now())

	vol, ok := volatility[typ]
	if !ok {
		vol = [2]float64{0.01, 0.05}
	}
	if magnitude <= 0 {
		magnitude = 1
	}
	amount := (vol[0] + m.rng.Float64()*(vol[1]-vol[0])) * magnitude

	if direction == 0 {
		if m.rng.Intn(2) == 0 {
			direction = 1
		} else {
			direction = -1
		}
	}
	changePct := amount * float64(direction)
	g.Price = clampPrice(g.Price * (1 + changePct))
	g.LastUpdate = m.now()

	appendEvent(g, Event{
		Time:      g.LastUpdate,
		Type:      typ,
		Nickname:  nickname,
		Direction: direction,
		ChangePct: math.Abs(changePct) * 100,
		Desc:      desc,
	})

	if err := m.save(data); err != nil {
		return 0, 0, 0, err
	}
	return g.Price, changePct, direction, nil
}
