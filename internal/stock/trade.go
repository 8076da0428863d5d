package stock

import (
	"fmt"
	"math"

	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
)

// BuyResult resume una compra ejecutada.
type BuyResult struct {
	Shares    float64
	Fee       float64
	Spent     float64 // monto efectivo tras la comisión
	Price     float64 // precio de ejecución (post-impacto)
	ImpactPct float64
}

// SellResult resume una venta ejecutada.
type SellResult struct {
	Shares    float64
	Gross     float64 // venta total al precio de ejecución
	Fee       float64
	Profit    float64 // ganancia/pérdida contra el costo proporcional
	Tax       float64
	TaxRate   float64 // tasa efectiva sobre la ganancia
	Net       float64 // lo que recibe el usuario
	Price     float64
	ImpactPct float64
}

// tradeImpact: 0.1%–2% según el monto operado.
func tradeImpact(coins float64) float64 {
	return math.Min(0.02, 0.001+coins/10000*0.01)
}

// Buy compra por `coins` monedas. Comisión 3%; el impacto sube el
// precio ANTES de ejecutar, así comprar no genera arbitraje gratis.
func (m *Market) Buy(groupID, userID string, coins float64) (*BuyResult, error) {
	if coins <= 0 {
		return nil, fmt.Errorf("stock: el monto de compra debe ser positivo")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.load()
	if err != nil {
		return nil, err
	}
	g := ensureGroup(data, groupID, m.now())

	fee := round2(coins * tradeFeeRate)
	actual := coins - fee

	impact := tradeImpact(actual)
	execPrice := math.Min(maxPrice, round2(g.Price*(1+impact)))
	shares := actual / execPrice

	g.Holdings[userID] += shares
	g.CostBasis[userID] += actual
	g.BuyTimes[userID] = m.now()
	g.Price = execPrice
	g.LastUpdate = m.now()

	if err := m.save(data); err != nil {
		return nil, err
	}
	m.log.Debug("buy executed",
		logger.GroupID(groupID),
		logger.UserID(userID),
		logger.Any("shares", shares),
	)
	return &BuyResult{
		Shares:    shares,
		Fee:       fee,
		Spent:     actual,
		Price:     execPrice,
		ImpactPct: impact * 100,
	}, nil
}

// Sell vende `shares` acciones (<=0 o más de lo tenido = vender todo).
// El impacto baja el precio ANTES de ejecutar. avgCoins es el promedio
// de monedas del grupo y fija los tramos del impuesto; con 0 no se
// grava. Solo la ganancia paga impuesto, nunca el capital.
func (m *Market) Sell(groupID, userID string, shares, avgCoins float64) (*SellResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.load()
	if err != nil {
		return nil, err
	}
	g := ensureGroup(data, groupID, m.now())

	held := g.Holdings[userID]
	if held <= 0 {
		return nil, fmt.Errorf("stock: no hay tenencia de %s", StockName)
	}
	if shares <= 0 || shares > held {
		shares = held
	}

	estimated := shares * g.Price
	impact := tradeImpact(estimated)
	execPrice := math.Max(minPrice, round2(g.Price*(1-impact)))
	gross := round2(shares * execPrice)
	fee := round2(gross * tradeFeeRate)

	sellRatio := shares / held
	costOfSold := g.CostBasis[userID] * sellRatio
	profit := gross - costOfSold

	var tax, rate float64
	if profit > 0 && avgCoins > 0 {
		tax, rate = ProgressiveTax(profit, avgCoins)
	}
	net := gross - tax - fee

	g.Holdings[userID] = held - shares
	g.CostBasis[userID] -= costOfSold
	if g.Holdings[userID] <= 0 {
		delete(g.Holdings, userID)
		delete(g.CostBasis, userID)
		delete(g.BuyTimes, userID)
	}
	g.Price = execPrice
	g.LastUpdate = m.now()

	if err := m.save(data); err != nil {
		return nil, err
	}
	return &SellResult{
		Shares:    shares,
		Gross:     gross,
		Fee:       fee,
		Profit:    profit,
		Tax:       tax,
		TaxRate:   rate,
		Net:       net,
		Price:     execPrice,
		ImpactPct: impact * 100,
	}, nil
}

// Bailout mueve el precio con plata "de la nada": coins positivo
// rescata (sube), negativo hunde (baja). Impacto con decaimiento
// logarítmico para que los montos grandes tengan techo. No registra
// tenencia: las acciones involucradas se destruyen.
func (m *Market) Bailout(groupID string, coins float64, operator string) (oldPrice, newPrice, impactPct float64, err error) {
	if coins == 0 {
		return 0, 0, 0, fmt.Errorf("stock: el monto no puede ser cero")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.load()
	if err != nil {
		return 0, 0, 0, err
	}
	g := ensureGroup(data, groupID, m.now())

	oldPrice = g.Price
	impact := 0.01 * math.Log2(1+math.Abs(coins)/1000)

	typ := EventBailout
	direction := 1
	if coins > 0 {
		newPrice = math.Min(maxPrice, round2(oldPrice*(1+impact)))
	} else {
		newPrice = math.Max(minPrice, round2(oldPrice*(1-impact)))
		typ = EventDump
		direction = -1
	}
	g.Price = newPrice
	g.LastUpdate = m.now()

	if operator == "" {
		operator = "牛牛国家队"
	}
	appendEvent(g, Event{
		Time:      g.LastUpdate,
		Type:      typ,
		Nickname:  operator,
		Direction: direction,
		ChangePct: impact * 100,
	})

	if err := m.save(data); err != nil {
		return 0, 0, 0, err
	}
	return oldPrice, newPrice, impact * 100, nil
}
