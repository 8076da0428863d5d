// Package shop define el catálogo de items y la compra contra el saldo
// de monedas del scope efectivo. Los efectos de los items los resuelve
// el juego; acá solo viven el catálogo, los topes y la transacción.
package shop

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
)

// Kind distingue items de uso inmediato de los pasivos acumulables.
type Kind string

const (
	KindActive  Kind = "active"
	KindPassive Kind = "passive"
)

// Item es una entrada del catálogo.
type Item struct {
	ID    int
	Name  string
	Kind  Kind
	Desc  string
	Price int
	// Max acota cuántas unidades puede acumular un usuario (0 = sin tope).
	Max int
	// Quantity: unidades entregadas por compra (0 = 1).
	Quantity int
}

// Units devuelve cuántas unidades entrega una compra.
func (i Item) Units() int {
	if i.Quantity <= 0 {
		return 1
	}
	return i.Quantity
}

// Catalog es el catálogo por defecto.
var Catalog = []Item{
	{ID: 1, Name: "巴黎牛家", Kind: KindActive, Desc: "立即增加10点硬度，但会随机缩短1-10%长度", Price: 200},
	{ID: 2, Name: "妙脆角", Kind: KindPassive, Max: 3, Desc: "防止一次长度减半", Price: 70},
	{ID: 3, Name: "淬火爪刀", Kind: KindPassive, Max: 3, Desc: "触发掠夺时，额外掠夺10%长度和10%硬度", Price: 100},
	{ID: 4, Name: "致命节奏", Kind: KindPassive, Max: 20, Quantity: 5, Desc: "短时间内多次打胶或比划不吃连打惩罚", Price: 100},
	{ID: 6, Name: "赌徒硬币", Kind: KindActive, Desc: "抛硬币！50%翻倍/48%减半/1%头等奖(变4倍)/1%霉运(变负2倍)", Price: 50},
	{ID: 10, Name: "穷牛一生", Kind: KindActive, Desc: "便宜的盲盒！随机改变长度和硬度", Price: 25},
}

// ByID busca un item del catálogo.
func ByID(id int) (Item, bool) {
	for _, it := range Catalog {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// ByName busca un item por nombre exacto.
func ByName(name string) (Item, bool) {
	for _, it := range Catalog {
		if it.Name == name {
			return it, true
		}
	}
	return Item{}, false
}

// Purchase valida una compra contra el registro virtual del usuario y
// devuelve el batch de updates a aplicar: el gasto es un delta (pega
// en el origen) y el alta del item también.
func Purchase(rec *types.UserRecord, it Item) (types.Batch, error) {
	if rec == nil {
		return nil, fmt.Errorf("shop: primero hay que registrar un牛牛")
	}
	if rec.Coins < it.Price {
		return nil, fmt.Errorf("shop: monedas insuficientes: hay %d, cuesta %d", rec.Coins, it.Price)
	}
	if it.Max > 0 && rec.ItemCount(it.Name)+it.Units() > it.Max {
		return nil, fmt.Errorf("shop: %s alcanzó el tope de %d unidades", it.Name, it.Max)
	}
	return types.Batch{
		types.DeltaField{Name: "coins", Delta: -float64(it.Price)},
		types.DeltaItem{Item: it.Name, Delta: it.Units()},
	}, nil
}

// RenderCatalog arma el listado del catálogo para el chat.
func RenderCatalog() string {
	var b strings.Builder
	b.WriteString("🛒 牛牛商店\n═══════════════\n")
	for _, it := range Catalog {
		fmt.Fprintf(&b, "%d. %s - %d金币\n   %s\n", it.ID, it.Name, it.Price, it.Desc)
	}
	b.WriteString("═══════════════\n发送「牛牛购买 <编号>」购买")
	return b.String()
}

// RenderBackpack arma el inventario del usuario para el chat.
func RenderBackpack(rec *types.UserRecord) string {
	if rec == nil || len(rec.Items) == 0 {
		return "🎒 背包空空如也~"
	}
	names := make([]string, 0, len(rec.Items))
	for n := range rec.Items {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("🎒 牛牛背包\n═══════════════\n")
	for _, n := range names {
		fmt.Fprintf(&b, "%s ×%d\n", n, rec.Items[n])
	}
	return b.String()
}
