package types

// Policy es la clase de merge de un campo al combinar particiones.
type Policy int

const (
	// PolicyMax: máximo corrido; un ausente aporta el piso del campo.
	PolicyMax Policy = iota
	// PolicySum: suma de todas las particiones que aportan.
	PolicySum
	// PolicyMinNonzero: mínimo ignorando ceros ("nunca pasó"); si
	// ninguna partición aporta distinto de cero, el resultado es cero.
	PolicyMinNonzero
	// PolicyMostRecentWins: gana la partición con mayor last_active.
	PolicyMostRecentWins
)

// FieldRule describe un campo del UserRecord y cómo se combina.
// Get/Set existen solo para los campos numéricos (Max/Sum/MinNonzero);
// CopyFrom existe solo para MostRecentWins.
type FieldRule struct {
	Name   string
	Policy Policy
	Floor  float64

	Get func(*UserRecord) float64
	Set func(*UserRecord, float64)

	CopyFrom func(dst, src *UserRecord)
}

// fieldRules es la tabla estática de políticas. El merger y el
// sincronizador la recorren genéricamente, sin ramas por campo.
// Items se maneja aparte (suma por clave, ver Merger).
var fieldRules = []FieldRule{
	{
		Name: "length", Policy: PolicyMax,
		Get: func(r *UserRecord) float64 { return r.Length },
		Set: func(r *UserRecord, v float64) { r.Length = v },
	},
	{
		Name: "hardness", Policy: PolicyMax, Floor: HardnessFloor,
		Get: func(r *UserRecord) float64 { return float64(r.Hardness) },
		Set: func(r *UserRecord, v float64) { r.Hardness = int(v) },
	},
	{
		Name: "coins", Policy: PolicySum,
		Get: func(r *UserRecord) float64 { return float64(r.Coins) },
		Set: func(r *UserRecord, v float64) { r.Coins = int(v) },
	},
	{
		Name: "win_streak", Policy: PolicyMax,
		Get: func(r *UserRecord) float64 { return float64(r.WinStreak) },
		Set: func(r *UserRecord, v float64) { r.WinStreak = int(v) },
	},
	{
		Name: "lose_streak", Policy: PolicyMinNonzero,
		Get: func(r *UserRecord) float64 { return float64(r.LoseStreak) },
		Set: func(r *UserRecord, v float64) { r.LoseStreak = int(v) },
	},
	{
		Name: "last_dajiao", Policy: PolicyMinNonzero,
		Get: func(r *UserRecord) float64 { return float64(r.LastDajiao) },
		Set: func(r *UserRecord, v float64) { r.LastDajiao = int64(v) },
	},
	{
		Name: "last_compare", Policy: PolicyMinNonzero,
		Get: func(r *UserRecord) float64 { return float64(r.LastCompare) },
		Set: func(r *UserRecord, v float64) { r.LastCompare = int64(v) },
	},
	{
		Name: "subscription_expire", Policy: PolicyMax,
		Get: func(r *UserRecord) float64 { return float64(r.SubscriptionExpire) },
		Set: func(r *UserRecord, v float64) { r.SubscriptionExpire = int64(v) },
	},
	{
		Name: "last_active", Policy: PolicyMax,
		Get: func(r *UserRecord) float64 { return float64(r.LastActive) },
		Set: func(r *UserRecord, v float64) { r.LastActive = int64(v) },
	},
	{
		Name: "nickname", Policy: PolicyMostRecentWins,
		CopyFrom: func(dst, src *UserRecord) { dst.Nickname = src.Nickname },
	},
	{
		Name: "parasite", Policy: PolicyMostRecentWins,
		CopyFrom: func(dst, src *UserRecord) {
			if src.Parasite == nil {
				dst.Parasite = nil
				return
			}
			p := *src.Parasite
			dst.Parasite = &p
		},
	},
}

// FieldRules devuelve la tabla de políticas de merge.
func FieldRules() []FieldRule { return fieldRules }

// RuleFor busca la regla de un campo por nombre.
func RuleFor(name string) (FieldRule, bool) {
	for _, fr := range fieldRules {
		if fr.Name == name {
			return fr, true
		}
	}
	return FieldRule{}, false
}
