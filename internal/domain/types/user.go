// Package types define el modelo de datos del juego: el registro por
// usuario, la tabla de políticas de merge y los updates tipados que
// consume el sincronizador.
package types

const (
	// HardnessFloor y HardnessCeil acotan la dureza.
	HardnessFloor = 1
	HardnessCeil  = 100
)

// ParasiteState representa el estado de "夺牛魔" activo sobre un usuario.
// Nullable: nil significa sin parásito.
type ParasiteState struct {
	// HostID es el usuario del que se alimenta el parásito.
	HostID string `yaml:"host_id"`
	// Since es el unix timestamp de cuando se activó.
	Since int64 `yaml:"since"`
}

// UserRecord es el estado de juego de un usuario dentro de una partición.
// Los timestamps son unix epoch; 0 significa "nunca".
type UserRecord struct {
	Nickname string  `yaml:"nickname"`
	Length   float64 `yaml:"length"`
	Hardness int     `yaml:"hardness"`
	Coins    int     `yaml:"coins"`

	// Items: item → cantidad. Solo cantidades positivas.
	Items map[string]int `yaml:"items,omitempty"`

	WinStreak  int `yaml:"win_streak"`
	LoseStreak int `yaml:"lose_streak"`

	// Cooldowns independientes: 打胶 y 比划.
	LastDajiao  int64 `yaml:"last_dajiao"`
	LastCompare int64 `yaml:"last_compare"`

	// LastActive es la última acción del usuario EN ESTA partición.
	// Desempata los campos most-recent-wins al hacer merge.
	LastActive int64 `yaml:"last_active"`

	SubscriptionExpire int64 `yaml:"subscription_expire"`

	Parasite *ParasiteState `yaml:"parasite,omitempty"`
}

// NewUserRecord crea un registro recién inicializado en sus pisos.
func NewUserRecord(nickname string, length float64) *UserRecord {
	return &UserRecord{
		Nickname: nickname,
		Length:   length,
		Hardness: HardnessFloor,
		Items:    map[string]int{},
	}
}

// Clone devuelve una copia profunda del registro.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Items != nil {
		cp.Items = make(map[string]int, len(r.Items))
		for k, v := range r.Items {
			cp.Items[k] = v
		}
	}
	if r.Parasite != nil {
		p := *r.Parasite
		cp.Parasite = &p
	}
	return &cp
}

// ApplyFloors acota los campos numéricos a sus pisos/techos.
func (r *UserRecord) ApplyFloors() {
	if r.Hardness < HardnessFloor {
		r.Hardness = HardnessFloor
	}
	if r.Hardness > HardnessCeil {
		r.Hardness = HardnessCeil
	}
	if r.WinStreak < 0 {
		r.WinStreak = 0
	}
	if r.LoseStreak < 0 {
		r.LoseStreak = 0
	}
	for k, v := range r.Items {
		if v <= 0 {
			delete(r.Items, k)
		}
	}
}

// ItemCount devuelve la cantidad de un item, 0 si no tiene.
func (r *UserRecord) ItemCount(item string) int {
	if r.Items == nil {
		return 0
	}
	return r.Items[item]
}

// AddItem suma delta al contador de un item, eliminándolo si queda en 0.
func (r *UserRecord) AddItem(item string, delta int) {
	if r.Items == nil {
		r.Items = map[string]int{}
	}
	n := r.Items[item] + delta
	if n <= 0 {
		delete(r.Items, item)
		return
	}
	r.Items[item] = n
}
