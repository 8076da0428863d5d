package types

// Update es una mutación tipada sobre un UserRecord. El sincronizador
// distingue dos familias: los "set" (valor absoluto, se propaga a todas
// las particiones miembro) y los "delta" (incremento, se aplica solo en
// la partición de origen).
type Update interface {
	// Propagates reporta si el update se replica a todas las
	// particiones del scope (true) o solo al origen (false).
	Propagates() bool
}

// SetField fija un campo numérico en un valor absoluto.
type SetField struct {
	Name  string
	Value float64
}

func (SetField) Propagates() bool { return true }

// DeltaField incrementa un campo numérico en el origen.
type DeltaField struct {
	Name  string
	Delta float64
}

func (DeltaField) Propagates() bool { return false }

// SetNickname cambia el apodo (hecho global).
type SetNickname struct {
	Nickname string
}

func (SetNickname) Propagates() bool { return true }

// DeltaItem suma/resta unidades de un item en el origen.
type DeltaItem struct {
	Item  string
	Delta int
}

func (DeltaItem) Propagates() bool { return false }

// SetParasite fija (o limpia con nil) el estado de parásito.
type SetParasite struct {
	State *ParasiteState
}

func (SetParasite) Propagates() bool { return true }

// Touch marca actividad del usuario en la partición de origen.
// No se propaga: last_active es por-partición por definición.
type Touch struct {
	At int64
}

func (Touch) Propagates() bool { return false }

// Batch es una secuencia ordenada de updates aplicada como unidad.
type Batch []Update
