package alliance

import "sync"

// LockSet da exclusión mutua por alianza: cada secuencia
// load→mutate→save corre bajo el lock de SU scope, y operaciones sobre
// alianzas distintas no se bloquean entre sí. Los locks no se liberan
// del map: el universo de scopes es chico y acotado.
type LockSet struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockSet() *LockSet {
	return &LockSet{locks: map[string]*sync.Mutex{}}
}

// Acquire toma el lock de la clave y devuelve su release.
func (k *LockSet) Acquire(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
