package alliance

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Superskyyy/niuniu-plus/internal/metrics"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
	"github.com/Superskyyy/niuniu-plus/internal/store"
)

// AdminChecker responde si un actor tiene la capacidad administrativa
// global. Modelo de confianza elegido: se confía en la capacidad global
// del actor (un superusuario puede federar grupos que no administra).
// Ver Registry docs para las alternativas descartadas.
type AdminChecker func(actorID string) bool

// Summary es la vista de solo lectura de una alianza.
type Summary struct {
	ID        string
	Groups    []string
	CreatedAt int64
}

// Lifecycle gobierna la máquina de estados Independent ↔ Federated:
// crear, ver, salir (con fork) y disolver. Cada mutación corre como
// ciclo load-modify-save completo bajo el lock de la alianza.
type Lifecycle struct {
	reg     *RegistryStore
	parts   *store.PartitionStore
	locks   *LockSet
	isAdmin AdminChecker
	now     func() int64
	log     *zap.Logger
}

func NewLifecycle(reg *RegistryStore, parts *store.PartitionStore, locks *LockSet, isAdmin AdminChecker, now func() int64) *Lifecycle {
	return &Lifecycle{
		reg:     reg,
		parts:   parts,
		locks:   locks,
		isAdmin: isAdmin,
		now:     now,
		log:     logger.Named("alliance.lifecycle"),
	}
}

// Create forma una alianza. El id es el primer grupo de la lista (el
// ancla). Captura el snapshot de usuarios originales por grupo; la
// vista federada se materializa de forma lazy: el próximo Merge ya la
// refleja, no hay paso eager.
func (l *Lifecycle) Create(memberGroups []string, actor string) (*Alliance, error) {
	if !l.isAdmin(actor) {
		return nil, ErrPermissionDenied
	}
	if len(memberGroups) < 2 {
		return nil, validationf("se necesitan al menos 2 grupos, hay %d", len(memberGroups))
	}
	seen := map[string]bool{}
	for _, g := range memberGroups {
		if seen[g] {
			return nil, validationf("grupo repetido: %s", g)
		}
		seen[g] = true
	}

	aid := memberGroups[0]
	release := l.locks.Acquire(aid)
	defer release()

	reg, err := l.reg.Load()
	if err != nil {
		return nil, err
	}
	for _, g := range memberGroups {
		if other, ok := reg.GroupToAlliance[g]; ok {
			return nil, validationf("el grupo %s ya pertenece a la alianza %s", g, other)
		}
	}

	c, err := l.parts.Load()
	if err != nil {
		return nil, err
	}

	a := &Alliance{
		Groups:        append([]string(nil), memberGroups...),
		CreatedAt:     l.now(),
		OriginalUsers: map[string][]string{},
	}
	for _, g := range memberGroups {
		var ids []string
		if p, ok := c[g]; ok {
			ids = p.UserIDs()
			sort.Strings(ids)
		}
		a.OriginalUsers[g] = ids
	}

	reg.Alliances[aid] = a
	for _, g := range memberGroups {
		reg.GroupToAlliance[g] = aid
	}
	if err := l.reg.Save(reg); err != nil {
		return nil, err
	}

	metrics.AllianceMembers.WithLabelValues(aid).Set(float64(len(a.Groups)))
	l.log.Info("alliance created",
		logger.AllianceID(aid),
		logger.Count(len(a.Groups)),
		logger.UserID(actor),
	)
	return a, nil
}

// View devuelve la vista de la alianza del grupo, o ErrNotFederated.
// Solo lectura, sin lock.
func (l *Lifecycle) View(groupID string) (*Summary, error) {
	reg, err := l.reg.Load()
	if err != nil {
		return nil, err
	}
	aid, ok := reg.GroupToAlliance[groupID]
	if !ok {
		return nil, ErrNotFederated
	}
	a := reg.Alliances[aid]
	if a == nil {
		return nil, ErrNotFederated
	}
	return &Summary{
		ID:        aid,
		Groups:    append([]string(nil), a.Groups...),
		CreatedAt: a.CreatedAt,
	}, nil
}

// Leave saca a groupID de su alianza, forkeando su partición al
// snapshot original. El ancla no puede salir: debe disolver. Si la
// alianza queda con menos de 2 miembros se disuelve entera.
// Devuelve true si la salida escaló a disolución.
func (l *Lifecycle) Leave(groupID, actor string) (bool, error) {
	if !l.isAdmin(actor) {
		return false, ErrPermissionDenied
	}

	// El scope se resuelve antes de lockear; se re-lee adentro.
	pre, err := l.reg.Load()
	if err != nil {
		return false, err
	}
	aid, ok := pre.GroupToAlliance[groupID]
	if !ok {
		return false, ErrNotFederated
	}

	release := l.locks.Acquire(aid)
	defer release()

	reg, err := l.reg.Load()
	if err != nil {
		return false, err
	}
	aid, ok = reg.GroupToAlliance[groupID]
	if !ok {
		return false, ErrNotFederated
	}
	a := reg.Alliances[aid]
	if a == nil {
		return false, ErrNotFederated
	}
	if a.Anchor() == groupID {
		return false, validationf("el grupo ancla no puede salir; debe disolver la alianza")
	}

	c, err := l.parts.Load()
	if err != nil {
		return false, err
	}

	fork(c, a, groupID)
	remaining := make([]string, 0, len(a.Groups)-1)
	for _, g := range a.Groups {
		if g != groupID {
			remaining = append(remaining, g)
		}
	}

	if len(remaining) < 2 {
		// Auto-disolución: ningún rastro de la alianza queda.
		for _, g := range remaining {
			fork(c, a, g)
		}
		dissolveInMemory(reg, aid)
		if err := l.persist(c, reg); err != nil {
			return false, err
		}
		l.log.Info("alliance auto-dissolved on shrink", logger.AllianceID(aid))
		return true, nil
	}

	a.Groups = remaining
	delete(reg.GroupToAlliance, groupID)
	if err := l.persist(c, reg); err != nil {
		return false, err
	}

	metrics.AllianceMembers.WithLabelValues(aid).Set(float64(len(remaining)))
	l.log.Info("group left alliance",
		logger.AllianceID(aid),
		logger.GroupID(groupID),
	)
	return false, nil
}

// Dissolve disuelve la alianza completa del grupo. Decisión de
// política: solo el ancla disuelve; los demás miembros usan Leave.
func (l *Lifecycle) Dissolve(groupID, actor string) error {
	if !l.isAdmin(actor) {
		return ErrPermissionDenied
	}

	pre, err := l.reg.Load()
	if err != nil {
		return err
	}
	aid, ok := pre.GroupToAlliance[groupID]
	if !ok {
		return ErrNotFederated
	}

	release := l.locks.Acquire(aid)
	defer release()

	reg, err := l.reg.Load()
	if err != nil {
		return err
	}
	aid, ok = reg.GroupToAlliance[groupID]
	if !ok {
		return ErrNotFederated
	}
	a := reg.Alliances[aid]
	if a == nil {
		return ErrNotFederated
	}
	if a.Anchor() != groupID {
		return validationf("solo el grupo ancla (%s) puede disolver la alianza", a.Anchor())
	}

	c, err := l.parts.Load()
	if err != nil {
		return err
	}
	for _, g := range a.Groups {
		fork(c, a, g)
	}
	dissolveInMemory(reg, aid)
	if err := l.persist(c, reg); err != nil {
		return err
	}

	l.log.Info("alliance dissolved", logger.AllianceID(aid), logger.UserID(actor))
	return nil
}

// persist guarda particiones y registro. Las particiones van primero:
// si el proceso muere entre medio, el registro viejo sigue siendo
// consistente y el fork es re-ejecutable.
func (l *Lifecycle) persist(c store.Collection, reg *Registry) error {
	if err := l.parts.Save(c); err != nil {
		return err
	}
	metrics.PartitionSaves.Inc()
	return l.reg.Save(reg)
}

// fork filtra la partición del grupo al snapshot de usuarios tomado al
// federar: un usuario que nunca actuó en este grupo antes de la
// alianza no debe quedar en él al deshacerla. No es rollback: los
// usuarios del snapshot conservan el estado acumulado durante la
// federación.
func fork(c store.Collection, a *Alliance, groupID string) {
	p, ok := c[groupID]
	if !ok {
		return
	}
	keep := map[string]bool{}
	for _, id := range a.OriginalUsers[groupID] {
		keep[id] = true
	}
	for id := range p.Users {
		if !keep[id] {
			delete(p.Users, id)
		}
	}
}

func dissolveInMemory(reg *Registry, aid string) {
	a := reg.Alliances[aid]
	if a != nil {
		for _, g := range a.Groups {
			delete(reg.GroupToAlliance, g)
		}
	}
	delete(reg.Alliances, aid)
	metrics.AllianceMembers.DeleteLabelValues(aid)
}
