package alliance

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/metrics"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
	"github.com/Superskyyy/niuniu-plus/internal/store"
)

// Synchronizer aplica batches de updates sobre la(s) partición(es)
// correctas: los updates que propagan (hechos absolutos) van a cada
// partición miembro del scope; los delta (hechos incrementales) solo a
// la partición de origen, y se vuelven visibles en las demás recién en
// el próximo Merge, que re-suma desde la verdad de cada partición.
// Así un delta nunca se cuenta dos veces.
type Synchronizer struct {
	reg   *RegistryStore
	parts *store.PartitionStore
	locks *LockSet
	log   *zap.Logger
}

func NewSynchronizer(reg *RegistryStore, parts *store.PartitionStore, locks *LockSet) *Synchronizer {
	return &Synchronizer{
		reg:   reg,
		parts: parts,
		locks: locks,
		log:   logger.Named("alliance.sync"),
	}
}

// Apply ejecuta el batch como unidad: load→mutate→save bajo el lock
// del scope efectivo de originGroup. Un registro ausente se crea al
// primer set; un delta sobre registro ausente inicializa el campo en
// su piso antes de aplicar.
func (s *Synchronizer) Apply(originGroup, userID string, batch types.Batch) error {
	if len(batch) == 0 {
		return nil
	}

	// El scope se resuelve antes de lockear; se re-lee adentro: un
	// Leave/Dissolve intercalado ya habrá commiteado bajo el mismo
	// lock y la lista de destinos vieja recrearía registros en la
	// partición forkeada.
	pre, err := s.reg.Load()
	if err != nil {
		return err
	}
	scope := originGroup
	if aid, ok := pre.GroupToAlliance[originGroup]; ok {
		scope = aid
	}

	release := s.locks.Acquire(scope)
	defer release()

	reg, err := s.reg.Load()
	if err != nil {
		return err
	}
	var targets []string
	if aid, ok := reg.GroupToAlliance[originGroup]; ok {
		if a := reg.Alliances[aid]; a != nil {
			targets = append(targets, a.Groups...)
		}
	}
	if len(targets) == 0 {
		targets = []string{originGroup}
	}

	c, err := s.parts.Load()
	if err != nil {
		return err
	}

	touched := map[*types.UserRecord]struct{}{}
	ensure := func(gid string) *types.UserRecord {
		p := c.Ensure(gid)
		rec, ok := p.Users[userID]
		if !ok {
			rec = types.NewUserRecord("", 0)
			p.Users[userID] = rec
		}
		touched[rec] = struct{}{}
		return rec
	}

	for _, u := range batch {
		dst := []string{originGroup}
		if u.Propagates() {
			dst = targets
		}
		for _, gid := range dst {
			if err := applyOne(ensure(gid), u); err != nil {
				return err
			}
		}
	}

	for rec := range touched {
		rec.ApplyFloors()
	}

	if err := s.parts.Save(c); err != nil {
		return err
	}
	metrics.PartitionSaves.Inc()
	s.log.Debug("batch applied",
		logger.GroupID(originGroup),
		logger.UserID(userID),
		logger.Count(len(batch)),
	)
	return nil
}

func applyOne(rec *types.UserRecord, u types.Update) error {
	switch v := u.(type) {
	case types.SetField:
		fr, ok := types.RuleFor(v.Name)
		if !ok || fr.Set == nil {
			return fmt.Errorf("alliance: campo desconocido %q", v.Name)
		}
		fr.Set(rec, v.Value)

	case types.DeltaField:
		fr, ok := types.RuleFor(v.Name)
		if !ok || fr.Get == nil {
			return fmt.Errorf("alliance: campo desconocido %q", v.Name)
		}
		cur := fr.Get(rec)
		if cur < fr.Floor {
			cur = fr.Floor
		}
		fr.Set(rec, cur+v.Delta)

	case types.SetNickname:
		rec.Nickname = v.Nickname

	case types.DeltaItem:
		rec.AddItem(v.Item, v.Delta)

	case types.SetParasite:
		if v.State == nil {
			rec.Parasite = nil
		} else {
			p := *v.State
			rec.Parasite = &p
		}

	case types.Touch:
		if v.At > rec.LastActive {
			rec.LastActive = v.At
		}

	default:
		return fmt.Errorf("alliance: update no soportado %T", u)
	}
	return nil
}
