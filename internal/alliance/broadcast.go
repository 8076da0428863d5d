package alliance

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Superskyyy/niuniu-plus/internal/metrics"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
)

// Deliverer es el transporte externo de mensajes hacia un grupo.
type Deliverer interface {
	Deliver(ctx context.Context, groupID, message string) error
}

// Broadcaster abanica una notificación a todos los grupos miembro de
// la alianza del origen. Fire-and-forget por destino: cada falla se
// loguea y no corta la entrega a los demás; sin retry, sin cola. No
// sostiene ningún lock de alianza durante el fan-out para no bloquear
// escritores detrás de entregas lentas.
type Broadcaster struct {
	reg     *RegistryStore
	deliver Deliverer
	log     *zap.Logger
}

func NewBroadcaster(reg *RegistryStore, d Deliverer) *Broadcaster {
	return &Broadcaster{
		reg:     reg,
		deliver: d,
		log:     logger.Named("alliance.broadcast"),
	}
}

// Broadcast entrega message a cada miembro de la alianza del origen
// (opcionalmente excluyendo al origen). Si el grupo no está federado,
// no hace nada. Las entregas corren concurrentes; el error devuelto
// solo refleja fallas al cargar el registro, nunca fallas de entrega.
func (b *Broadcaster) Broadcast(ctx context.Context, originGroup, message string, excludeOrigin bool) error {
	reg, err := b.reg.Load()
	if err != nil {
		return err
	}
	aid, ok := reg.GroupToAlliance[originGroup]
	if !ok {
		return nil
	}
	a := reg.Alliances[aid]
	if a == nil {
		return nil
	}

	groups := a.Groups
	if excludeOrigin {
		rest := make([]string, 0, len(groups))
		for _, gid := range groups {
			if gid != originGroup {
				rest = append(rest, gid)
			}
		}
		groups = rest
	}
	b.fanOut(ctx, aid, groups, message)
	return nil
}

// BroadcastTo entrega message a una lista explícita de grupos, para
// avisos que deben salir cuando la alianza ya no existe en el
// registro (disolución).
func (b *Broadcaster) BroadcastTo(ctx context.Context, groups []string, message string) {
	b.fanOut(ctx, "", groups, message)
}

func (b *Broadcaster) fanOut(ctx context.Context, aid string, groups []string, message string) {
	var wg sync.WaitGroup
	for _, gid := range groups {
		wg.Add(1)
		go func(gid string) {
			defer wg.Done()
			if err := b.deliver.Deliver(ctx, gid, message); err != nil {
				metrics.BroadcastFailures.Inc()
				b.log.Warn("broadcast delivery failed",
					logger.AllianceID(aid),
					logger.GroupID(gid),
					logger.Err(err),
				)
			}
		}(gid)
	}
	wg.Wait()
}
