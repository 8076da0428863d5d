package alliance

import (
	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
	"github.com/Superskyyy/niuniu-plus/internal/store"
)

// Merge pliega los registros de un usuario repartidos en las
// particiones miembro en un único registro virtual, según la tabla de
// políticas. Función pura: no persiste nada y el resultado no depende
// del orden de iteración de los grupos (todos los operadores son
// conmutativos y asociativos; el desempate de recencia usa el id de
// grupo). Devuelve false si ninguna partición tiene registro.
//
// El resultado es una vista: escribirle no tiene efecto. Las
// escrituras van por el Synchronizer.
func Merge(userID string, a *Alliance, c store.Collection) (*types.UserRecord, bool) {
	type contrib struct {
		gid string
		rec *types.UserRecord
	}
	var contribs []contrib
	for _, gid := range a.Groups {
		p, ok := c[gid]
		if !ok {
			continue
		}
		if rec, ok := p.Users[userID]; ok {
			contribs = append(contribs, contrib{gid, rec})
		}
	}
	if len(contribs) == 0 {
		return nil, false
	}

	// Ganador de recencia: mayor last_active; a igual timestamp gana
	// el id de grupo menor, para que el empate no dependa del orden.
	winner := contribs[0]
	for _, cb := range contribs[1:] {
		if cb.rec.LastActive > winner.rec.LastActive ||
			(cb.rec.LastActive == winner.rec.LastActive && cb.gid < winner.gid) {
			winner = cb
		}
	}

	out := &types.UserRecord{Items: map[string]int{}}
	for _, fr := range types.FieldRules() {
		switch fr.Policy {
		case types.PolicyMax:
			acc := fr.Floor
			for _, cb := range contribs {
				if v := fr.Get(cb.rec); v > acc {
					acc = v
				}
			}
			fr.Set(out, acc)

		case types.PolicySum:
			var acc float64
			for _, cb := range contribs {
				acc += fr.Get(cb.rec)
			}
			fr.Set(out, acc)

		case types.PolicyMinNonzero:
			// Cero significa "nunca pasó" y no puede ganar el mínimo.
			var acc float64
			for _, cb := range contribs {
				v := fr.Get(cb.rec)
				if v == 0 {
					continue
				}
				if acc == 0 || v < acc {
					acc = v
				}
			}
			fr.Set(out, acc)

		case types.PolicyMostRecentWins:
			fr.CopyFrom(out, winner.rec)
		}
	}

	// Items: suma por clave entre todas las particiones que aportan.
	for _, cb := range contribs {
		for k, v := range cb.rec.Items {
			out.Items[k] += v
		}
	}

	out.ApplyFloors()
	return out, true
}
