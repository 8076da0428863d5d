package game

import (
	"fmt"

	"github.com/Superskyyy/niuniu-plus/internal/domain/types"
)

// register crea el牛牛 del usuario: longitud inicial aleatoria de 3 a
// 10cm, dureza en el piso. Si ya existe en el scope (incluso en otro
// grupo de la alianza), no se duplica.
func (s *Service) register(ev Event) (string, error) {
	rec, err := s.viewUser(ev.GroupID, ev.UserID)
	if err != nil {
		return "", err
	}
	if rec != nil {
		return fmt.Sprintf(msgAlreadyExists, types.FormatLength(rec.Length)), nil
	}

	length := float64(3 + s.rng.Intn(8)) // 3..10
	batch := types.Batch{
		types.SetField{Name: "length", Value: length},
		types.SetField{Name: "hardness", Value: types.HardnessFloor},
		types.SetNickname{Nickname: ev.Nickname},
		types.Touch{At: s.now()},
	}
	if err := s.sync.Apply(ev.GroupID, ev.UserID, batch); err != nil {
		return "", err
	}
	return fmt.Sprintf(msgRegistered, types.FormatLength(length), types.HardnessFloor), nil
}
