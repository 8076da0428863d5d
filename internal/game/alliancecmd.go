package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Superskyyy/niuniu-plus/internal/alliance"
	"github.com/Superskyyy/niuniu-plus/internal/observability/logger"
)

// Verbos de alianza. El grupo desde el que se manda「牛牛结盟」queda
// como ancla. Las fallas de permiso y de validación vuelven al chat
// con mensajes distinguibles; las de entrega del aviso se loguean y
// nada más.

func (s *Service) allianceCreate(ctx context.Context, ev Event, args []string) (string, error) {
	if len(args) == 0 {
		return "❌ 用法：牛牛结盟 <群号1> [群号2] ...（本群自动成为盟主群）", nil
	}

	groups := append([]string{ev.GroupID}, args...)
	a, err := s.lc.Create(groups, ev.UserID)
	if err != nil {
		return allianceErrReply(err), err2nil(err)
	}

	s.invalidateRanking(ctx, ev.GroupID)
	_ = s.bcast.Broadcast(ctx, ev.GroupID, msgBroadcastFormed, true)
	return fmt.Sprintf(msgAllianceCreated, len(a.Groups), a.Anchor()), nil
}

func (s *Service) allianceView(ev Event) (string, error) {
	sum, err := s.lc.View(ev.GroupID)
	if err != nil {
		if errors.Is(err, alliance.ErrNotFederated) {
			return msgNotFederated, nil
		}
		return "", err
	}

	var b strings.Builder
	b.WriteString("🤝 牛牛联盟\n═══════════════\n")
	for i, g := range sum.Groups {
		mark := "  "
		if i == 0 {
			mark = "👑"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, g)
	}
	fmt.Fprintf(&b, "📅 成立于 %s", time.Unix(sum.CreatedAt, 0).Format("2006-01-02"))
	return b.String(), nil
}

func (s *Service) allianceLeave(ctx context.Context, ev Event) (string, error) {
	sum, err := s.lc.View(ev.GroupID)
	if err != nil {
		return allianceErrReply(err), err2nil(err)
	}

	dissolved, err := s.lc.Leave(ev.GroupID, ev.UserID)
	if err != nil {
		return allianceErrReply(err), err2nil(err)
	}

	s.invalidateRanking(ctx, ev.GroupID)
	if dissolved {
		return msgAllianceLeft + "\n" + msgAllianceAuto, nil
	}
	// El que se fue ya no figura en el registro: el aviso sale a la
	// lista que teníamos antes de salir.
	others := make([]string, 0, len(sum.Groups))
	for _, g := range sum.Groups {
		if g != ev.GroupID {
			others = append(others, g)
		}
	}
	s.bcast.BroadcastTo(ctx, others, fmt.Sprintf("📢 群 %s 已退出牛牛联盟", ev.GroupID))
	return msgAllianceLeft, nil
}

func (s *Service) allianceDissolve(ctx context.Context, ev Event) (string, error) {
	// Snapshot de los miembros antes de disolver: después del
	// Dissolve el registro ya no tiene alianza que recorrer.
	sum, err := s.lc.View(ev.GroupID)
	if err != nil {
		return allianceErrReply(err), err2nil(err)
	}

	if err := s.lc.Dissolve(ev.GroupID, ev.UserID); err != nil {
		return allianceErrReply(err), err2nil(err)
	}

	others := make([]string, 0, len(sum.Groups))
	for _, g := range sum.Groups {
		if g != ev.GroupID {
			others = append(others, g)
		}
	}
	s.bcast.BroadcastTo(ctx, others, msgBroadcastDissolved)
	s.invalidateRanking(ctx, ev.GroupID)
	s.log.Info("alliance dissolved via command",
		logger.GroupID(ev.GroupID),
		logger.UserID(ev.UserID),
	)
	return msgAllianceGone, nil
}

// allianceErrReply traduce los errores esperables del lifecycle a
// mensajes de chat; los demás no producen respuesta (y sí error).
func allianceErrReply(err error) string {
	switch {
	case errors.Is(err, alliance.ErrPermissionDenied):
		return msgNoPermission
	case errors.Is(err, alliance.ErrNotFederated):
		return msgNotFederated
	case alliance.IsValidation(err):
		var ve *alliance.ValidationError
		errors.As(err, &ve)
		switch {
		case strings.Contains(ve.Reason, "no puede salir"):
			return msgAnchorLeave
		case strings.Contains(ve.Reason, "puede disolver"):
			return msgAnchorOnly
		case strings.Contains(ve.Reason, "al menos 2"):
			return "❌ 结盟至少需要2个群"
		case strings.Contains(ve.Reason, "ya pertenece"):
			return "❌ 有群已经加入了其他联盟"
		case strings.Contains(ve.Reason, "repetido"):
			return "❌ 群号重复了"
		default:
			return "❌ " + ve.Reason
		}
	default:
		return ""
	}
}

// err2nil deja pasar como error solo lo que no es un resultado
// esperable del comando (corrupciones, I/O).
func err2nil(err error) error {
	if errors.Is(err, alliance.ErrPermissionDenied) ||
		errors.Is(err, alliance.ErrNotFederated) ||
		alliance.IsValidation(err) {
		return nil
	}
	return err
}
