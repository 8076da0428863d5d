// Package onebot habla con el bot por su API HTTP (estilo OneBot v11):
// envíos activos de mensajes de grupo. Las respuestas a eventos
// entrantes no pasan por acá, van como quick-reply en el propio HTTP
// del evento.
package onebot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client es un cliente mínimo del endpoint send_group_msg.
type Client struct {
	apiBase string
	token   string
	hc      *http.Client
}

func New(apiBase, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiBase: apiBase,
		token:   token,
		hc:      &http.Client{Timeout: timeout},
	}
}

type sendGroupMsgReq struct {
	GroupID string `json:"group_id"`
	Message string `json:"message"`
}

type apiResp struct {
	Status  string `json:"status"`
	Retcode int    `json:"retcode"`
}

// Deliver manda un mensaje a un grupo. Cumple el contrato del
// broadcaster de alianzas: un error acá es una falla de entrega a UN
// grupo, nunca aborta al resto. Algunos bots contestan 200 con un
// retcode de error adentro, así que se revisan los dos.
func (c *Client) Deliver(ctx context.Context, groupID, message string) error {
	body, err := json.Marshal(sendGroupMsgReq{GroupID: groupID, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/send_group_msg", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var ar apiResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&ar); err != nil {
		return fmt.Errorf("onebot: respuesta ilegible: %w", err)
	}
	if resp.StatusCode != http.StatusOK || ar.Retcode != 0 {
		return fmt.Errorf("onebot: send_group_msg falló: http=%d retcode=%d", resp.StatusCode, ar.Retcode)
	}
	return nil
}
