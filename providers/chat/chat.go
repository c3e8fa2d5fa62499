package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rosterbot/roster-server/config"
	"github.com/rosterbot/roster-server/notify"
)

// Client delivers messages through the chat gateway's REST API. The gateway
// owns rendering (embeds, buttons); we only post payloads.
type Client struct {
	url   string
	token string
}

func NewClient(c *config.Config) *Client {
	return &Client{
		url:   c.ChatConfig.GatewayUrl,
		token: c.ChatConfig.Token,
	}
}

func (c *Client) SendDirect(ctx context.Context, userId int64, msg notify.Message) error {
	return c.post("/users/"+strconv.FormatInt(userId, 10)+"/messages", msg)
}

func (c *Client) SendToChannel(ctx context.Context, channelId int64, msg notify.Message) error {
	return c.post("/channels/"+strconv.FormatInt(channelId, 10)+"/messages", msg)
}

func (c *Client) post(path string, msg notify.Message) error {
	a := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(a)

	res := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(res)

	a.Reuse()
	req := a.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.SetRequestURI(c.url + path)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.token)

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req.SetBody(body)

	if err := a.Parse(); err != nil {
		return err
	}

	code, body, errArr := a.SetResponse(res).Timeout(5 * time.Second).Bytes()
	if len(errArr) != 0 {
		return errArr[0]
	}

	if code != fiber.StatusOK && code != fiber.StatusCreated && code != fiber.StatusNoContent {
		return errors.New(string(body))
	}

	return nil
}
