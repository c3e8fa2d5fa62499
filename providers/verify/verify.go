package verify

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rosterbot/roster-server/config"
)

// Client asks the external identity-verification provider whether a chat
// account is linked to a verified game identity. Single check call; account
// linking itself happens on the provider's side.
type Client struct {
	url    string
	apiKey string
}

func NewClient(c *config.Config) *Client {
	return &Client{
		url:    c.VerifyConfig.Url,
		apiKey: c.VerifyConfig.ApiKey,
	}
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

func (c *Client) IsVerified(ctx context.Context, userId int64) (bool, error) {
	a := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(a)

	res := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(res)

	a.Reuse()
	req := a.Request()
	req.Header.SetMethod(fiber.MethodGet)
	req.SetRequestURI(c.url + "/v1/users/" + strconv.FormatInt(userId, 10))
	req.Header.Set("Authorization", c.apiKey)

	if err := a.Parse(); err != nil {
		return false, err
	}

	code, body, errArr := a.SetResponse(res).Timeout(5 * time.Second).Bytes()
	if len(errArr) != 0 {
		return false, errArr[0]
	}

	if code == fiber.StatusNotFound {
		return false, nil
	}
	if code != fiber.StatusOK {
		return false, errors.New(string(body))
	}

	parsed := new(verifyResponse)
	if err := json.Unmarshal(body, parsed); err != nil {
		return false, err
	}

	return parsed.Verified, nil
}
