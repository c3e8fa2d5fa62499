package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rosterbot/roster-server/repos"
	"github.com/rosterbot/roster-server/utils-go"
	"go.uber.org/fx"
)

type ServerConfigController struct {
	fx.In

	Repo *repos.ServerConfigRepo
}

func RegisterServerConfigController(r *utils.Router, c ServerConfigController) {
	r.Post("/guilds/:id/approval-channel", utils.Protected(adminRoute), c.registerApprovalChannel)
	r.Get("/guilds/:id/approval-channel", utils.Protected(standardRoute), c.getApprovalChannel)
}

type approvalChannelConfig struct {
	ChannelId int64 `json:"channel_id" validate:"required"`
}

func (r *ServerConfigController) registerApprovalChannel(c *fiber.Ctx) error {
	guildId, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	config := new(approvalChannelConfig)
	if err := c.BodyParser(config); err != nil {
		return utils.StandardCouldNotParse(c)
	}

	if errs := utils.ValidateStruct(*config); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errs)
	}

	if err := r.Repo.SetApprovalChannel(c.Context(), guildId, config.ChannelId); err != nil {
		return utils.StandardInternalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Approval channel registered",
	})
}

func (r *ServerConfigController) getApprovalChannel(c *fiber.Ctx) error {
	guildId, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	channelId, err := r.Repo.ApprovalChannel(c.Context(), guildId)
	if err != nil {
		return utils.StandardInternalError(c, err)
	}

	return c.JSON(fiber.Map{
		"channel_id": channelId,
	})
}
