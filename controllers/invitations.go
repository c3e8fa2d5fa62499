package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rosterbot/roster-server/invites"
	"github.com/rosterbot/roster-server/providers/verify"
	"github.com/rosterbot/roster-server/repos"
	"github.com/rosterbot/roster-server/utils-go"
	"go.uber.org/fx"
)

type InvitationsController struct {
	fx.In

	Engine   *invites.Engine
	Repo     *repos.InvitationRepo
	TeamRepo *repos.TeamRepo
	Verify   *verify.Client
}

func RegisterInvitationsController(r *utils.Router, c InvitationsController) {
	invitations := r.Group("/invitations")

	invitations.Post("/", utils.Protected(standardRoute), c.createInvitation)
	invitations.Get("/", utils.Protected(standardRoute), c.listPending)
	invitations.Get("/:id", utils.Protected(standardRoute), c.getInvitation)
	invitations.Post("/:id/response", utils.Protected(standardRoute), c.inviteeResponse)
	invitations.Post("/:id/review", utils.Protected(adminRoute), c.adminReview)
	invitations.Post("/:id/expire", utils.Protected(internalRoute), c.expire)
}

type createInvitationConfig struct {
	GuildId  int64  `json:"guild_id" validate:"required"`
	TeamName string `json:"team_name" validate:"required,min=1,max=100"`
	UserId   int64  `json:"user_id" validate:"required"`
}

func (r *InvitationsController) createInvitation(c *fiber.Ctx) error {
	config := new(createInvitationConfig)
	if err := c.BodyParser(config); err != nil {
		return utils.StandardCouldNotParse(c)
	}

	if errs := utils.ValidateStruct(*config); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errs)
	}

	inviterId := c.Locals("user").(int64)

	verified, err := r.Verify.IsVerified(c.Context(), inviterId)
	if err != nil {
		return utils.StandardInternalError(c, err)
	}
	if !verified {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You must verify your account before inviting players",
		})
	}

	team, err := r.TeamRepo.GetTeamByName(c.Context(), config.GuildId, config.TeamName)
	if err != nil {
		return utils.StandardInternalError(c, err)
	}
	if team == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team '" + config.TeamName + "' not found",
		})
	}

	inv, err := r.Engine.RequestInvite(c.Context(), team.Id, inviterId, config.UserId)
	if err != nil {
		return invitationError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(inv)
}

type inviteeResponseConfig struct {
	Accept *bool `json:"accept" validate:"required"`
}

func (r *InvitationsController) inviteeResponse(c *fiber.Ctx) error {
	id, err := invitationId(c)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	config := new(inviteeResponseConfig)
	if err := c.BodyParser(config); err != nil {
		return utils.StandardCouldNotParse(c)
	}

	if errs := utils.ValidateStruct(*config); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errs)
	}

	inv, err := r.Repo.Get(c.Context(), id)
	if err != nil {
		return invitationError(c, err)
	}

	if inv.UserId != c.Locals("user").(int64) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This invitation is not for you",
		})
	}

	inv, err = r.Engine.RecordInviteeResponse(c.Context(), id, *config.Accept)
	if err != nil {
		if errors.Is(err, invites.ErrStaleTransition) {
			// Timeout or a second click won the race; nothing to do.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message": "Invitation already handled",
			})
		}
		return invitationError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(inv)
}

type adminReviewConfig struct {
	Approved *bool  `json:"approved" validate:"required"`
	Reason   string `json:"reason" validate:"max=1000"`
}

func (r *InvitationsController) adminReview(c *fiber.Ctx) error {
	id, err := invitationId(c)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	config := new(adminReviewConfig)
	if err := c.BodyParser(config); err != nil {
		return utils.StandardCouldNotParse(c)
	}

	if errs := utils.ValidateStruct(*config); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errs)
	}

	inv, err := r.Engine.RecordAdminResponse(c.Context(), id, *config.Approved, config.Reason)
	if err != nil {
		if errors.Is(err, invites.ErrStaleTransition) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message": "Invitation already finalized",
			})
		}
		if errors.Is(err, invites.ErrNotYetAccepted) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "The invitation has not been accepted by the player yet",
			})
		}
		return invitationError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(inv)
}

func (r *InvitationsController) expire(c *fiber.Ctx) error {
	id, err := invitationId(c)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	if err := r.Engine.ExpireIfOverdue(c.Context(), id); err != nil {
		return invitationError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (r *InvitationsController) getInvitation(c *fiber.Ctx) error {
	id, err := invitationId(c)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	inv, err := r.Repo.Get(c.Context(), id)
	if err != nil {
		return invitationError(c, err)
	}

	return c.JSON(inv)
}

func (r *InvitationsController) listPending(c *fiber.Ctx) error {
	if invitee := c.Query("invitee"); invitee != "" {
		id, err := strconv.ParseInt(invitee, 10, 64)
		if err != nil {
			return utils.StandardCouldNotParse(c)
		}

		list, err := r.Repo.ListPendingByInvitee(c.Context(), id)
		if err != nil {
			return utils.StandardInternalError(c, err)
		}
		return c.JSON(list)
	}

	if inviter := c.Query("inviter"); inviter != "" {
		id, err := strconv.ParseInt(inviter, 10, 64)
		if err != nil {
			return utils.StandardCouldNotParse(c)
		}

		list, err := r.Repo.ListPendingByInviter(c.Context(), id)
		if err != nil {
			return utils.StandardInternalError(c, err)
		}
		return c.JSON(list)
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Specify an invitee or inviter filter",
	})
}

func invitationId(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func invitationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, invites.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation not found",
		})
	case errors.Is(err, invites.ErrNotEligible),
		errors.Is(err, invites.ErrAlreadyMember),
		errors.Is(err, invites.ErrDuplicateInvitation),
		errors.Is(err, invites.ErrInviteeUnreachable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, invites.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return utils.StandardInternalError(c, err)
	}
}
