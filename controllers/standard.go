package controllers

import "github.com/rosterbot/roster-server/utils-go"

var (
	standardRoute utils.JwtMiddlewareConfig
	adminRoute    utils.JwtMiddlewareConfig
	internalRoute utils.JwtMiddlewareConfig
)

func init() {
	standardRoute = utils.JwtMiddlewareConfig{
		ReadFrom: "header",
		Subject:  "access",
		Scopes:   []string{"basic"},
	}

	adminRoute = utils.JwtMiddlewareConfig{
		ReadFrom: "header",
		Subject:  "access",
		Scopes:   []string{"admin"},
	}

	// The chat gateway's own callbacks (view timeouts) come in with the
	// internal scope.
	internalRoute = utils.JwtMiddlewareConfig{
		ReadFrom: "header",
		Subject:  "access",
		Scopes:   []string{"internal"},
	}
}
