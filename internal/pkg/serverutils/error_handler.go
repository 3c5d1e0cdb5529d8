package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"vibez-studio/pkg/vibeapi"
	"vibez-studio/pkg/workspace"
)

// StatusFor maps an error returned by a handler to an HTTP status and the
// message shown to the caller.
func StatusFor(err error) (int, string) {
	var (
		verr   *vibeapi.ValidationError
		serr   *workspace.SubmitError
		rerr   *vibeapi.RecommendationError
		terr   *vibeapi.TransportError
		ferr   *fiber.Error
		authEr *AuthError
	)

	switch {
	case errors.Is(err, workspace.ErrSuperseded):
		return fiber.StatusConflict, err.Error()
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, verr.Message
	case errors.As(err, &authEr):
		return authEr.Code, authEr.Message
	case errors.As(err, &serr):
		return fiber.StatusUnprocessableEntity, serr.Message
	case errors.As(err, &rerr):
		return fiber.StatusUnprocessableEntity, rerr.Message
	case errors.As(err, &terr):
		msg := terr.Detail
		if msg == "" {
			msg = "chart service unavailable"
		}
		return fiber.StatusBadGateway, msg
	case errors.As(err, &ferr):
		return ferr.Code, ferr.Message
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// ErrorHandler renders handler errors in the response envelope. It is
// installed as fiber's ErrorHandler.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code, msg := StatusFor(err)
	return ctx.Status(code).JSON(ErrorResponse(code, msg))
}

// ErrorHandlerMiddleware turns errors returned further down the chain into
// enveloped responses so upstream middleware sees a completed response.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return ErrorHandler(ctx, err)
	}
}

// AuthError is an authentication failure with the status to report.
type AuthError struct {
	Code    int
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func Unauthorized(msg string) error {
	return &AuthError{Code: fiber.StatusUnauthorized, Message: msg}
}

func Conflict(msg string) error {
	return &AuthError{Code: fiber.StatusConflict, Message: msg}
}
