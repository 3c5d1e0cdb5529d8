package controller

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"vibez-studio/internal/dto"
	"vibez-studio/internal/pkg/serverutils"
	"vibez-studio/internal/service"

	"github.com/gofiber/fiber/v2"
)

const oauthStateCookie = "vibez_oauth_state"

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Signup(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	Profile(ctx *fiber.Ctx) error
	GoogleLogin(ctx *fiber.Ctx) error
	GoogleCallback(ctx *fiber.Ctx) error
}

type authController struct {
	service   service.IAuthService
	auth      fiber.Handler
	clientURL string
}

func NewAuthController(service service.IAuthService, auth fiber.Handler, clientURL string) IAuthController {
	return &authController{service: service, auth: auth, clientURL: clientURL}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth/v1")
	h.Post("/signup", c.Signup)
	h.Post("/login", c.Login)
	h.Get("/google", c.GoogleLogin)
	h.Get("/google/callback", c.GoogleCallback)
	h.Post("/logout", c.auth, c.Logout)
	h.Get("/profile", c.auth, c.Profile)
}

func (c *authController) Signup(ctx *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Signup(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("User registered successfully", res))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	userID, _ := ctx.Locals("user_id").(string)
	tokenID, _ := ctx.Locals("token_id").(string)
	expiresAt, _ := ctx.Locals("token_exp").(time.Time)

	if err := c.service.Logout(ctx.UserContext(), userID, tokenID, expiresAt); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Logged out successfully", nil))
}

func (c *authController) Profile(ctx *fiber.Ctx) error {
	userID, _ := ctx.Locals("user_id").(string)
	res, err := c.service.Profile(ctx.UserContext(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get profile", res))
}

func (c *authController) GoogleLogin(ctx *fiber.Ctx) error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	state := base64.URLEncoding.EncodeToString(b)

	url, err := c.service.GoogleLoginURL(state)
	if err != nil {
		return err
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return ctx.Redirect(url)
}

// GoogleCallback finishes Google sign-in and hands the token to the frontend
// in the redirect URL.
func (c *authController) GoogleCallback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing code")
	}
	if state := ctx.Cookies(oauthStateCookie); state == "" || state != ctx.Query("state") {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid oauth state")
	}
	ctx.ClearCookie(oauthStateCookie)

	res, err := c.service.GoogleCallback(ctx.UserContext(), code)
	if err != nil {
		return err
	}
	return ctx.Redirect(c.clientURL + "/auth/callback?token=" + res.AccessToken)
}
