package controller

import (
	"fmt"

	"vibez-studio/internal/dto"
	"vibez-studio/internal/pkg/serverutils"
	"vibez-studio/internal/service"
	"vibez-studio/pkg/vibeapi"

	"github.com/gofiber/fiber/v2"
)

type IWorkspaceController interface {
	RegisterRoutes(r fiber.Router)
	View(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Recommend(ctx *fiber.Ctx) error
	AutoChart(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
	ClearHistory(ctx *fiber.Ctx) error
	Feedback(ctx *fiber.Ctx) error
	Preview(ctx *fiber.Ctx) error
	DownloadChart(ctx *fiber.Ctx) error
}

type workspaceController struct {
	service service.IWorkspaceService
	auth    fiber.Handler
}

func NewWorkspaceController(service service.IWorkspaceService, auth fiber.Handler) IWorkspaceController {
	return &workspaceController{service: service, auth: auth}
}

func (c *workspaceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/workspace/v1")
	h.Use(c.auth)
	h.Get("/view", c.View)
	h.Post("/upload", c.Upload)
	h.Post("/recommend", c.Recommend)
	h.Post("/auto-chart", c.AutoChart)
	h.Post("/reset", c.Reset)
	h.Post("/ask", c.Ask)
	h.Delete("/history", c.ClearHistory)
	h.Post("/feedback", c.Feedback)
	h.Post("/preview", c.Preview)
	h.Get("/chart/download", c.DownloadChart)
}

func userID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals("user_id").(string)
	return id
}

func (c *workspaceController) View(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get view", c.service.View(userID(ctx))))
}

func (c *workspaceController) Upload(ctx *fiber.Ctx) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return &vibeapi.ValidationError{Field: "file", Message: "file is required"}
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := c.service.Upload(ctx.UserContext(), userID(ctx), fh.Filename, f)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Dataset uploaded", res))
}

func (c *workspaceController) Recommend(ctx *fiber.Ctx) error {
	var req dto.RecommendRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Recommend(ctx.UserContext(), userID(ctx), req.Goal, req.ChartType)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chart recommended", res))
}

func (c *workspaceController) AutoChart(ctx *fiber.Ctx) error {
	var req dto.AutoChartRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AutoChart(ctx.UserContext(), userID(ctx), req.Prompt)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chart recommended", res))
}

func (c *workspaceController) Reset(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Workspace reset", c.service.Reset(userID(ctx))))
}

func (c *workspaceController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), userID(ctx), req.Question)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Question answered", res))
}

func (c *workspaceController) ClearHistory(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("History cleared", c.service.ClearHistory(userID(ctx))))
}

func (c *workspaceController) Feedback(ctx *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Feedback(ctx.UserContext(), userID(ctx), req.CorrectVibe)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Feedback recorded", res))
}

func (c *workspaceController) Preview(ctx *fiber.Ctx) error {
	var req dto.PreviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Preview(ctx.UserContext(), userID(ctx), vibeapi.PreviewRequest{
		Vibe:     req.Vibe,
		XCol:     req.XCol,
		YCol:     req.YCol,
		GroupCol: req.GroupCol,
		Options:  req.Options,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Preview rendered", res))
}

func (c *workspaceController) DownloadChart(ctx *fiber.Ctx) error {
	name, data, err := c.service.ChartDownload(userID(ctx))
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Send(data)
}
