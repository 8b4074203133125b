package handlers

import (
	"strconv"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"
	"paydesk/internal/services/session"
	"paydesk/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type OnboardingHandler struct {
	sessions *session.Manager
	log      logrus.FieldLogger
}

func NewOnboardingHandler(sessions *session.Manager, log logrus.FieldLogger) *OnboardingHandler {
	return &OnboardingHandler{sessions: sessions, log: log}
}

type fieldRequest struct {
	Path  string      `json:"path" validate:"required"`
	Value interface{} `json:"value"`
}

type sectionRequest struct {
	Path   string                 `json:"path" validate:"required"`
	Values map[string]interface{} `json:"values" validate:"required"`
}

type sourceRequest struct {
	Source onboarding.Source `json:"source" validate:"required,oneof=contactInfo companyContact"`
}

func (h *OnboardingHandler) Open(c *fiber.Ctx) error {
	rec, err := h.sessions.Open(c.UserContext(), c.Params("contractId"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Session opened", rec)
}

func (h *OnboardingHandler) Get(c *fiber.Ctx) error {
	rec, err := h.sessions.Get(c.Params("contractId"))
	if err != nil {
		return response.FromError(c, err)
	}
	if dirty, err := h.sessions.Dirty(c.Params("contractId")); err == nil {
		c.Set("X-Unsaved-Changes", strconv.FormatBool(dirty))
	}
	return response.Success(c, "Onboarding record", rec)
}

func (h *OnboardingHandler) Close(c *fiber.Ctx) error {
	if err := h.sessions.Close(c.UserContext(), c.Params("contractId")); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Session closed", nil)
}

func (h *OnboardingHandler) UpdateField(c *fiber.Ctx) error {
	var req fieldRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	rec, err := h.sessions.UpdateField(c.UserContext(), c.Params("contractId"), req.Path, req.Value)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Field updated", rec)
}

func (h *OnboardingHandler) UpdateSection(c *fiber.Ctx) error {
	var req sectionRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	rec, err := h.sessions.UpdateSection(c.UserContext(), c.Params("contractId"), req.Path, req.Values)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Section updated", rec)
}

func (h *OnboardingHandler) AuthorizedPersonFromContact(c *fiber.Ctx) error {
	var req sourceRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	p, err := h.sessions.UseContactAsAuthorizedPerson(c.UserContext(), c.Params("contractId"), req.Source)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Authorized person created", p)
}

func (h *OnboardingHandler) ActualOwnerFromContact(c *fiber.Ctx) error {
	var req sourceRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	o, err := h.sessions.UseContactAsActualOwner(c.UserContext(), c.Params("contractId"), req.Source)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Actual owner created", o)
}

func (h *OnboardingHandler) LocationFromContact(c *fiber.Ctx) error {
	l, err := h.sessions.CreateLocationFromContact(c.UserContext(), c.Params("contractId"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Business location created", l)
}

func (h *OnboardingHandler) AddLocation(c *fiber.Ctx) error {
	var in onboarding.BusinessLocation
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	l, err := h.sessions.AddLocation(c.UserContext(), c.Params("contractId"), &in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Business location added", l)
}

func (h *OnboardingHandler) ImportRegistryPersons(c *fiber.Ctx) error {
	report, err := h.sessions.ImportRegistryPersons(c.UserContext(), c.Params("contractId"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Registry persons imported", report)
}

// UploadDocument accepts a multipart "file" field with the ID scan.
func (h *OnboardingHandler) UploadDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return response.FromError(c, apperrors.Wrap(apperrors.ErrValidation, err))
	}
	defer f.Close()

	url, err := h.sessions.UploadDocument(
		c.UserContext(),
		c.Params("contractId"),
		c.Params("personId"),
		c.Params("side"),
		fh.Header.Get("Content-Type"),
		f,
		fh.Size,
	)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Document uploaded", fiber.Map{"url": url})
}

func (h *OnboardingHandler) Save(c *fiber.Ctx) error {
	rec, err := h.sessions.Save(c.UserContext(), c.Params("contractId"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Onboarding saved", rec)
}

func (h *OnboardingHandler) Submit(c *fiber.Ctx) error {
	rec, err := h.sessions.Submit(c.UserContext(), c.Params("contractId"))
	if err != nil {
		return response.FromError(c, err)
	}
	h.log.WithField("contract_id", rec.ContractID).Info("Onboarding submitted")
	return response.Success(c, "Onboarding submitted", rec)
}
