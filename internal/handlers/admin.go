package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	apperrors "paydesk/internal/errors"
	"paydesk/internal/services/bulk"
	"paydesk/internal/services/linking"
	"paydesk/internal/services/team"
	"paydesk/internal/utils"
	"paydesk/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ContractLister lists contract ids for the back office.
type ContractLister interface {
	ListContractIDs(ctx context.Context) ([]string, error)
}

type AdminHandler struct {
	bulk      *bulk.Service
	linking   *linking.Service
	team      *team.Service
	contracts ContractLister
	log       logrus.FieldLogger
}

func NewAdminHandler(bulkSvc *bulk.Service, linkingSvc *linking.Service, teamSvc *team.Service, contracts ContractLister, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{
		bulk:      bulkSvc,
		linking:   linkingSvc,
		team:      teamSvc,
		contracts: contracts,
		log:       log,
	}
}

type bulkUpdateRequest struct {
	IDs    []string               `json:"ids" validate:"required,min=1,dive,required"`
	Fields map[string]interface{} `json:"fields" validate:"required,min=1"`
}

type bulkDeleteRequest struct {
	IDs     []string `json:"ids" validate:"required,min=1,dive,required"`
	Confirm bool     `json:"confirm"`
}

type bulkExportRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type createMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone"`
	Role  string `json:"role" validate:"required,oneof=admin partner merchant"`
}

type deleteMemberRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

func bulkError(c *fiber.Ctx, err error) error {
	if errors.Is(err, bulk.ErrUnknownCollection) {
		return response.FromError(c, apperrors.WithMessage(apperrors.ErrNotFound, err.Error()))
	}
	return response.FromError(c, err)
}

// BulkColumns lists the exported columns of a collection so the client
// can build its table header.
func (h *AdminHandler) BulkColumns(c *fiber.Ctx) error {
	columns, err := bulk.Columns(bulk.Collection(c.Params("collection")))
	if err != nil {
		return bulkError(c, err)
	}
	return response.Success(c, "Columns retrieved", columns)
}

// BulkUpdate applies the same fields to every selected row. Row failures are
// listed in the report; the request itself still succeeds.
func (h *AdminHandler) BulkUpdate(c *fiber.Ctx) error {
	var req bulkUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	report, err := h.bulk.Update(c.UserContext(), bulk.Collection(c.Params("collection")), req.IDs, req.Fields)
	if err != nil && len(report.Succeeded)+len(report.Failed) == 0 {
		return bulkError(c, err)
	}
	if err != nil {
		h.log.WithError(err).Warn("Bulk update had failing rows")
	}
	return response.Success(c, "Bulk update finished", report)
}

func (h *AdminHandler) BulkDelete(c *fiber.Ctx) error {
	var req bulkDeleteRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	report, err := h.bulk.Delete(c.UserContext(), bulk.Collection(c.Params("collection")), req.IDs, req.Confirm)
	if err != nil && len(report.Succeeded)+len(report.Failed) == 0 {
		return bulkError(c, err)
	}
	if err != nil {
		h.log.WithError(err).Warn("Bulk delete had failing rows")
	}
	return response.Success(c, "Bulk delete finished", report)
}

func (h *AdminHandler) BulkExport(c *fiber.Ctx) error {
	var req bulkExportRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	coll := c.Params("collection")
	var buf bytes.Buffer
	if _, err := h.bulk.Export(c.UserContext(), bulk.Collection(coll), req.IDs, &buf); err != nil {
		return bulkError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", coll+".csv"))
	return c.Send(buf.Bytes())
}

// FixMerchantLinks repairs every contract without a merchant reference.
func (h *AdminHandler) FixMerchantLinks(c *fiber.Ctx) error {
	report, err := h.linking.FixAll(c.UserContext())
	if err != nil {
		h.log.WithError(err).Warn("Some contracts could not be linked")
	}
	return response.Success(c, "Merchant links repaired", report)
}

func (h *AdminHandler) CreateMember(c *fiber.Ctx) error {
	var req createMemberRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	callerID := utils.CallerID(c)
	created, err := h.team.CreateMember(c.UserContext(), callerID, team.NewMember{
		Email: req.Email,
		Name:  req.Name,
		Phone: req.Phone,
		Role:  req.Role,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Team member created", fiber.Map{
		"id":                 created.User.ID,
		"email":              created.User.Email,
		"role":               created.Role,
		"temporary_password": created.TemporaryPassword,
	})
}

func (h *AdminHandler) DeleteMember(c *fiber.Ctx) error {
	var req deleteMemberRequest
	if err := parseBody(c, &req); err != nil {
		return response.FromError(c, err)
	}
	callerID := utils.CallerID(c)
	if err := h.team.DeleteMember(c.UserContext(), callerID, req.UserID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Team member deleted", nil)
}

// ListContracts returns one page of contract ids, oldest first.
func (h *AdminHandler) ListContracts(c *fiber.Ctx) error {
	ids, err := h.contracts.ListContractIDs(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	page, p := utils.Paginate(ids, utils.GetPagination(c, 1, 50))
	return c.JSON(utils.NewPaginatedResponse(page, p))
}
