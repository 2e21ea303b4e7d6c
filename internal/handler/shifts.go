package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/roster"
)

const dateLayout = "2006-01-02"

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title            string     `json:"title" validate:"required"`
		Date             string     `json:"date" validate:"required"`
		StartTime        string     `json:"startTime" validate:"required"`
		EndTime          string     `json:"endTime" validate:"required"`
		ApprovalDeadline *time.Time `json:"approvalDeadline"`
		Notes            string     `json:"notes"`
		TempID           string     `json:"tempId"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.errorResponse(w, r, "日期格式无效")
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	shift := &domain.Shift{
		Title:            req.Title,
		Date:             date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		AssignedUsers:    []domain.Assignment{},
		ApprovalDeadline: req.ApprovalDeadline,
		Notes:            req.Notes,
		CreatedBy:        myInfo.ID,
	}

	if err := roster.ValidateShift(shift); err != nil {
		h.domainError(w, r, err)
		return
	}

	// 前端批量创建时会带上草稿 ID，落库时换成持久 ID
	ref := domain.PersistedShiftRef(0)
	if req.TempID != "" {
		ref = domain.DraftShiftRef(req.TempID)
	}

	if _, err := h.repository.SaveShift(ref, shift); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建班次成功", shift)
}

func (h *Handler) GetAllShifts(w http.ResponseWriter, r *http.Request) {
	var (
		shifts []*domain.Shift
		err    error
	)

	fromParam := r.URL.Query().Get("from")
	toParam := r.URL.Query().Get("to")

	if fromParam != "" && toParam != "" {
		from, parseErr := time.Parse(dateLayout, fromParam)
		if parseErr != nil {
			h.errorResponse(w, r, "日期格式无效")
			return
		}
		to, parseErr := time.Parse(dateLayout, toParam)
		if parseErr != nil {
			h.errorResponse(w, r, "日期格式无效")
			return
		}
		if !from.Before(to) {
			h.errorResponse(w, r, "起始时间必须早于结束时间")
			return
		}

		candidates, listErr := h.repository.GetShiftsBetween(from, to)
		if listErr != nil {
			h.internalServerError(w, r, listErr)
			return
		}

		// 数据库只按日期做了粗筛，跨夜班次要按实际区间再过滤一次
		shifts = make([]*domain.Shift, 0, len(candidates))
		for _, shift := range candidates {
			if roster.OverlapsRange(shift, from, to) {
				shifts = append(shifts, shift)
			}
		}
	} else {
		shifts, err = h.repository.GetAllShifts()
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	// 返回经过缺勤对账的视图，存储中的原始状态保持不变
	absences := h.currentApprovedAbsences()
	reconciled := make([]*domain.Shift, 0, len(shifts))
	for _, shift := range shifts {
		reconciled = append(reconciled, roster.ReconcileAssignments(shift, absences))
	}

	h.successResponse(w, r, "获取班次列表成功", reconciled)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	reconciled, err := h.engine.ReconciledShift(shift.ID)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班次成功", reconciled)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title            *string    `json:"title"`
		Date             *string    `json:"date"`
		StartTime        *string    `json:"startTime"`
		EndTime          *string    `json:"endTime"`
		ApprovalDeadline *time.Time `json:"approvalDeadline"`
		Notes            *string    `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if req.Title != nil {
		shift.Title = *req.Title
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			h.errorResponse(w, r, "日期格式无效")
			return
		}
		shift.Date = date
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if req.ApprovalDeadline != nil {
		shift.ApprovalDeadline = req.ApprovalDeadline
	}
	if req.Notes != nil {
		shift.Notes = *req.Notes
	}

	if err := roster.ValidateShift(shift); err != nil {
		h.domainError(w, r, err)
		return
	}

	if err := h.repository.UpdateShift(shift); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新班次成功", shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if err := h.engine.DeleteShift(shift.ID); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除班次成功", nil)
}

func (h *Handler) AssignUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"userId" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	var updated *domain.Shift
	err := h.withRetry(func() error {
		var opErr error
		updated, opErr = h.engine.AssignUser(shift.ID, req.UserID)
		return opErr
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "指派成功", updated)
}

func (h *Handler) UnassignUser(w http.ResponseWriter, r *http.Request) {
	userIDParam := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "用户ID无效")
		return
	}

	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	var updated *domain.Shift
	err = h.withRetry(func() error {
		var opErr error
		updated, opErr = h.engine.UnassignUser(shift.ID, userID)
		return opErr
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "取消指派成功", updated)
}

func (h *Handler) RespondToAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision" validate:"required,oneof=accept decline"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	if shift.ApprovalDeadline != nil && time.Now().After(*shift.ApprovalDeadline) {
		h.errorResponse(w, r, "已超过响应截止时间")
		return
	}

	var updated *domain.Shift
	err := h.withRetry(func() error {
		var opErr error
		updated, opErr = h.engine.RespondToAssignment(shift.ID, myInfo.ID, roster.Decision(req.Decision))
		return opErr
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "响应成功", updated)
}
