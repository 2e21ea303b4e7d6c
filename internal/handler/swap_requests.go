package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

func (h *Handler) CreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShiftID     int64  `json:"shiftId" validate:"required"`
		RecipientID int64  `json:"recipientId" validate:"required"`
		Notes       string `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	request, err := h.engine.CreateSwapRequest(req.ShiftID, myInfo.ID, req.RecipientID, req.Notes)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "发起换班请求成功", request)
}

func (h *Handler) GetSwapRequests(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	// 员工只能看到与自己相关的请求，经理和管理员可以查看全部
	userID := myInfo.ID
	if myInfo.Role.CanManageShifts() {
		userID = 0
	}

	requests, err := h.repository.ListSwapRequestsForUser(userID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取换班请求列表成功", requests)
}

func (h *Handler) RespondToSwapRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Approve       *bool  `json:"approve" validate:"required"`
		ResponseNotes string `json:"responseNotes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	request := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

	// 只有接收方本人或者经理可以响应
	if request.RecipientID != myInfo.ID && !myInfo.Role.CanManageShifts() {
		h.errorResponse(w, r, "权限不足")
		return
	}

	var resolved *domain.SwapRequest
	err := h.withRetry(func() error {
		var opErr error
		resolved, opErr = h.engine.RespondToSwapRequest(request.ID, *req.Approve, req.ResponseNotes, myInfo.ID)
		return opErr
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "响应换班请求成功", resolved)
}
