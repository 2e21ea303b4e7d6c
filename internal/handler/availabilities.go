package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/roster"
)

func (h *Handler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeekDay   *int32 `json:"weekDay" validate:"required,gte=0,lte=6"`
		StartTime string `json:"startTime" validate:"required"`
		EndTime   string `json:"endTime" validate:"required"`
		Recurring bool   `json:"recurring"`
		Notes     string `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := roster.ValidateShiftTimes(req.StartTime, req.EndTime); err != nil {
		h.domainError(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	availability := &domain.Availability{
		UserID:    myInfo.ID,
		WeekDay:   *req.WeekDay,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Recurring: req.Recurring,
		Notes:     req.Notes,
	}

	if err := h.repository.CreateAvailability(availability); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "登记空闲时间成功", availability)
}

func (h *Handler) GetMyAvailabilities(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	availabilities, err := h.repository.ListAvailabilitiesForUser(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取空闲时间列表成功", availabilities)
}

func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeekDay   *int32  `json:"weekDay" validate:"omitempty,gte=0,lte=6"`
		StartTime *string `json:"startTime"`
		EndTime   *string `json:"endTime"`
		Recurring *bool   `json:"recurring"`
		Notes     *string `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	availability := r.Context().Value(AvailabilityCtx).(*domain.Availability)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	// 只能修改自己的空闲时间
	if availability.UserID != myInfo.ID {
		h.errorResponse(w, r, "权限不足")
		return
	}

	if req.WeekDay != nil {
		availability.WeekDay = *req.WeekDay
	}
	if req.StartTime != nil {
		availability.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		availability.EndTime = *req.EndTime
	}
	if req.Recurring != nil {
		availability.Recurring = *req.Recurring
	}
	if req.Notes != nil {
		availability.Notes = *req.Notes
	}

	if err := roster.ValidateShiftTimes(availability.StartTime, availability.EndTime); err != nil {
		h.domainError(w, r, err)
		return
	}

	if err := h.repository.UpdateAvailability(availability); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新空闲时间成功", availability)
}

func (h *Handler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	availability := r.Context().Value(AvailabilityCtx).(*domain.Availability)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	if availability.UserID != myInfo.ID && !myInfo.Role.CanManageShifts() {
		h.errorResponse(w, r, "权限不足")
		return
	}

	if err := h.repository.DeleteAvailability(availability.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除空闲时间成功", nil)
}
