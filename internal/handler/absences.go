package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type      string `json:"type" validate:"required,oneof=vacation sick_leave day_off"`
		StartDate string `json:"startDate" validate:"required"`
		EndDate   string `json:"endDate" validate:"required"`
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

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		h.errorResponse(w, r, "日期格式无效")
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		h.errorResponse(w, r, "日期格式无效")
		return
	}
	if endDate.Before(startDate) {
		h.errorResponse(w, r, "结束日期不能早于开始日期")
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	absence := &domain.Absence{
		UserID:    myInfo.ID,
		Type:      domain.AbsenceType(req.Type),
		Status:    domain.AbsenceStatusPending,
		StartDate: startDate,
		EndDate:   endDate,
		Notes:     req.Notes,
	}

	if err := h.repository.CreateAbsence(absence); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "提交缺勤申请成功", absence)
}

func (h *Handler) GetAbsences(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	// 员工只能看到自己的申请，经理和管理员可以查看全部
	userID := myInfo.ID
	if myInfo.Role.CanManageShifts() {
		userID = 0
	}

	absences, err := h.repository.ListAbsencesForUser(userID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取缺勤申请列表成功", absences)
}

func (h *Handler) ReviewAbsence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Approve *bool `json:"approve" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	absence := r.Context().Value(AbsenceCtx).(*domain.Absence)

	if absence.Status != domain.AbsenceStatusPending {
		h.errorResponse(w, r, "该申请已被审批")
		return
	}

	if *req.Approve {
		absence.Status = domain.AbsenceStatusApproved
	} else {
		absence.Status = domain.AbsenceStatusRejected
	}

	if err := h.repository.ReviewAbsence(absence); err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "审批缺勤申请成功", absence)
}
