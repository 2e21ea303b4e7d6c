package handler

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/roster"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	engine     *roster.Engine
	translator ut.Translator

	// 已批准缺勤的本地缓存，由同步层在缺勤集合变化时刷新
	absenceMu        sync.RWMutex
	approvedAbsences []*domain.Absence

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, engine *roster.Engine) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		engine:     engine,
		translator: trans,

		Mux: chi.NewRouter(),
	}, nil
}

// SetApprovedAbsences 由同步层回调，用最新快照替换缓存
func (h *Handler) SetApprovedAbsences(absences []*domain.Absence) {
	h.absenceMu.Lock()
	defer h.absenceMu.Unlock()
	h.approvedAbsences = absences
}

// currentApprovedAbsences 返回用于对账视图的已批准缺勤
// 缓存尚未建立时退化为直接读库
func (h *Handler) currentApprovedAbsences() []*domain.Absence {
	h.absenceMu.RLock()
	cached := h.approvedAbsences
	h.absenceMu.RUnlock()
	if cached != nil {
		return cached
	}

	absences, err := h.repository.ListApprovedAbsences(time.Now())
	if err != nil {
		slog.Error("无法读取已批准缺勤", "error", err)
		return nil
	}
	return absences
}

// withRetry 只对并发修改冲突做有限次数的重试，引擎每次都会重新读取最新数据
// 其他错误种类对本次调用而言都是终态，直接返回给调用者
func (h *Handler) withRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < h.config.Swap.MaxRetries; attempt++ {
		err = op()
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
	}
	return err
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo) // 所有员工都可以查看其他人的基本信息
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).With(h.myInfo).Post("/", h.CreateShift)
			r.Get("/", h.GetAllShifts)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftCtx)
				r.Get("/", h.GetShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Patch("/", h.UpdateShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Delete("/", h.DeleteShift)
				r.Route("/assignments", func(r chi.Router) {
					r.Use(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin}))
					r.Post("/", h.AssignUser)
					r.Delete("/{userID}", h.UnassignUser)
				})
				r.With(h.myInfo).With(h.preventInactiveEmployee).Post("/response", h.RespondToAssignment)
			})
		})

		r.Route("/swap-requests", func(r chi.Router) {
			r.Use(h.myInfo)
			r.With(h.preventInactiveEmployee).Post("/", h.CreateSwapRequest)
			r.Get("/", h.GetSwapRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.swapRequestCtx)
				r.With(h.preventInactiveEmployee).Post("/response", h.RespondToSwapRequest)
			})
		})

		r.Route("/absences", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Post("/", h.CreateAbsence)
			r.Get("/", h.GetAbsences)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.absenceCtx)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Post("/review", h.ReviewAbsence)
			})
		})

		r.Route("/availabilities", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Post("/", h.CreateAvailability)
			r.Get("/", h.GetMyAvailabilities)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.availabilityCtx)
				r.Patch("/", h.UpdateAvailability)
				r.Delete("/", h.DeleteAvailability)
			})
		})
	})
}
