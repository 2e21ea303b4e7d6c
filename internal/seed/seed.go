package seed

import (
	"log/slog"
	"math/rand"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/roster"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/utils"
)

// SeedUsers 随机生成指定数量的用户
func SeedUsers(r *repository.Repository, cfg *config.Config, count int) []*domain.User {
	users := []*domain.User{}

	for i := 0; i < count; i++ {
		user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("生成用户失败", "error", err)
			continue
		}

		if err := r.CreateUser(user); err != nil {
			// 随机用户名可能撞车，跳过即可
			slog.Error("插入用户失败", "error", err)
			continue
		}
		users = append(users, user)
	}

	slog.Info("用户数据生成完成", "count", len(users))
	return users
}

// SeedShifts 随机生成班次并把部分用户指派上去
func SeedShifts(r *repository.Repository, users []*domain.User, count int) []*domain.Shift {
	shifts := []*domain.Shift{}

	for i := 0; i < count; i++ {
		var creator int64
		for _, user := range users {
			if user.Role.CanManageShifts() {
				creator = user.ID
				break
			}
		}

		shift := utils.GenerateRandomShift(30, creator)
		if err := roster.ValidateShift(shift); err != nil {
			continue
		}

		// 随机挑选若干用户作为初始指派
		for _, idx := range rand.Perm(len(users))[:min(rand.Intn(4), len(users))] {
			user := users[idx]
			shift.AssignedUsers = append(shift.AssignedUsers, domain.Assignment{
				UserID:   user.ID,
				UserName: user.FullName,
				Status:   domain.AssignmentStatusAssigned,
			})
		}

		if err := r.CreateShift(shift); err != nil {
			slog.Error("插入班次失败", "error", err)
			continue
		}
		shifts = append(shifts, shift)
	}

	slog.Info("班次数据生成完成", "count", len(shifts))
	return shifts
}

// SeedAbsences 为每个用户随机生成缺勤记录
func SeedAbsences(r *repository.Repository, users []*domain.User) {
	count := 0
	for _, user := range users {
		if rand.Intn(2) == 0 {
			continue
		}

		absence := utils.GenerateRandomAbsence(user.ID)
		if err := r.CreateAbsence(absence); err != nil {
			slog.Error("插入缺勤记录失败", "error", err)
			continue
		}
		count++
	}

	slog.Info("缺勤数据生成完成", "count", count)
}

// SeedAvailabilities 为每个用户随机生成空闲时间
func SeedAvailabilities(r *repository.Repository, users []*domain.User) {
	count := 0
	for _, user := range users {
		n := rand.Intn(3) + 1
		for i := 0; i < n; i++ {
			availability := utils.GenerateRandomAvailability(user.ID)
			if err := r.CreateAvailability(availability); err != nil {
				slog.Error("插入空闲时间失败", "error", err)
				continue
			}
			count++
		}
	}

	slog.Info("空闲时间数据生成完成", "count", count)
}

// SeedSwapRequests 在已有指派的班次上生成待处理的换班请求
func SeedSwapRequests(r *repository.Repository, shifts []*domain.Shift, users []*domain.User, count int) {
	created := 0
	for _, shift := range shifts {
		if created >= count {
			break
		}
		if len(shift.AssignedUsers) == 0 {
			continue
		}

		requester := shift.AssignedUsers[rand.Intn(len(shift.AssignedUsers))]

		var recipient *domain.User
		for _, idx := range rand.Perm(len(users)) {
			if users[idx].ID != requester.UserID && shift.FindAssignment(users[idx].ID) == nil {
				recipient = users[idx]
				break
			}
		}
		if recipient == nil {
			continue
		}

		req := &domain.SwapRequest{
			ShiftID:       shift.ID,
			RequesterID:   requester.UserID,
			RequesterName: requester.UserName,
			RecipientID:   recipient.ID,
			RecipientName: recipient.FullName,
			Status:        domain.SwapStatusPending,
			RequestNotes:  "临时有事，想和你换一下这个班",
		}

		if err := r.CreateSwapRequest(req); err != nil {
			slog.Error("插入换班请求失败", "error", err)
			continue
		}
		created++
	}

	slog.Info("换班请求数据生成完成", "count", created)
}

// SeedAll 生成一套可以直接演示的完整数据
func SeedAll(r *repository.Repository, cfg *config.Config, userCount int, shiftCount int) {
	users := SeedUsers(r, cfg, userCount)
	if len(users) == 0 {
		slog.Error("没有生成任何用户，终止")
		return
	}

	shifts := SeedShifts(r, users, shiftCount)
	SeedAbsences(r, users)
	SeedAvailabilities(r, users)
	SeedSwapRequests(r, shifts, users, shiftCount/4+1)

	slog.Info("数据生成完成")
}
