package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

// 每次写入后整个集合都会被重新发布到对应的频道上
// 这是快照式推送：订阅方拿到的永远是完整集合，而不是增量
const (
	shiftsSnapshotChannel       = "shift_exchange:snapshot:shifts"
	swapRequestsSnapshotChannel = "shift_exchange:snapshot:swap_requests"
	absencesSnapshotChannel     = "shift_exchange:snapshot:absences"
)

// publishSnapshot 推送失败只记录日志：投递语义是 at-least-once 且最终一致，
// 丢失一次推送会被下一次写入后的全量快照覆盖
func (r *Repository) publishSnapshot(channel string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("快照序列化失败", "channel", channel, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Redis.PublishTimeout)*time.Second)
	defer cancel()

	if err := r.rdb.Publish(ctx, channel, body).Err(); err != nil {
		slog.Error("无法推送集合快照", "channel", channel, "error", err)
	}
}

func (r *Repository) publishShiftsSnapshot() {
	shifts, err := r.GetAllShifts()
	if err != nil {
		slog.Error("无法读取班次集合", "error", err)
		return
	}
	r.publishSnapshot(shiftsSnapshotChannel, shifts)
}

func (r *Repository) publishSwapRequestsSnapshot() {
	requests, err := r.ListSwapRequestsForUser(0)
	if err != nil {
		slog.Error("无法读取换班申请集合", "error", err)
		return
	}
	r.publishSnapshot(swapRequestsSnapshotChannel, requests)
}

func (r *Repository) publishAbsencesSnapshot() {
	absences, err := r.ListApprovedAbsences(time.Now())
	if err != nil {
		slog.Error("无法读取缺勤集合", "error", err)
		return
	}
	r.publishSnapshot(absencesSnapshotChannel, absences)
}

// subscribe 订阅一个快照频道，返回幂等的取消函数
func subscribe[T any](r *Repository, channel string, initial []T, callback func(snapshot []T)) func() {
	// 先同步投递一次当前集合，作为订阅方的基线快照
	callback(initial)

	pubsub := r.rdb.Subscribe(context.Background(), channel)
	go func() {
		for msg := range pubsub.Channel() {
			var snapshot []T
			if err := json.Unmarshal([]byte(msg.Payload), &snapshot); err != nil {
				slog.Error("快照反序列化失败", "channel", channel, "error", err)
				continue
			}
			callback(snapshot)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = pubsub.Close()
		})
	}
}

func (r *Repository) SubscribeShifts(callback func(snapshot []*domain.Shift)) (func(), error) {
	current, err := r.GetAllShifts()
	if err != nil {
		return nil, err
	}
	return subscribe(r, shiftsSnapshotChannel, current, callback), nil
}

// SubscribeSwapRequests 订阅换班申请集合
// userID 不为 0 时只把与该用户相关的子集投递给回调
func (r *Repository) SubscribeSwapRequests(userID int64, callback func(snapshot []*domain.SwapRequest)) (func(), error) {
	// 频道上的快照永远是全量的，按用户的过滤在投递前完成
	current, err := r.ListSwapRequestsForUser(0)
	if err != nil {
		return nil, err
	}

	filtered := callback
	if userID != 0 {
		filtered = func(snapshot []*domain.SwapRequest) {
			mine := []*domain.SwapRequest{}
			for _, req := range snapshot {
				if req.RequesterID == userID || req.RecipientID == userID {
					mine = append(mine, req)
				}
			}
			callback(mine)
		}
	}

	return subscribe(r, swapRequestsSnapshotChannel, current, filtered), nil
}

func (r *Repository) SubscribeApprovedAbsences(callback func(snapshot []*domain.Absence)) (func(), error) {
	current, err := r.ListApprovedAbsences(time.Now())
	if err != nil {
		return nil, err
	}
	return subscribe(r, absencesSnapshotChannel, current, callback), nil
}
