package roster

import (
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

// applySwap 在班次的指派列表上执行换班，返回修改后的班次和产生的指派变更事件
// 两种情形：
//  1. 接收方已在班次上：双方的指派互换 userID/userName（位置不变），状态均置为 accepted
//  2. 接收方不在班次上：移除申请方的指派，为接收方新增一条 accepted 的指派，
//     并在备注中记录来源
//
// 调用方必须保证整个替换过程对读者原子可见
func applySwap(shift *domain.Shift, requesterID int64, recipientID int64, recipientName string) (*domain.Shift, []domain.AssignmentChangedData, error) {
	requester := shift.FindAssignment(requesterID)
	if requester == nil {
		// 申请创建之后申请方又被移出了班次，申请已经过期
		return nil, nil, domain.ErrNotAssigned
	}

	next := shift.Clone()
	var events []domain.AssignmentChangedData

	if recipient := next.FindAssignment(recipientID); recipient != nil {
		// 互换：批准即视为双方确认
		source := next.FindAssignment(requesterID)
		requesterName := source.UserName
		oldRequesterStatus := source.Status
		oldRecipientStatus := recipient.Status

		source.UserID, recipient.UserID = recipient.UserID, source.UserID
		source.UserName, recipient.UserName = recipient.UserName, source.UserName
		source.Status = domain.AssignmentStatusAccepted
		recipient.Status = domain.AssignmentStatusAccepted

		events = append(events,
			assignmentChanged(next, requesterID, requesterName, oldRequesterStatus, domain.AssignmentStatusAccepted),
			assignmentChanged(next, recipientID, recipientName, oldRecipientStatus, domain.AssignmentStatusAccepted),
		)
		return next, events, nil
	}

	// 转让：申请方退出，接收方以 accepted 状态接手
	oldStatus := requester.Status
	requesterName := requester.UserName
	next.AssignedUsers = slices.DeleteFunc(next.AssignedUsers, func(a domain.Assignment) bool {
		return a.UserID == requesterID
	})
	next.AssignedUsers = append(next.AssignedUsers, domain.Assignment{
		UserID:   recipientID,
		UserName: recipientName,
		Status:   domain.AssignmentStatusAccepted,
		Notes:    fmt.Sprintf("由 %s 转让", requesterName),
	})

	events = append(events,
		assignmentChanged(next, requesterID, requesterName, oldStatus, ""),
		assignmentChanged(next, recipientID, recipientName, "", domain.AssignmentStatusAccepted),
	)
	return next, events, nil
}
