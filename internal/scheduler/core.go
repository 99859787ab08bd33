package scheduler

import (
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

// ComputeAvailableSlots 计算某员工某天内可以容纳 duration 分钟服务的所有时段。
// existing 必须已经去掉了取消的预约。
func ComputeAvailableSlots(day domain.WorkingDay, existing []*domain.Appointment, duration, granularity int) ([]TimeInterval, error) {
	if duration <= 0 || granularity <= 0 {
		return nil, ErrInvalidDuration
	}

	slots := make([]TimeInterval, 0)
	if !day.IsWorking {
		return slots, nil
	}

	workStart, workEnd := int(day.Start), int(day.End)
	if duration > workEnd-workStart {
		return slots, nil
	}
	current := workStart

	// 在 limit 之前尽可能多地放入时段
	fill := func(limit int) {
		limit = min(limit, workEnd)
		for current <= limit-duration {
			slots = append(slots, TimeInterval{
				Start: domain.Clock(current),
				End:   domain.Clock(current + duration),
			})
			current += granularity
		}
	}

	for _, busy := range busyIntervals(existing) {
		fill(int(busy.Start))
		if int(busy.End) > current {
			current = alignUp(int(busy.End), workStart, granularity)
		}
	}
	fill(workEnd)

	return slots, nil
}

// HasConflict 判断 [start, start+duration) 是否与任何已有预约重叠
func HasConflict(start domain.Clock, duration int, existing []*domain.Appointment) bool {
	proposed := TimeInterval{Start: start, End: start + domain.Clock(duration)}
	for _, a := range existing {
		if proposed.Overlaps(TimeInterval{Start: a.StartTime, End: a.EndTime()}) {
			return true
		}
	}
	return false
}

func IsWithinWorkingHours(start domain.Clock, duration int, day domain.WorkingDay) bool {
	return day.IsWorking && start >= day.Start && start <= day.End && duration <= int(day.End-start)
}
