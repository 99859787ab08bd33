package scheduler

import (
	"slices"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

// busyIntervals 把预约转换为按开始时间升序的区间，开始时间相同的保持原有顺序
func busyIntervals(appointments []*domain.Appointment) []TimeInterval {
	busy := make([]TimeInterval, 0, len(appointments))
	for _, a := range appointments {
		busy = append(busy, TimeInterval{Start: a.StartTime, End: a.EndTime()})
	}
	slices.SortStableFunc(busy, func(a, b TimeInterval) int {
		return int(a.Start - b.Start)
	})
	return busy
}

// alignUp 把 t 对齐到 origin + k*step 上不小于 t 的最近位置
func alignUp(t, origin, step int) int {
	if t <= origin {
		return origin
	}
	offset := t - origin
	return origin + (offset+step-1)/step*step
}
