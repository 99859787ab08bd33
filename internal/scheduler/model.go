package scheduler

import "github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"

// 默认每隔 30 分钟产生一个候选开始时间
const DefaultGranularity = 30

// TimeInterval 是半开区间 [Start, End)，既用于表示已有预约也用于表示空闲时段
type TimeInterval struct {
	Start domain.Clock `json:"start"`
	End   domain.Clock `json:"end"`
}

// Overlaps 使用半开区间判断，首尾相接不算冲突
func (t TimeInterval) Overlaps(o TimeInterval) bool {
	return t.Start < o.End && o.Start < t.End
}

func (t TimeInterval) Duration() int {
	return int(t.End - t.Start)
}
