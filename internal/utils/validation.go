package utils

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/scheduler"
)

// invalidConfigurationError 保留具体的错误信息，同时满足 errors.Is(err, scheduler.ErrInvalidConfiguration)
type invalidConfigurationError struct {
	err error
}

func (e invalidConfigurationError) Error() string {
	return e.err.Error()
}

func (e invalidConfigurationError) Unwrap() []error {
	return []error{e.err, scheduler.ErrInvalidConfiguration}
}

// ParseWorkingHoursInput 校验请求中的工作时间，任何一天配置有误都会拒绝整个请求
func ParseWorkingHoursInput(raw json.RawMessage) (domain.WorkingHours, error) {
	wh, err := domain.ParseWorkingHours(raw)
	if err != nil {
		return nil, invalidConfigurationError{err: err}
	}
	return wh, nil
}

// CheckServicesExist 返回 ids 中第一个不存在的服务对应的错误
func CheckServicesExist(ids []int64, services map[int64]*domain.Service) error {
	for _, id := range ids {
		if _, ok := services[id]; !ok {
			return fmt.Errorf("%w: %d", scheduler.ErrUnknownService, id)
		}
	}
	return nil
}

// UniqueIDs 去掉重复的 id 并保持原有顺序
func UniqueIDs(ids []int64) []int64 {
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(unique, id) {
			unique = append(unique, id)
		}
	}
	return unique
}
