package domain

import "time"

// Service 是沙龙提供的一项服务，Duration 以分钟为单位
type Service struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Duration    int32     `json:"duration"`
	Price       float64   `json:"price"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}
