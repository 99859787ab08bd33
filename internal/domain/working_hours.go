package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidWorkingHours = errors.New("invalid working hours configuration")

// Clock 表示一天中的某个时刻，单位为距离零点的分钟数
type Clock int

var errInvalidClock = errors.New("invalid time of day")

// ParseClock 只接受 "HH:MM"
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w %q", errInvalidClock, s)
	}
	return parseHoursMinutes(s, hh, mm)
}

// ParseTimeColumn 解析数据库 TIME 类型返回的 "HH:MM:SS"，秒数会被舍去
func ParseTimeColumn(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
	case 3:
		if seconds, ok := twoDigits(parts[2]); !ok || seconds > 59 {
			return 0, fmt.Errorf("%w %q", errInvalidClock, s)
		}
	default:
		return 0, fmt.Errorf("%w %q", errInvalidClock, s)
	}
	return parseHoursMinutes(s, parts[0], parts[1])
}

func parseHoursMinutes(s, hh, mm string) (Clock, error) {
	hours, ok := twoDigits(hh)
	if !ok || hours > 23 {
		return 0, fmt.Errorf("%w %q", errInvalidClock, s)
	}
	minutes, ok := twoDigits(mm)
	if !ok || minutes > 59 {
		return 0, fmt.Errorf("%w %q", errInvalidClock, s)
	}

	return Clock(hours*60 + minutes), nil
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func (c Clock) Hours() int {
	return int(c) / 60
}

func (c Clock) Minutes() int {
	return int(c) % 60
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hours(), c.Minutes())
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// 下标与 time.Weekday 一致
var weekdays = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf 直接根据日期的星期下标得到名称，不依赖任何 locale
func WeekdayOf(t time.Time) Weekday {
	return weekdays[t.Weekday()]
}

func (w Weekday) Valid() bool {
	for _, d := range weekdays {
		if d == w {
			return true
		}
	}
	return false
}

type WorkingDay struct {
	Start     Clock `json:"start"`
	End       Clock `json:"end"`
	IsWorking bool  `json:"isWorking"`
}

type WorkingHours map[Weekday]WorkingDay

func (wh WorkingHours) Day(d Weekday) (WorkingDay, bool) {
	day, ok := wh[d]
	return day, ok
}

func (wh WorkingHours) Validate() error {
	for name, day := range wh {
		if !name.Valid() {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidWorkingHours, name)
		}
		if day.IsWorking && day.Start > day.End {
			return fmt.Errorf("%w: %s starts after it ends", ErrInvalidWorkingHours, name)
		}
	}
	return nil
}

// ParseWorkingHours 将数据库中的 JSON 解析为强类型的工作时间，空值表示尚未配置
func ParseWorkingHours(raw []byte) (WorkingHours, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var days map[Weekday]*struct {
		Start     *Clock `json:"start"`
		End       *Clock `json:"end"`
		IsWorking *bool  `json:"isWorking"`
	}
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
	}

	wh := make(WorkingHours, len(days))
	for name, day := range days {
		if day == nil || day.IsWorking == nil {
			return nil, fmt.Errorf("%w: %s is missing isWorking", ErrInvalidWorkingHours, name)
		}
		if *day.IsWorking && (day.Start == nil || day.End == nil) {
			return nil, fmt.Errorf("%w: %s is missing start or end", ErrInvalidWorkingHours, name)
		}

		wd := WorkingDay{IsWorking: *day.IsWorking}
		if day.Start != nil {
			wd.Start = *day.Start
		}
		if day.End != nil {
			wd.End = *day.End
		}
		wh[name] = wd
	}

	if err := wh.Validate(); err != nil {
		return nil, err
	}

	return wh, nil
}
