package scheduler

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

// 2025-03-10 是星期一
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func weekHours(t *testing.T) domain.WorkingHours {
	return domain.WorkingHours{
		domain.Monday:   workingDay(t, "09:00", "15:00"),
		domain.Tuesday:  workingDay(t, "10:00", "19:00"),
		domain.Saturday: {IsWorking: false},
	}
}

func TestValidateBooking(t *testing.T) {
	existing := []*domain.Appointment{appointment(t, 7, "10:00", 60)}

	tests := []struct {
		name    string
		booking Booking
		wantErr error
	}{
		{
			name: "accepted",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday,
				Start:        clock(t, "11:00"),
				Duration:     60,
				Existing:     existing,
			},
		},
		{
			name: "not working on saturday",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday.AddDate(0, 0, 5),
				Start:        clock(t, "11:00"),
				Duration:     30,
			},
			wantErr: ErrNotWorkingThisDay,
		},
		{
			name: "no configuration for sunday",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday.AddDate(0, 0, 6),
				Start:        clock(t, "11:00"),
				Duration:     30,
			},
			wantErr: ErrNotWorkingThisDay,
		},
		{
			name: "no working hours at all",
			booking: Booking{
				Date:     monday,
				Start:    clock(t, "11:00"),
				Duration: 30,
			},
			wantErr: ErrNotWorkingThisDay,
		},
		{
			name: "ends after working hours",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday,
				Start:        clock(t, "14:00"),
				Duration:     90,
			},
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name: "starts before working hours",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday.AddDate(0, 0, 1),
				Start:        clock(t, "09:30"),
				Duration:     30,
			},
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name: "overlaps existing appointment",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday,
				Start:        clock(t, "10:30"),
				Duration:     30,
				Existing:     existing,
			},
			wantErr: ErrTimeConflict,
		},
		{
			name: "adjacent to existing appointment",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday,
				Start:        clock(t, "09:00"),
				Duration:     60,
				Existing:     existing,
			},
		},
		{
			name: "cancelled appointments are ignored",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday,
				Start:        clock(t, "10:00"),
				Duration:     60,
				Existing: []*domain.Appointment{
					{ID: 1, StartTime: clock(t, "10:00"), TotalDuration: 60, Status: domain.StatusCancelled},
				},
			},
		},
		{
			name: "rescheduling does not conflict with itself",
			booking: Booking{
				WorkingHours:         weekHours(t),
				Date:                 monday,
				Start:                clock(t, "10:30"),
				Duration:             60,
				Existing:             existing,
				ExcludeAppointmentID: 7,
			},
		},
		{
			name: "outside hours is reported before conflicts",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday,
				Start:        clock(t, "14:30"),
				Duration:     60,
				Existing:     []*domain.Appointment{appointment(t, 2, "14:30", 30)},
			},
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name: "duration overflowing the clock",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday,
				Start:        clock(t, "10:00"),
				Duration:     math.MaxInt - 100,
			},
			wantErr: ErrOutsideWorkingHours,
		},
		{
			name: "non-positive duration",
			booking: Booking{
				WorkingHours: weekHours(t),
				Date:         monday,
				Start:        clock(t, "10:00"),
			},
			wantErr: ErrInvalidDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBooking(tt.booking)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateBookingFailsClosedOnInvalidConfiguration(t *testing.T) {
	err := ValidateBooking(Booking{
		WorkingHoursErr: domain.ErrInvalidWorkingHours,
		Date:            monday,
		Start:           clock(t, "10:00"),
		Duration:        30,
	})

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.ErrorIs(t, err, ErrNotWorkingThisDay)
}

func TestWorkingDayFor(t *testing.T) {
	day, err := WorkingDayFor(weekHours(t), nil, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, workingDay(t, "10:00", "19:00"), day)

	_, err = WorkingDayFor(weekHours(t), errors.New("broken"), monday)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestActiveAppointments(t *testing.T) {
	appointments := []*domain.Appointment{
		{ID: 1, Status: domain.StatusScheduled},
		{ID: 2, Status: domain.StatusCancelled},
		{ID: 3, Status: domain.StatusCompleted},
		{ID: 4, Status: domain.StatusNoShow},
	}

	active := ActiveAppointments(appointments)
	require.Len(t, active, 3)
	for _, a := range active {
		assert.NotEqual(t, domain.StatusCancelled, a.Status)
	}
}

func TestTotals(t *testing.T) {
	services := map[int64]*domain.Service{
		1: {ID: 1, Duration: 45, Price: 20},
		2: {ID: 2, Duration: 30, Price: 10.5},
	}

	duration, price, err := Totals([]int64{1, 2, 1}, services)
	require.NoError(t, err)
	assert.Equal(t, int32(120), duration)
	assert.InDelta(t, 50.5, price, 0.001)

	reversedDuration, reversedPrice, err := Totals([]int64{1, 1, 2}, services)
	require.NoError(t, err)
	assert.Equal(t, duration, reversedDuration)
	assert.InDelta(t, price, reversedPrice, 0.001)

	_, _, err = Totals([]int64{1, 9}, services)
	assert.ErrorIs(t, err, ErrUnknownService)
}
