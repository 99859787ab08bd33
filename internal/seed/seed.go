// Package seed 向数据库插入演示用的数据，供 cmd/seed 使用
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/repository"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/utils"
)

var ErrNothingToBook = errors.New("there are no active customers, employees or services to book")

var DefaultServices = []domain.Service{
	{Name: "Καλλωπισμός & Μανικιούρ", Description: "Κλασικός καλλωπισμός και μανικιούρ", Duration: 90, Price: 45},
	{Name: "Βαφή Γαλλικό Μανικιούρ", Description: "Βαφή με γαλλικό στυλ", Duration: 60, Price: 35},
	{Name: "Πεντικιούρ", Description: "Κλασικό πεντικιούρ", Duration: 60, Price: 40},
	{Name: "Ακρυλικά Νύχια", Description: "Επέκταση με ακρυλικό υλικό", Duration: 120, Price: 60},
	{Name: "Gel Νύχια", Description: "Επέκταση με gel υλικό", Duration: 150, Price: 70},
	{Name: "Ημιμόνιμο Μανικιούρ", Description: "Ημιμόνιμη βαφή στα χέρια", Duration: 45, Price: 25},
	{Name: "Ημιμόνιμο Πεντικιούρ", Description: "Ημιμόνιμη βαφή στα πόδια", Duration: 60, Price: 30},
	{Name: "Spa Πεντικιούρ", Description: "Πεντικιούρ με απολέπιση και μάσκα", Duration: 75, Price: 50},
	{Name: "Αφαίρεση Gel", Description: "Αφαίρεση gel ή ακρυλικού", Duration: 30, Price: 15},
	{Name: "Συντήρηση Gel", Description: "Γέμισμα και διόρθωση gel", Duration: 90, Price: 45},
	{Name: "Nail Art", Description: "Σχέδια ανά νύχι", Duration: 30, Price: 20},
	{Name: "Περιποίηση Παλάμης", Description: "Ενυδάτωση και μασάζ χεριών", Duration: 15, Price: 10},
}

type defaultEmployee struct {
	Name     string
	Email    string
	Phone    string
	Start    domain.Clock
	End      domain.Clock
	Services []string // 为空表示提供所有服务
}

var defaultEmployees = []defaultEmployee{
	{
		Name: "Μαρία Κωνσταντίνου", Email: "maria@nailsalon.gr", Phone: "6900000001",
		Start: 9 * 60, End: 18 * 60,
		Services: []string{"Καλλωπισμός & Μανικιούρ", "Βαφή Γαλλικό Μανικιούρ", "Ημιμόνιμο Μανικιούρ", "Nail Art", "Περιποίηση Παλάμης"},
	},
	{
		Name: "Ελένη Δημητρίου", Email: "eleni@nailsalon.gr", Phone: "6900000002",
		Start: 10 * 60, End: 19 * 60,
		Services: []string{"Πεντικιούρ", "Ημιμόνιμο Πεντικιούρ", "Spa Πεντικιούρ"},
	},
	{
		Name: "Σοφία Ιωάννου", Email: "sofia@nailsalon.gr", Phone: "6900000003",
		Start: 8 * 60, End: 17 * 60,
	},
}

// mondayToSaturday 生成周一到周六工作、周日休息的工作时间
func mondayToSaturday(start, end domain.Clock) domain.WorkingHours {
	hours := domain.WorkingHours{domain.Sunday: {Start: start, End: end, IsWorking: false}}
	for _, d := range []domain.Weekday{domain.Monday, domain.Tuesday, domain.Wednesday, domain.Thursday, domain.Friday, domain.Saturday} {
		hours[d] = domain.WorkingDay{Start: start, End: end, IsWorking: true}
	}
	return hours
}

// SeedDefaultServices 在服务表为空时插入默认服务
func SeedDefaultServices(r *repository.Repository) (int, error) {
	existing, err := r.GetAllServices()
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		slog.Info("已经存在服务，跳过", "count", len(existing))
		return 0, nil
	}

	cnt := 0
	for _, s := range DefaultServices {
		service := s
		service.IsActive = true
		if err := r.CreateService(&service); err != nil {
			return cnt, fmt.Errorf("create service %q: %w", service.Name, err)
		}
		cnt++
	}

	return cnt, nil
}

// SeedDefaultEmployees 在员工表为空时插入默认员工，并按名称关联服务
func SeedDefaultEmployees(r *repository.Repository) (int, error) {
	existing, err := r.GetAllEmployees()
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		slog.Info("已经存在员工，跳过", "count", len(existing))
		return 0, nil
	}

	services, err := r.GetAllServices()
	if err != nil {
		return 0, err
	}
	byName := make(map[string]int64, len(services))
	all := make([]int64, 0, len(services))
	for _, s := range services {
		byName[s.Name] = s.ID
		all = append(all, s.ID)
	}

	cnt := 0
	for _, de := range defaultEmployees {
		serviceIDs := all
		if len(de.Services) > 0 {
			serviceIDs = make([]int64, 0, len(de.Services))
			for _, name := range de.Services {
				if id, ok := byName[name]; ok {
					serviceIDs = append(serviceIDs, id)
				} else {
					slog.Warn("默认服务不存在，跳过关联", "employee", de.Name, "service", name)
				}
			}
		}

		e := &domain.Employee{
			Name:         de.Name,
			Email:        de.Email,
			Phone:        de.Phone,
			WorkingHours: mondayToSaturday(de.Start, de.End),
			IsActive:     true,
		}
		if err := r.CreateEmployee(e, serviceIDs); err != nil {
			return cnt, fmt.Errorf("create employee %q: %w", e.Name, err)
		}
		cnt++
	}

	return cnt, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SeedRandomCustomers 插入 n 个随机顾客，电话号码重复的会被跳过
func SeedRandomCustomers(r *repository.Repository, n int) (int, error) {
	cnt := 0
	for i := 0; i < n; i++ {
		c := utils.GenerateRandomCustomer()
		if err := r.CreateCustomer(c); err != nil {
			if isUniqueViolation(err) {
				slog.Warn("电话号码重复，跳过", "phone", c.Phone)
				continue
			}
			return cnt, err
		}
		cnt++
	}
	return cnt, nil
}

// SeedRandomStaffUsers 插入 n 个随机员工账户，用户名重复的会被跳过
func SeedRandomStaffUsers(r *repository.Repository, n int, password, emailDomain string) (int, error) {
	cnt := 0
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomStaffUser(password, emailDomain)
		if err != nil {
			return cnt, err
		}
		if err := r.CreateUser(user); err != nil {
			if isUniqueViolation(err) {
				slog.Warn("用户名重复，跳过", "username", user.Username)
				continue
			}
			return cnt, err
		}
		cnt++
	}
	return cnt, nil
}

// SeedRandomAppointments 在 date 当天尝试插入 n 个随机预约，开始时间从员工的空闲时段中选取
func SeedRandomAppointments(r *repository.Repository, date domain.Day, n int, granularity int) (int, error) {
	customers, err := r.GetAllCustomers()
	if err != nil {
		return 0, err
	}
	employees, err := r.GetActiveEmployees(nil)
	if err != nil {
		return 0, err
	}
	services, err := r.GetActiveServices()
	if err != nil {
		return 0, err
	}
	if len(customers) == 0 || len(employees) == 0 || len(services) == 0 {
		return 0, ErrNothingToBook
	}

	serviceMap := make(map[int64]*domain.Service, len(services))
	for _, s := range services {
		serviceMap[s.ID] = s
	}

	cnt := 0
	for i := 0; i < n; i++ {
		e := employees[rand.Intn(len(employees))]
		c := customers[rand.Intn(len(customers))]

		offered := make([]*domain.Service, 0, len(e.Services))
		for _, s := range e.Services {
			if _, ok := serviceMap[s.ID]; ok {
				offered = append(offered, s)
			}
		}
		if len(offered) == 0 {
			offered = services
		}
		serviceIDs := utils.PickRandomServiceIDs(offered, 2)

		duration, price, err := scheduler.Totals(serviceIDs, serviceMap)
		if err != nil {
			return cnt, err
		}

		day, err := scheduler.WorkingDayFor(e.WorkingHours, e.WorkingHoursErr, date.Time)
		if err != nil {
			slog.Info("员工当天不工作，跳过", "employee", e.Name, "date", date.String())
			continue
		}

		existing, err := r.GetEmployeeAppointmentsOnDate(e.ID, date)
		if err != nil {
			return cnt, err
		}
		slots, err := scheduler.ComputeAvailableSlots(day, scheduler.ActiveAppointments(existing), int(duration), granularity)
		if err != nil {
			return cnt, err
		}
		if len(slots) == 0 {
			slog.Info("员工当天没有空闲时段，跳过", "employee", e.Name, "date", date.String())
			continue
		}
		slot := slots[rand.Intn(len(slots))]

		a := &domain.Appointment{
			CustomerID:    c.ID,
			EmployeeID:    &e.ID,
			Date:          date,
			StartTime:     slot.Start,
			TotalDuration: duration,
			TotalPrice:    price,
			Status:        domain.StatusScheduled,
			Services:      make([]domain.AppointmentService, 0, len(serviceIDs)),
		}
		for _, id := range serviceIDs {
			s := serviceMap[id]
			a.Services = append(a.Services, domain.AppointmentService{ServiceID: s.ID, Name: s.Name, Duration: s.Duration, Price: s.Price})
		}

		if err := r.CreateAppointment(a); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return cnt, err
		}
		cnt++
	}

	return cnt, nil
}
