package domain

const (
	MailTypeCreateUser              = "create_user"
	MailTypeAppointmentConfirmation = "appointment_confirmation"
	MailTypeAppointmentCancelled    = "appointment_cancelled"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type AppointmentMailData struct {
	CustomerName  string   `json:"customerName"`
	EmployeeName  string   `json:"employeeName"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	Services      []string `json:"services"`
	TotalDuration int32    `json:"totalDuration"`
	TotalPrice    float64  `json:"totalPrice"`
}
