package handler

type ContextKey string

var (
	RequestIDCtxKey ContextKey = "requestID"
	RoleCtxKey      ContextKey = "role"
	SubCtxKey       ContextKey = "sub"
	MyInfoCtx       ContextKey = "myInfo"
	UserInfoCtx     ContextKey = "userInfo"
	CustomerCtx     ContextKey = "customer"
	ServiceCtx      ContextKey = "service"
	EmployeeCtx     ContextKey = "employee"
	AppointmentCtx  ContextKey = "appointment"
)
