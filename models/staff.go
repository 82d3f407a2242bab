package models

// User is the authenticated account returned by POST /auth.
type User struct {
	ID    Int      `json:"id"`
	Name  string   `json:"name"`
	Phone string   `json:"phone"`
	Role  UserRole `json:"role"`
}

// Permissions holds one 0/1 flag per console module, as sent by POST /auth.
type Permissions struct {
	ID        Int  `json:"id,omitempty"`
	UserId    Int  `json:"user_id,omitempty"`
	Dashboard Flag `json:"dashboard"`
	Bills     Flag `json:"bills"`
	Brand     Flag `json:"brand"`
	Product   Flag `json:"product"`
	Customer  Flag `json:"customer"`
	Checkin   Flag `json:"checkin"`
	AuditLogs Flag `json:"auditlogs"`
	Reports   Flag `json:"reports"`
}

// StaffMember is a row of GET /users. The list endpoint inlines the flags as
// strings; the single fetch sends numbers. Int accepts both.
type StaffMember struct {
	ID        Int      `json:"id"`
	UserId    Int      `json:"user_id"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Role      UserRole `json:"role"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Dashboard Int      `json:"dashboard"`
	Bills     Int      `json:"bills"`
	Brand     Int      `json:"brand"`
	Product   Int      `json:"product"`
	Customer  Int      `json:"customer"`
	Checkin   Int      `json:"checkin"`
	AuditLogs Int      `json:"auditlogs"`
	Reports   Int      `json:"reports"`
}

func (s StaffMember) Permissions() Permissions {
	return Permissions{
		UserId:    s.UserId,
		Dashboard: Flag(s.Dashboard),
		Bills:     Flag(s.Bills),
		Brand:     Flag(s.Brand),
		Product:   Flag(s.Product),
		Customer:  Flag(s.Customer),
		Checkin:   Flag(s.Checkin),
		AuditLogs: Flag(s.AuditLogs),
		Reports:   Flag(s.Reports),
	}
}

type NewStaff struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Phone       string      `json:"phone" validate:"required,phone"`
	Password    string      `json:"password" validate:"required,min=6"`
	Role        UserRole    `json:"role" validate:"required,oneof=admin user"`
	Permissions Permissions `json:"permissions"`
}

func (input *NewStaff) Validate() error {
	if err := validateInput(input); err != nil {
		return err
	}
	return input.Permissions.validateFlags()
}

// RequestBody is sent as-is: every flag, zero or not.
func (input *NewStaff) RequestBody() map[string]any {
	return map[string]any{
		"name":        input.Name,
		"phone":       input.Phone,
		"password":    input.Password,
		"role":        input.Role,
		"permissions": input.Permissions.Flags(),
	}
}

type UpdateStaff struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Phone       string      `json:"phone" validate:"required,phone"`
	Role        UserRole    `json:"role" validate:"required,oneof=admin user"`
	Permissions Permissions `json:"permissions"`
}

func (input *UpdateStaff) Validate() error {
	if err := validateInput(input); err != nil {
		return err
	}
	return input.Permissions.validateFlags()
}

// RequestBody keeps only the flags set to 1. A flag cannot be revoked by
// sending 0 here; the backend treats an absent key as off.
func (input *UpdateStaff) RequestBody() map[string]any {
	granted := map[string]int{}
	for key, v := range input.Permissions.Flags() {
		if v == 1 {
			granted[key] = v
		}
	}
	return map[string]any{
		"name":        input.Name,
		"phone":       input.Phone,
		"role":        input.Role,
		"permissions": granted,
	}
}

// Flags maps each capability key to its raw flag value.
func (p Permissions) Flags() map[string]int {
	out := make(map[string]int, len(AllCapabilities))
	for _, c := range AllCapabilities {
		out[string(c)] = int(p.flag(c))
	}
	return out
}

func (p Permissions) validateFlags() error {
	for _, c := range AllCapabilities {
		if v := p.flag(c); v != 0 && v != 1 {
			return &ValidationError{Message: "invalid permissions", Fields: map[string]string{string(c): "must be 0 or 1"}}
		}
	}
	return nil
}
