package domain

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Credentials are posted to a role's login endpoint. OTP is only checked by
// back-office roles.
type Credentials struct {
	Email    string `json:"email"         validate:"required,email"`
	Password string `json:"password"      validate:"required,min=6,max=128"`
	OTP      string `json:"otp,omitempty" validate:"omitempty,len=6,numeric"`
}
