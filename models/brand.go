package models

type Brand struct {
	ID          Int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type NewBrand struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (input *NewBrand) Validate() error {
	return validateInput(input)
}
