package models

// Car is an authoritative catalog entry.
type Car struct {
	BaseModel

	Brand string `gorm:"size:80;not null;index" json:"brand"`
	Model string `gorm:"size:80;not null" json:"model"`
	Year  int    `gorm:"not null" json:"year"`
	Color string `gorm:"size:40;not null" json:"color"`
}

func (Car) TableName() string { return "cars" }

// CarModel maps a brand to one of its model names.
type CarModel struct {
	BaseModel

	Brand string `gorm:"size:80;not null;uniqueIndex:idx_car_models_brand_model" json:"brand"`
	Model string `gorm:"size:80;not null;uniqueIndex:idx_car_models_brand_model" json:"model"`
}

func (CarModel) TableName() string { return "car_models" }

// Part is a reference part type shown in listing forms.
type Part struct {
	BaseModel

	Name        string  `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Category    *string `gorm:"size:80" json:"category"`
	Description *string `gorm:"type:text" json:"description"`
}

func (Part) TableName() string { return "parts" }

// PendingCar is a catalog submission awaiting admin moderation.
type PendingCar struct {
	BaseModel

	Brand            string  `gorm:"size:80;not null" json:"brand"`
	Model            string  `gorm:"size:80;not null" json:"model"`
	Year             int     `gorm:"not null" json:"year"`
	Color            string  `gorm:"size:40;not null" json:"color"`
	RequestedByEmail *string `gorm:"size:255" json:"requested_by_email"`
}

func (PendingCar) TableName() string { return "pending_cars" }
