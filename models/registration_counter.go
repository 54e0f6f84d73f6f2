// mentor-academy-crm/models/registration_counter.go
package models

import "time"

// RegistrationCounter хранит последний выданный порядковый номер
// регистрации за календарный год. Работает так же, как счётчик квитанций:
// строка создаётся лениво и меняется только атомарным инкрементом внутри
// транзакции одобрения заявки.
type RegistrationCounter struct {
	Year       int       `json:"year" gorm:"primaryKey"`
	LastNumber int       `json:"lastNumber" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (RegistrationCounter) TableName() string { return "registration_counters" }
