// mentor-academy-crm/models/receipt_counter.go
package models

import "time"

// ReceiptCounter хранит последний выданный порядковый номер квитанции за
// календарный месяц. Строка создаётся лениво при первом платеже месяца,
// никогда не удаляется и меняется только атомарным инкрементом внутри
// транзакции выдачи квитанции.
type ReceiptCounter struct {
	MonthKey   string    `json:"monthKey" gorm:"primaryKey;size:7"` // YYYY-MM
	LastNumber int       `json:"lastNumber" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (ReceiptCounter) TableName() string { return "receipt_counters" }
