// mentor-academy-crm/models/batch.go
package models

import "gorm.io/gorm"

// Batch — учебная группа (поток). Ученик состоит максимум в одной группе.
type Batch struct {
	gorm.Model
	Name        string `json:"name" gorm:"uniqueIndex;size:64;not null"`
	Description string `json:"description"`

	// DuesFormula — необязательная формула расчёта месячной задолженности
	// (govaluate, параметры: fee, paid, month). Пустая строка — обычное
	// сравнение paid >= fee.
	DuesFormula string `json:"duesFormula" gorm:"size:255"`

	Students []Student `json:"students,omitempty" gorm:"foreignKey:BatchID"`
}
