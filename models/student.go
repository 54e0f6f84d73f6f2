// mentor-academy-crm/models/student.go

package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы обучения ученика.
const (
	StudentActive    = "ACTIVE"
	StudentPaused    = "PAUSED"
	StudentGraduated = "GRADUATED"
	StudentDropped   = "DROPPED"
)

// Student represents the student model in the database.
type Student struct {
	gorm.Model
	RegistrationNo string `json:"registrationNo" gorm:"uniqueIndex;size:32;not null"`
	FullName       string `json:"fullName" gorm:"size:128;not null"`
	Phone          string `json:"phone" gorm:"size:32"`
	GuardianPhone  string `json:"guardianPhone" gorm:"size:32"`
	Grade          string `json:"grade" gorm:"size:16"`
	School         string `json:"school" gorm:"size:128"`
	PhotoURL       string `json:"photoUrl"`
	Status         string `json:"status" gorm:"size:16;index;not null;default:'ACTIVE'"`

	// MonthlyFee — абонентская плата в целых така; nil, если плата не назначена
	// (для таких учеников статус задолженности не считается).
	MonthlyFee *int       `json:"monthlyFee"`
	AdmittedAt *time.Time `json:"admittedAt"`
	BatchID    *uint      `json:"batchId" gorm:"index"`

	// --- GORM RELATIONSHIPS ---
	Batch    *Batch            `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
	Scores   []AssessmentScore `json:"scores,omitempty" gorm:"foreignKey:StudentID"`
	Payments []Payment         `json:"payments,omitempty" gorm:"foreignKey:StudentID"`
}
