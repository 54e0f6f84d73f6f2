// mentor-academy-crm/models/assessment.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Assessment — контрольная работа или модельный тест, привязанный к группе.
type Assessment struct {
	gorm.Model
	BatchID  uint      `json:"batchId" gorm:"not null;index"`
	Batch    *Batch    `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
	Title    string    `json:"title" gorm:"size:128;not null"`
	Subject  string    `json:"subject" gorm:"size:64;not null"`
	Date     time.Time `json:"date" gorm:"not null;index"`
	MaxMarks int       `json:"maxMarks" gorm:"not null"`

	Scores []AssessmentScore `json:"scores,omitempty" gorm:"foreignKey:AssessmentID"`
}

// AssessmentScore — балл ученика за конкретную работу.
// Score == nil означает «не выставлен» (например, ученик отсутствовал).
type AssessmentScore struct {
	gorm.Model
	AssessmentID uint        `json:"assessmentId" gorm:"not null;uniqueIndex:idx_assessment_student"`
	Assessment   *Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	StudentID    uint        `json:"studentId" gorm:"not null;uniqueIndex:idx_assessment_student"`
	Student      *Student    `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Score        *int        `json:"score"`
	Remarks      string      `json:"remarks" gorm:"size:255"`
}
