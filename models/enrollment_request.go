// mentor-academy-crm/models/enrollment_request.go
package models

import "gorm.io/gorm"

// Статусы заявки на зачисление.
const (
	RequestNew       = "NEW"
	RequestContacted = "CONTACTED"
	RequestApproved  = "APPROVED"
	RequestRejected  = "REJECTED"
)

// EnrollmentRequest — публичная заявка на зачисление с сайта.
// После одобрения заявка связывается с созданным профилем ученика.
type EnrollmentRequest struct {
	gorm.Model
	StudentName string `json:"studentName" gorm:"size:128;not null"`
	Phone       string `json:"phone" gorm:"size:32;not null"`
	School      string `json:"school" gorm:"size:128"`
	Grade       string `json:"grade" gorm:"size:16"`
	Subjects    string `json:"subjects" gorm:"size:255"`
	Message     string `json:"message"`
	Status      string `json:"status" gorm:"size:16;index;not null;default:'NEW'"`

	ConvertedStudentID *uint    `json:"convertedStudentId"`
	ConvertedStudent   *Student `json:"convertedStudent,omitempty" gorm:"foreignKey:ConvertedStudentID"`
}
