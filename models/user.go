// mentor-academy-crm/models/user.go
package models

import "gorm.io/gorm"

// Роли пользователей. Матрица прав не нужна: в системе ровно две роли.
const (
	RoleAdmin   = "ADMIN"
	RoleStudent = "STUDENT"
)

// User — учётная запись для входа в систему. Администраторы работают с CRM,
// ученики видят только свой личный кабинет (StudentID указывает на профиль).
type User struct {
	gorm.Model
	Phone     string   `json:"phone" gorm:"uniqueIndex;size:32;not null"`
	PinHash   string   `json:"-" gorm:"size:255;not null"`
	FullName  string   `json:"fullName" gorm:"size:128"`
	Role      string   `json:"role" gorm:"size:16;not null;default:'STUDENT'"`
	StudentID *uint    `json:"studentId"`
	Student   *Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}
