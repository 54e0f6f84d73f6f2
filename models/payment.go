// mentor-academy-crm/models/payment.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Категории платежей.
const (
	PaymentAdmission = "ADMISSION"
	PaymentMonthly   = "MONTHLY"
	PaymentModelTest = "MODEL_TEST"
	PaymentOther     = "OTHER"
)

// ValidPaymentCategory проверяет, что категория входит в фиксированный набор.
func ValidPaymentCategory(category string) bool {
	switch category {
	case PaymentAdmission, PaymentMonthly, PaymentModelTest, PaymentOther:
		return true
	}
	return false
}

// Payment — один фактический платёж ученика.
//
// AppliesToMonth — расчётный месяц (первое число), за который платёж засчитан;
// он не обязан совпадать с датой оплаты PaidAt. ReceiptNo выдаётся генератором
// квитанций в той же транзакции, что и вставка платежа; nil допустим только для
// старых записей, заведённых до появления квитанций. Удаление платежа номер
// квитанции не освобождает — номера никогда не переиспользуются.
type Payment struct {
	gorm.Model
	PublicID        string     `json:"publicId" gorm:"uniqueIndex;size:36;not null"`
	StudentID       uint       `json:"studentId" gorm:"not null;index"`
	Student         *Student   `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Amount          int        `json:"amount" gorm:"not null"`
	Category        string     `json:"category" gorm:"size:16;not null"`
	AppliesToMonth  time.Time  `json:"appliesToMonth" gorm:"not null;index"`
	PaidAt          time.Time  `json:"paidAt" gorm:"not null"`
	ReceiptNo       *string    `json:"receiptNo" gorm:"uniqueIndex;size:20"`
	ReceiptIssuedAt *time.Time `json:"receiptIssuedAt"`
	Note            string     `json:"note" gorm:"size:255"`
	CreatedByUserID uint       `json:"createdByUserId" gorm:"not null"`
	CreatedByUser   *User      `json:"createdByUser,omitempty" gorm:"foreignKey:CreatedByUserID"`
}
