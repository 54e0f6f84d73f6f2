// mentor-academy-crm/internal/receipts/receipts.go

// Пакет receipts выдаёт номера квитанций вида MA-YYYYMM-0001.
// Нумерация ведётся помесячно через таблицу receipt_counters: на каждый
// расчётный месяц — своя строка с последним выданным номером. Выдача всегда
// выполняется внутри транзакции вызывающего кода, поэтому при откате вставки
// платежа откатывается и инкремент счётчика.
package receipts

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"mentor-academy-crm/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCounterUnavailable возвращается, когда хранилище не смогло выполнить
// атомарный инкремент счётчика. Платёж в этом случае не создаётся.
var ErrCounterUnavailable = errors.New("receipts: счётчик квитанций недоступен")

// Receipt — результат выдачи номера.
type Receipt struct {
	No       string
	Seq      int
	IssuedAt time.Time
}

// MonthKey возвращает ключ счётчика для месяца, формат YYYY-MM.
func MonthKey(month time.Time) string {
	return fmt.Sprintf("%04d-%02d", month.Year(), int(month.Month()))
}

// Format собирает номер квитанции из месяца и порядкового номера:
// год 2026, месяц 1, номер 7 -> MA-202601-0007.
func Format(month time.Time, seq int) string {
	return fmt.Sprintf("MA-%04d%02d-%04d", month.Year(), int(month.Month()), seq)
}

var monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ParseMonth разбирает строку YYYY-MM в первое число месяца (UTC).
// time.Parse прощает однозначный месяц, поэтому формат проверяется жёстко.
func ParseMonth(s string) (time.Time, error) {
	if !monthRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("receipts: неверный формат месяца %q, ожидается YYYY-MM", s)
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("receipts: неверный месяц %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// Issue атомарно получает следующий номер за месяц month и форматирует его.
// tx обязан быть открытой транзакцией: блокировка строки счётчика держится
// до её коммита, и до этого момента параллельные выдачи за тот же месяц ждут.
// Разные месяцы друг с другом не конкурируют.
//
// «Создать, иначе инкрементировать» выполняется одним UPSERT-ом хранилища
// (INSERT ... ON CONFLICT DO UPDATE). Гонку первой выдачи месяца разрешает
// сама база: проигравший ждёт на блокировке строки и после коммита победителя
// выполняет инкремент. Отдельной обработки конфликта уникальности в коде нет
// намеренно — на Postgres провалившийся INSERT переводит всю транзакцию в
// аборт, и никакой повтор внутри неё уже не сработал бы.
func Issue(tx *gorm.DB, month time.Time) (Receipt, error) {
	key := MonthKey(month)

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "month_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_number": gorm.Expr("receipt_counters.last_number + 1"),
			"updated_at":  time.Now(),
		}),
	}).Create(&models.ReceiptCounter{MonthKey: key, LastNumber: 1}).Error
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}

	// Значение читаем следом в той же транзакции: UPSERT держит блокировку
	// строки, до коммита его никто не изменит.
	var counter models.ReceiptCounter
	if err := tx.Take(&counter, "month_key = ?", key).Error; err != nil {
		return Receipt{}, err
	}

	return Receipt{
		No:       Format(month, counter.LastNumber),
		Seq:      counter.LastNumber,
		IssuedAt: time.Now(),
	}, nil
}
