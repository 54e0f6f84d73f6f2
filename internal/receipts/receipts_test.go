package receipts

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mentor-academy-crm/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB поднимает изолированную in-memory базу для одного теста.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ReceiptCounter{}))
	return db
}

// newFileTestDB поднимает базу в файле: в отличие от in-memory она корректно
// разводит конкурирующие транзакции из нескольких соединений.
func newFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "counters.db") + "?_busy_timeout=10000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ReceiptCounter{}))
	return db
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// issueCommitted выдаёт номер в собственной транзакции и коммитит её.
func issueCommitted(t *testing.T, db *gorm.DB, m time.Time) Receipt {
	t.Helper()
	tx := db.Begin()
	require.NoError(t, tx.Error)
	r, err := Issue(tx, m)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)
	return r
}

func counterValue(t *testing.T, db *gorm.DB, key string) (int, bool) {
	t.Helper()
	var c models.ReceiptCounter
	err := db.Take(&c, "month_key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return 0, false
	}
	require.NoError(t, err)
	return c.LastNumber, true
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "MA-202601-0007", Format(month(2026, time.January), 7))
	assert.Equal(t, "MA-202512-0001", Format(month(2025, time.December), 1))
	assert.Equal(t, "MA-202610-1234", Format(month(2026, time.October), 1234))
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2026-01")
	require.NoError(t, err)
	assert.Equal(t, month(2026, time.January), m)

	for _, bad := range []string{"", "2026", "2026-13", "2026-00", "202601", "2026-1"} {
		_, err := ParseMonth(bad)
		assert.Error(t, err, "ожидалась ошибка для %q", bad)
	}
}

func TestIssueFirstOfMonth(t *testing.T) {
	db := newTestDB(t)

	r := issueCommitted(t, db, month(2026, time.January))
	assert.Equal(t, "MA-202601-0001", r.No)
	assert.Equal(t, 1, r.Seq)
	assert.False(t, r.IssuedAt.IsZero())

	n, ok := counterValue(t, db, "2026-01")
	require.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestIssueSecondOfMonth(t *testing.T) {
	db := newTestDB(t)

	issueCommitted(t, db, month(2026, time.January))
	r := issueCommitted(t, db, month(2026, time.January))
	assert.Equal(t, "MA-202601-0002", r.No)
}

func TestIssueSequenceIsDense(t *testing.T) {
	db := newTestDB(t)

	const n = 7
	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		r := issueCommitted(t, db, month(2026, time.March))
		assert.False(t, seen[r.Seq], "номер %d выдан дважды", r.Seq)
		seen[r.Seq] = true
	}
	// Ровно {1..n}, без дыр и повторов.
	for i := 1; i <= n; i++ {
		assert.True(t, seen[i], "пропущен номер %d", i)
	}
}

func TestMonthsAreIndependent(t *testing.T) {
	db := newTestDB(t)

	issueCommitted(t, db, month(2026, time.January))
	issueCommitted(t, db, month(2026, time.January))
	r := issueCommitted(t, db, month(2026, time.February))
	assert.Equal(t, "MA-202602-0001", r.No)

	jan, ok := counterValue(t, db, "2026-01")
	require.True(t, ok)
	assert.Equal(t, 2, jan)
}

func TestRollbackRestoresCounter(t *testing.T) {
	db := newTestDB(t)

	issueCommitted(t, db, month(2026, time.May))

	// Транзакция получает номер 2 и откатывается целиком.
	tx := db.Begin()
	require.NoError(t, tx.Error)
	r, err := Issue(tx, month(2026, time.May))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Seq)
	require.NoError(t, tx.Rollback().Error)

	n, ok := counterValue(t, db, "2026-05")
	require.True(t, ok)
	assert.Equal(t, 1, n, "откат обязан вернуть счётчик к прежнему значению")

	// Следующая успешная выдача берёт тот же номер 2, а не пропускает его.
	again := issueCommitted(t, db, month(2026, time.May))
	assert.Equal(t, "MA-202605-0002", again.No)
}

// TestIssueAfterRowCreatedElsewhere моделирует проигравшего гонку первой
// выдачи месяца: строку счётчика уже закоммитила другая сессия, и выдача
// обязана молча продолжить нумерацию, а не вернуть конфликт уникальности.
func TestIssueAfterRowCreatedElsewhere(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.ReceiptCounter{MonthKey: "2026-07", LastNumber: 1}).Error)

	r := issueCommitted(t, db, month(2026, time.July))
	assert.Equal(t, "MA-202607-0002", r.No)

	n, ok := counterValue(t, db, "2026-07")
	require.True(t, ok)
	assert.Equal(t, 2, n)
}

// TestIssueConcurrent: N одновременных выдач за один месяц дают ровно
// множество номеров {1..N}, без дыр и повторов.
func TestIssueConcurrent(t *testing.T) {
	db := newFileTestDB(t)

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seqs = make(map[int]bool)
	)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx := db.Begin()
			if tx.Error != nil {
				errs <- tx.Error
				return
			}
			r, err := Issue(tx, month(2026, time.September))
			if err != nil {
				tx.Rollback()
				errs <- err
				return
			}
			if err := tx.Commit().Error; err != nil {
				errs <- err
				return
			}
			mu.Lock()
			seqs[r.Seq] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seqs[i], "пропущен номер %d", i)
	}
	assert.Len(t, seqs, n)

	final, ok := counterValue(t, db, "2026-09")
	require.True(t, ok)
	assert.Equal(t, n, final)
}

func TestIssueCounterUnavailable(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.ReceiptCounter{}))

	tx := db.Begin()
	require.NoError(t, tx.Error)
	defer tx.Rollback()

	_, err := Issue(tx, month(2026, time.August))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCounterUnavailable))
}

func TestRollbackOfFirstIssuance(t *testing.T) {
	db := newTestDB(t)

	tx := db.Begin()
	require.NoError(t, tx.Error)
	_, err := Issue(tx, month(2026, time.June))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback().Error)

	_, ok := counterValue(t, db, "2026-06")
	assert.False(t, ok, "строка счётчика не должна пережить откат создавшей её транзакции")

	r := issueCommitted(t, db, month(2026, time.June))
	assert.Equal(t, "MA-202606-0001", r.No)
}
