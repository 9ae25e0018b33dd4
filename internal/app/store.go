package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ==========================================
// ХРАНИЛИЩЕ
// ==========================================

// Store — единая точка доступа к базе. Каждый метод = одна единица
// работы: прочитал или прочитал-изменил-записал, вернул результат.
// Версионирования записей нет, параллельные правки одной сущности
// перезаписывают друг друга (last-writer-wins).
type Store struct {
	DB       *gorm.DB
	FilePath string
}

func NewStore(file string) *Store {
	s := &Store{FilePath: file}
	s.Connect()
	return s
}

func (s *Store) Connect() {
	if err := os.MkdirAll(filepath.Dir(s.FilePath), 0755); err != nil {
		log.Fatalf("❌ Ошибка создания директории БД: %v", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)", s.FilePath)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatalf("❌ Ошибка БД: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(2 * time.Hour)

	s.DB = db
	log.Println("🔌 БД подключена (WAL).")

	if err := s.runMigrations(); err != nil {
		log.Fatalf("❌ Ошибка миграций: %v", err)
	}

	// AutoMigrate добирает новые колонки, добавленные после
	// последней нумерованной миграции.
	if err := db.AutoMigrate(&User{}, &InviteLink{}, &Creative{}, &BotStats{}, &MigrationHistory{}); err != nil {
		log.Printf("⚠️ Ошибка AutoMigrate: %v", err)
	}
}

func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Vacuum() error {
	return s.DB.Exec("VACUUM").Error
}

// ==========================================
// ПОЛЬЗОВАТЕЛИ
// ==========================================

// AddUser создает пользователя при первом контакте либо обновляет
// видимые поля существующего.
func (s *Store) AddUser(userID int64, username, firstName, lastName string) (*User, error) {
	existing, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Username = username
		existing.FirstName = firstName
		existing.LastName = lastName
		existing.IsActive = true
		if err := s.DB.Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}
	u := &User{
		ID:        userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      RoleEmployee,
		IsActive:  true,
	}
	if err := s.DB.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// AddUserWithInvite регистрирует пользователя по пригласительной ссылке
// (либо перепрошивает существующего: роль, ФИО, пригласивший).
func (s *Store) AddUserWithInvite(userID int64, username, firstName, lastName, fullName, role string, invitedBy *int64) (*User, error) {
	existing, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Username = username
		existing.FirstName = firstName
		existing.LastName = lastName
		existing.FullName = fullName
		existing.Role = role
		existing.InvitedBy = invitedBy
		existing.IsActive = true
		existing.IsBlocked = false
		if err := s.DB.Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}
	u := &User{
		ID:        userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		FullName:  fullName,
		Role:      role,
		InvitedBy: invitedBy,
		IsActive:  true,
		IsBlocked: false,
	}
	if err := s.DB.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) GetUser(userID int64) (*User, error) {
	var u User
	err := s.DB.First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetAllUsers() ([]User, error) {
	var users []User
	err := s.DB.Order("created_at desc").Find(&users).Error
	return users, err
}

func (s *Store) GetActiveUsers() ([]User, error) {
	var users []User
	err := s.DB.Where("is_active = ?", true).Find(&users).Error
	return users, err
}

func (s *Store) UsersCount() (int64, error) {
	var n int64
	err := s.DB.Model(&User{}).Count(&n).Error
	return n, err
}

func (s *Store) ActiveUsersCount() (int64, error) {
	var n int64
	err := s.DB.Model(&User{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (s *Store) GetEmployees() ([]User, error) {
	var users []User
	err := s.DB.Where("role = ?", RoleEmployee).Order("created_at desc").Find(&users).Error
	return users, err
}

func (s *Store) GetAdmins() ([]User, error) {
	var users []User
	err := s.DB.Where("role = ?", RoleAdmin).Order("created_at desc").Find(&users).Error
	return users, err
}

func (s *Store) UpdateUserRole(userID int64, role string) (*User, error) {
	u, err := s.GetUser(userID)
	if err != nil || u == nil {
		return u, err
	}
	u.Role = role
	return u, s.DB.Save(u).Error
}

func (s *Store) BlockUser(userID int64) (*User, error) {
	u, err := s.GetUser(userID)
	if err != nil || u == nil {
		return u, err
	}
	u.IsBlocked = true
	return u, s.DB.Save(u).Error
}

func (s *Store) UnblockUser(userID int64) (*User, error) {
	u, err := s.GetUser(userID)
	if err != nil || u == nil {
		return u, err
	}
	u.IsBlocked = false
	return u, s.DB.Save(u).Error
}

func (s *Store) UpdateUserFullName(userID int64, fullName string) (*User, error) {
	u, err := s.GetUser(userID)
	if err != nil || u == nil {
		return u, err
	}
	u.FullName = fullName
	return u, s.DB.Save(u).Error
}

func (s *Store) DeleteUser(userID int64) (bool, error) {
	res := s.DB.Delete(&User{}, "id = ?", userID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ==========================================
// ПРИГЛАСИТЕЛЬНЫЕ ССЫЛКИ
// ==========================================

func (s *Store) CreateInviteLink(code string, createdBy int64, targetRole, fullName string, expiresAt *time.Time) (*InviteLink, error) {
	link := &InviteLink{
		Code:       code,
		CreatedBy:  createdBy,
		TargetRole: targetRole,
		FullName:   fullName,
		ExpiresAt:  expiresAt,
	}
	if err := s.DB.Create(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Store) GetInviteLinkByCode(code string) (*InviteLink, error) {
	var link InviteLink
	err := s.DB.First(&link, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// UseInviteLink помечает ссылку использованной. Повторное использование
// возвращает nil: ссылка одноразовая.
func (s *Store) UseInviteLink(code string, userID int64) (*InviteLink, error) {
	link, err := s.GetInviteLinkByCode(code)
	if err != nil {
		return nil, err
	}
	if link == nil || link.IsUsed {
		return nil, nil
	}
	now := time.Now().UTC()
	link.IsUsed = true
	link.UsedBy = &userID
	link.UsedAt = &now
	if err := s.DB.Save(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Store) UserInviteLinks(userID int64) ([]InviteLink, error) {
	var links []InviteLink
	err := s.DB.Where("created_by = ?", userID).Order("created_at desc").Find(&links).Error
	return links, err
}

func (s *Store) DeleteInviteLink(code string) (bool, error) {
	res := s.DB.Delete(&InviteLink{}, "code = ?", code)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ==========================================
// КРЕАТИВЫ
// ==========================================

func (s *Store) SaveCreative(c *Creative) error {
	return s.DB.Create(c).Error
}

func (s *Store) GetCreative(id uint) (*Creative, error) {
	var c Creative
	err := s.DB.First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetCreativeByErid(erid string) (*Creative, error) {
	var c Creative
	err := s.DB.First(&c, "erid = ?", erid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetUserCreatives(userID int64, limit, offset int) ([]Creative, error) {
	var creatives []Creative
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&creatives).Error
	return creatives, err
}

func (s *Store) UserCreativesCount(userID int64) (int64, error) {
	var n int64
	err := s.DB.Model(&Creative{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (s *Store) CreativesCount() (int64, error) {
	var n int64
	err := s.DB.Model(&Creative{}).Count(&n).Error
	return n, err
}

func (s *Store) UpdateCreativeStatus(id uint, status, errorMessage string) (*Creative, error) {
	c, err := s.GetCreative(id)
	if err != nil || c == nil {
		return c, err
	}
	c.Status = status
	c.ErrorMessage = errorMessage
	return c, s.DB.Save(c).Error
}

type dayCount struct {
	Day string
	Cnt int
}

// CreativesPerDay — количество созданных креативов по дням за последние
// days суток (для графика в админке).
func (s *Store) CreativesPerDay(days int) ([]dayCount, error) {
	if days <= 0 {
		days = 14
	}
	since := time.Now().AddDate(0, 0, -days)
	var rows []dayCount
	err := s.DB.Model(&Creative{}).
		Select("date(created_at) as day, count(*) as cnt").
		Where("created_at >= ?", since).
		Group("day").
		Order("day").
		Scan(&rows).Error
	return rows, err
}

// ==========================================
// СТАТИСТИКА БОТА
// ==========================================

// UpdateBotStats пересчитывает агрегаты и обновляет последнюю запись
// (или создает первую). Материализованный срез, не живой счетчик.
func (s *Store) UpdateBotStats() (*BotStats, error) {
	totalUsers, err := s.UsersCount()
	if err != nil {
		return nil, err
	}
	activeUsers, err := s.ActiveUsersCount()
	if err != nil {
		return nil, err
	}
	totalCreatives, err := s.CreativesCount()
	if err != nil {
		return nil, err
	}

	stats, err := s.GetBotStats()
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &BotStats{Status: "active"}
	}
	stats.TotalUsers = int(totalUsers)
	stats.ActiveUsers = int(activeUsers)
	stats.TotalCreatives = int(totalCreatives)
	stats.LastRestart = time.Now().UTC()
	if err := s.DB.Save(stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) GetBotStats() (*BotStats, error) {
	var stats BotStats
	err := s.DB.Order("id desc").First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Store) MigrationHistoryList() ([]MigrationHistory, error) {
	var rows []MigrationHistory
	err := s.DB.Order("applied_at desc").Find(&rows).Error
	return rows, err
}
