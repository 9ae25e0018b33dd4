package app

import "time"

// ==========================================
// МОДЕЛИ БАЗЫ ДАННЫХ
// ==========================================

// Роли пользователей. Закрытое перечисление: любые другие значения в
// колонке role считаются ошибкой данных.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Статусы креатива.
const (
	CreativeStatusDraft   = "draft"
	CreativeStatusCreated = "created"
	CreativeStatusError   = "error"
)

// User — сотрудник или администратор. Первичный ключ = Telegram ID.
type User struct {
	ID        int64   `gorm:"primaryKey;autoIncrement:false"`
	Username  string  `gorm:"size:255"`
	FirstName string  `gorm:"size:255"`
	LastName  string  `gorm:"size:255"`
	FullName  string  `gorm:"size:500"` // ФИО для сотрудников
	Role      string  `gorm:"size:50;default:employee"`
	IsActive  bool    `gorm:"default:true"`
	IsBlocked bool    `gorm:"default:false"`
	InvitedBy *int64  // ID админа, который пригласил
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) DisplayName() string {
	if u == nil {
		return "?"
	}
	if u.FullName != "" {
		return u.FullName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "ID: " + formatID(u.ID)
}

// InviteLink — одноразовая пригласительная ссылка.
type InviteLink struct {
	ID         uint   `gorm:"primaryKey"`
	Code       string `gorm:"size:100;uniqueIndex;not null"`
	CreatedBy  int64  `gorm:"not null"`
	TargetRole string `gorm:"size:50;default:employee"`
	FullName   string `gorm:"size:500"` // ФИО приглашаемого (предзаполнение)

	IsUsed bool `gorm:"default:false"`
	UsedBy *int64
	UsedAt *time.Time

	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Creative — одна заявка на креатив саморекламы и её результат.
type Creative struct {
	ID     uint  `gorm:"primaryKey"`
	UserID int64 `gorm:"not null;index"`

	Form     string `gorm:"size:50;not null"`
	KktuCode string `gorm:"size:20;not null"`
	Erid     string `gorm:"size:255"` // Токен Erid

	MediaFileID   string `gorm:"size:255"` // File ID из Telegram
	MediaFileName string `gorm:"size:255"`
	TextData      string `gorm:"type:text"`

	// Идентификаторы на стороне Медиаскаут
	MediascoutID      string `gorm:"size:255"`
	CreativeGroupID   string `gorm:"size:255"`
	CreativeGroupName string `gorm:"size:255"`

	Status       string `gorm:"size:50;default:draft"` // draft, created, error
	ErrorMessage string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BotStats — срез статистики бота. Актуальная запись = max(id).
type BotStats struct {
	ID             uint `gorm:"primaryKey"`
	TotalUsers     int  `gorm:"default:0"`
	ActiveUsers    int  `gorm:"default:0"`
	TotalCreatives int  `gorm:"default:0"`
	LastRestart    time.Time
	Status         string `gorm:"size:50;default:active"`
	CreatedAt      time.Time
}

// MigrationHistory — журнал применённых миграций, только добавление.
type MigrationHistory struct {
	ID            uint   `gorm:"primaryKey"`
	Version       string `gorm:"size:20;uniqueIndex;not null"`
	Name          string `gorm:"size:255;not null"`
	Description   string `gorm:"type:text"`
	AppliedAt     time.Time
	ExecutionTime float64 // секунды
}
