package app

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// ==========================================
// МИГРАЦИИ
// ==========================================

type migration struct {
	Version     string
	Name        string
	Description string
	Apply       func(db *gorm.DB) error
}

// Нумерованные миграции применяются один раз, отметка в migration_history.
// Новые добавлять строго в конец списка.
var migrations = []migration{
	{
		Version:     "001",
		Name:        "initial_schema",
		Description: "Базовые таблицы: пользователи, приглашения, креативы, статистика",
		Apply: func(db *gorm.DB) error {
			return db.AutoMigrate(&User{}, &InviteLink{}, &Creative{}, &BotStats{})
		},
	},
	{
		Version:     "002",
		Name:        "user_block_flag",
		Description: "Флаг блокировки пользователя",
		Apply: func(db *gorm.DB) error {
			m := db.Migrator()
			if !m.HasColumn(&User{}, "is_blocked") {
				return m.AddColumn(&User{}, "is_blocked")
			}
			return nil
		},
	},
	{
		Version:     "003",
		Name:        "creative_group_fields",
		Description: "Поля группы креатива из ответа Mediascout",
		Apply: func(db *gorm.DB) error {
			m := db.Migrator()
			for _, col := range []string{"creative_group_id", "creative_group_name"} {
				if !m.HasColumn(&Creative{}, col) {
					if err := m.AddColumn(&Creative{}, col); err != nil {
						return err
					}
				}
			}
			return nil
		},
	},
}

func (s *Store) runMigrations() error {
	if err := s.DB.AutoMigrate(&MigrationHistory{}); err != nil {
		return err
	}

	for _, m := range migrations {
		var applied MigrationHistory
		err := s.DB.First(&applied, "version = ?", m.Version).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		started := time.Now()
		if err := m.Apply(s.DB); err != nil {
			log.Printf("❌ Миграция %s (%s) не применилась: %v", m.Version, m.Name, err)
			return err
		}
		rec := MigrationHistory{
			Version:       m.Version,
			Name:          m.Name,
			Description:   m.Description,
			AppliedAt:     time.Now().UTC(),
			ExecutionTime: time.Since(started).Seconds(),
		}
		if err := s.DB.Create(&rec).Error; err != nil {
			return err
		}
		log.Printf("✅ Миграция %s (%s) применена за %.3fs", m.Version, m.Name, rec.ExecutionTime)
	}
	return nil
}
