package postgres

import (
	"github.com/splitcrew/splitcrew/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Users    ports.UserRepository
	Sessions ports.SessionRepository
	Expenses ports.ExpenseRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    &userRepository{db: db},
		Sessions: &sessionRepository{db: db},
		Expenses: &expenseRepository{db: db},
	}
}
