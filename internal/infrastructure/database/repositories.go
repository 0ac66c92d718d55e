package database

import (
	"gorm.io/gorm"

	"github.com/railroadmedia/customer-io/internal/adapter/repository"
	domainRepo "github.com/railroadmedia/customer-io/internal/domain/repository"
)

type Repositories struct {
	Customer domainRepo.CustomerRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Customer: repository.NewCustomerRepository(db),
	}
}
