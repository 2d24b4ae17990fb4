package journal

import (
	"github.com/smallbiznis/wavepay/internal/journal/domain"
	"github.com/smallbiznis/wavepay/internal/journal/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("journal.service",
	fx.Provide(service.NewService),
	fx.Invoke(migrate),
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Entry{})
}
