// internal/app/features/admin/handler.go
package admin

import (
	"time"

	uierrors "github.com/dalemusser/codeswitch/internal/app/features/errors"
	auditstore "github.com/dalemusser/codeswitch/internal/app/store/audit"
	projectstore "github.com/dalemusser/codeswitch/internal/app/store/projects"
	userstore "github.com/dalemusser/codeswitch/internal/app/store/users"
	"github.com/dalemusser/codeswitch/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// usersPageSize matches the admin user table's default page.
const usersPageSize = 100

type Handler struct {
	DB       *mongo.Database
	Users    *userstore.Store
	Projects *projectstore.Store
	Events   *auditstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger

	now func() time.Time
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Users:    userstore.New(db),
		Projects: projectstore.New(db),
		Events:   auditstore.New(db),
		Audit:    audit,
		Log:      logger,
		ErrLog:   errLog,
		now:      time.Now,
	}
}
