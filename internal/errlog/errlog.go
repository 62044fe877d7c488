// Package errlog is the error side channel: every unexpected failure caught at
// an operation boundary is recorded in the system_errors table and in the
// application log, without ever blocking the primary response.
package errlog

import (
	"context"
	"encoding/json"

	"merchcrm/internal/model"
	"merchcrm/internal/repository"
	"merchcrm/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Recorder forwards caught errors to persistent storage and logrus
type Recorder struct {
	repo repository.SecurityRepository
}

// NewRecorder returns a Recorder backed by the given repository
func NewRecorder(repo repository.SecurityRepository) *Recorder {
	return &Recorder{repo: repo}
}

// Record stores the failure with its request context. Storage errors are
// logged and swallowed; this must never fail the caller.
func (r *Recorder) Record(ctx context.Context, err error, path, method string, userID *uuid.UUID, details map[string]interface{}) {
	entry := logger.Get().WithFields(logrus.Fields{
		"path":   path,
		"method": method,
	})
	if userID != nil {
		entry = entry.WithField("user_id", userID.String())
	}
	entry.WithError(err).Error("operation failed")

	if r == nil || r.repo == nil {
		return
	}

	var payload datatypes.JSON
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = datatypes.JSON(raw)
	}

	sysErr := &model.SystemError{
		UserID:   userID,
		Message:  err.Error(),
		Path:     path,
		Method:   method,
		Severity: model.SeverityError,
		Details:  payload,
	}
	if storeErr := r.repo.LogError(ctx, sysErr); storeErr != nil {
		logger.Get().WithError(storeErr).Warn("failed to persist system error")
	}
}
