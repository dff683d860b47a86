// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"log/slog"

	"github.com/taibuivan/netrack/pkg/pagination"
	"github.com/taibuivan/netrack/pkg/uuid"
)

// Service implements the audit trail use cases.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new audit [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		logger:     logger,
	}
}

// Event describes an authentication event to be recorded.
type Event struct {
	UserID    string
	Username  string
	Action    string
	Status    string
	IPAddress string
	UserAgent string
	Detail    string
}

/*
Record appends an event to the audit trail.

Description: Recording never fails the caller. If the insert errors, the
event is written to the structured log instead so no security event is
silently lost, and the authentication flow proceeds.

Parameters:
  - context: context.Context
  - event: Event
*/
func (service *Service) Record(context context.Context, event Event) {
	entry := &Entry{
		ID:        uuid.New(),
		UserID:    event.UserID,
		Username:  event.Username,
		Action:    event.Action,
		Status:    event.Status,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Detail:    event.Detail,
	}

	if err := service.repository.Insert(context, entry); err != nil {
		service.logger.ErrorContext(context, "audit_record_failed",
			slog.String("action", event.Action),
			slog.String("status", event.Status),
			slog.String("username", event.Username),
			slog.Any("error", err),
		)
	}
}

// List returns a page of audit entries, newest first.
func (service *Service) List(context context.Context, params pagination.Params, filter Filter) ([]*Entry, int, error) {
	return service.repository.List(context, params, filter)
}
