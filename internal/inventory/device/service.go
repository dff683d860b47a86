// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package device

import (
	"context"
	"log/slog"

	"github.com/taibuivan/netrack/pkg/pagination"
	"github.com/taibuivan/netrack/pkg/uuid"
)

// Service implements the device inventory use cases.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new device [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		logger:     logger,
	}
}

// Input holds the writable fields of a device.
type Input struct {
	Name         string
	Hostname     string
	ManagementIP string
	SubnetID     *string
	Vendor       string
	Model        string
	Location     string
	Status       string
	Notes        string
}

// Create registers a new device in the inventory.
func (service *Service) Create(context context.Context, input Input) (*Device, error) {
	device := &Device{
		ID:           uuid.New(),
		Name:         input.Name,
		Hostname:     input.Hostname,
		ManagementIP: input.ManagementIP,
		SubnetID:     input.SubnetID,
		Vendor:       input.Vendor,
		Model:        input.Model,
		Location:     input.Location,
		Status:       input.Status,
		Notes:        input.Notes,
	}
	if device.Status == "" {
		device.Status = StatusActive
	}

	if err := service.repository.Create(context, device); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "device_created",
		slog.String("device_id", device.ID),
		slog.String("name", device.Name),
	)

	return device, nil
}

// Get retrieves a single device.
func (service *Service) Get(context context.Context, id string) (*Device, error) {
	return service.repository.FindByID(context, id)
}

// List returns a page of devices plus the total count.
func (service *Service) List(context context.Context, params pagination.Params, filter Filter) ([]*Device, int, error) {
	return service.repository.List(context, params, filter)
}

// Update replaces the writable fields of a device.
func (service *Service) Update(context context.Context, id string, input Input) (*Device, error) {
	device, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	device.Name = input.Name
	device.Hostname = input.Hostname
	device.ManagementIP = input.ManagementIP
	device.SubnetID = input.SubnetID
	device.Vendor = input.Vendor
	device.Model = input.Model
	device.Location = input.Location
	device.Status = input.Status
	device.Notes = input.Notes

	if err := service.repository.Update(context, device); err != nil {
		return nil, err
	}

	return device, nil
}

// Delete removes a device from the inventory.
func (service *Service) Delete(context context.Context, id string) error {
	if err := service.repository.Delete(context, id); err != nil {
		return err
	}

	service.logger.InfoContext(context, "device_deleted", slog.String("device_id", id))
	return nil
}
