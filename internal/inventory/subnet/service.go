// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subnet

import (
	"context"
	"log/slog"

	"github.com/taibuivan/netrack/pkg/pagination"
	"github.com/taibuivan/netrack/pkg/uuid"
)

// Service implements the subnet inventory use cases.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new subnet [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		logger:     logger,
	}
}

// Input holds the writable fields of a subnet.
type Input struct {
	Name        string
	CIDR        string
	VLANID      int
	Description string
}

// Create registers a new subnet.
func (service *Service) Create(context context.Context, input Input) (*Subnet, error) {
	subnet := &Subnet{
		ID:          uuid.New(),
		Name:        input.Name,
		CIDR:        input.CIDR,
		VLANID:      input.VLANID,
		Description: input.Description,
	}

	if err := service.repository.Create(context, subnet); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "subnet_created",
		slog.String("subnet_id", subnet.ID),
		slog.String("cidr", subnet.CIDR),
	)

	return subnet, nil
}

// Get retrieves a single subnet.
func (service *Service) Get(context context.Context, id string) (*Subnet, error) {
	return service.repository.FindByID(context, id)
}

// List returns a page of subnets plus the total count.
func (service *Service) List(context context.Context, params pagination.Params) ([]*Subnet, int, error) {
	return service.repository.List(context, params)
}

// Update replaces the writable fields of a subnet.
func (service *Service) Update(context context.Context, id string, input Input) (*Subnet, error) {
	subnet, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	subnet.Name = input.Name
	subnet.CIDR = input.CIDR
	subnet.VLANID = input.VLANID
	subnet.Description = input.Description

	if err := service.repository.Update(context, subnet); err != nil {
		return nil, err
	}

	return subnet, nil
}

// Delete removes a subnet that no device references.
func (service *Service) Delete(context context.Context, id string) error {
	return service.repository.Delete(context, id)
}
