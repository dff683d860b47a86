// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package device_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/netrack/internal/inventory/device"
	"github.com/taibuivan/netrack/internal/platform/apperr"
	"github.com/taibuivan/netrack/pkg/pagination"
)

// fakeRepo is an in-memory device.Repository.
type fakeRepo struct {
	devices map[string]*device.Device
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{devices: make(map[string]*device.Device)}
}

func (repo *fakeRepo) Create(_ context.Context, entry *device.Device) error {
	copied := *entry
	repo.devices[entry.ID] = &copied
	return nil
}

func (repo *fakeRepo) FindByID(_ context.Context, id string) (*device.Device, error) {
	entry, found := repo.devices[id]
	if !found {
		return nil, apperr.NotFound("Device")
	}
	copied := *entry
	return &copied, nil
}

func (repo *fakeRepo) List(_ context.Context, params pagination.Params, filter device.Filter) ([]*device.Device, int, error) {
	matched := make([]*device.Device, 0)
	for _, entry := range repo.devices {
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		if filter.SubnetID != "" && (entry.SubnetID == nil || *entry.SubnetID != filter.SubnetID) {
			continue
		}
		copied := *entry
		matched = append(matched, &copied)
	}
	return matched, len(matched), nil
}

func (repo *fakeRepo) Update(_ context.Context, entry *device.Device) error {
	if _, found := repo.devices[entry.ID]; !found {
		return apperr.NotFound("Device")
	}
	copied := *entry
	repo.devices[entry.ID] = &copied
	return nil
}

func (repo *fakeRepo) Delete(_ context.Context, id string) error {
	if _, found := repo.devices[id]; !found {
		return apperr.NotFound("Device")
	}
	delete(repo.devices, id)
	return nil
}

func newService(repo *fakeRepo) *device.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return device.NewService(repo, logger)
}

/*
TestService_Create verifies ID assignment and the default lifecycle status.
*/
func TestService_Create(t *testing.T) {
	repo := newFakeRepo()
	service := newService(repo)

	created, err := service.Create(context.Background(), device.Input{
		Name:         "core-sw-01",
		ManagementIP: "10.0.0.2",
	})
	require.NoError(t, err)

	// 1. An ID was assigned and the entry persisted
	assert.NotEmpty(t, created.ID)
	assert.Contains(t, repo.devices, created.ID)

	// 2. Status defaults to active when omitted
	assert.Equal(t, device.StatusActive, created.Status)

	// 3. An explicit status is preserved
	retired, err := service.Create(context.Background(), device.Input{
		Name:         "old-fw-09",
		ManagementIP: "10.0.0.9",
		Status:       device.StatusRetired,
	})
	require.NoError(t, err)
	assert.Equal(t, device.StatusRetired, retired.Status)
}

/*
TestService_Update verifies the read-modify-write cycle.
*/
func TestService_Update(t *testing.T) {
	repo := newFakeRepo()
	service := newService(repo)

	created, err := service.Create(context.Background(), device.Input{
		Name:         "core-sw-01",
		ManagementIP: "10.0.0.2",
	})
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), created.ID, device.Input{
		Name:         "core-sw-01",
		ManagementIP: "10.0.0.2",
		Location:     "rack B4",
		Status:       device.StatusInactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "rack B4", updated.Location)
	assert.Equal(t, device.StatusInactive, updated.Status)
	assert.Equal(t, device.StatusInactive, repo.devices[created.ID].Status)

	// Updating a missing device surfaces the repository's not-found
	_, err = service.Update(context.Background(), "no-such-id", device.Input{Name: "x"})
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

/*
TestService_ListFilters verifies status and subnet filtering.
*/
func TestService_ListFilters(t *testing.T) {
	repo := newFakeRepo()
	service := newService(repo)

	subnetID := "subnet-1"
	_, err := service.Create(context.Background(), device.Input{
		Name: "sw-a", ManagementIP: "10.0.0.2", SubnetID: &subnetID,
	})
	require.NoError(t, err)
	_, err = service.Create(context.Background(), device.Input{
		Name: "sw-b", ManagementIP: "10.0.0.3", Status: device.StatusRetired,
	})
	require.NoError(t, err)

	params := pagination.Params{Page: 1, Limit: 20}

	all, total, err := service.List(context.Background(), params, device.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	retired, total, err := service.List(context.Background(), params, device.Filter{Status: device.StatusRetired})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "sw-b", retired[0].Name)

	inSubnet, total, err := service.List(context.Background(), params, device.Filter{SubnetID: subnetID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "sw-a", inSubnet[0].Name)
}

/*
TestService_Delete verifies removal and the not-found path.
*/
func TestService_Delete(t *testing.T) {
	repo := newFakeRepo()
	service := newService(repo)

	created, err := service.Create(context.Background(), device.Input{
		Name:         "core-sw-01",
		ManagementIP: "10.0.0.2",
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), created.ID))
	assert.NotContains(t, repo.devices, created.ID)

	err = service.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
