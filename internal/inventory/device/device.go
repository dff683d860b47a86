// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package device implements the network device inventory.

A device is any tracked piece of network equipment (switch, router, firewall,
access point, server) with its management address and lifecycle status. Every
endpoint in this package is guarded by a "device.*" permission.
*/
package device

import "time"

// # Lifecycle Statuses

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusRetired  = "retired"
)

// Statuses enumerates the accepted lifecycle values.
var Statuses = []string{StatusActive, StatusInactive, StatusRetired}

// # Domain Entities

// Device represents one tracked piece of network equipment.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Hostname string `json:"hostname"`

	// ManagementIP is the address used to reach the device.
	ManagementIP string `json:"management_ip"`

	// SubnetID optionally places the device into a tracked subnet.
	SubnetID *string `json:"subnet_id,omitempty"`

	Vendor   string `json:"vendor,omitempty"`
	Model    string `json:"model,omitempty"`
	Location string `json:"location,omitempty"`
	Status   string `json:"status"`
	Notes    string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldName         = "name"
	FieldHostname     = "hostname"
	FieldManagementIP = "management_ip"
	FieldSubnetID     = "subnet_id"
	FieldVendor       = "vendor"
	FieldModel        = "model"
	FieldLocation     = "location"
	FieldStatus       = "status"
	FieldNotes        = "notes"
)
