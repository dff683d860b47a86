// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package subnet implements the IP network inventory.

A subnet is a named CIDR prefix (optionally VLAN-tagged) that devices can be
placed into. Every endpoint is guarded by a "subnet.*" permission.
*/
package subnet

import "time"

// Subnet represents one tracked IP network.
type Subnet struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// CIDR is the network prefix, e.g. "10.20.0.0/16".
	CIDR string `json:"cidr"`

	// VLANID is the IEEE 802.1Q tag, 0 when untagged.
	VLANID      int    `json:"vlan_id"`
	Description string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldName        = "name"
	FieldCIDR        = "cidr"
	FieldVLANID      = "vlan_id"
	FieldDescription = "description"
)
