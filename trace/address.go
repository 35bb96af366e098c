// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package trace

import "fmt"

// Role distinguishes the two phases of the generative recursion that can
// record a random choice at a node.
type Role uint8

const (
	// RoleProduction marks choices made while expanding a node top-down
	// (the node-type draw).
	RoleProduction Role = iota

	// RoleAggregation marks choices made while folding a node bottom-up
	// (leaf parameter draws).
	RoleAggregation
)

// String returns the role's display name.
func (r Role) String() string {
	switch r {
	case RoleProduction:
		return "production"
	case RoleAggregation:
		return "aggregation"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Address identifies one random choice in a trace: the tree position it
// was drawn at, the recursion phase, and the field name. Addresses are
// comparable and used directly as map keys.
type Address struct {
	Node  int
	Role  Role
	Field string
}

// String renders the address as "node/3/production/type".
func (a Address) String() string {
	return fmt.Sprintf("node/%d/%s/%s", a.Node, a.Role, a.Field)
}

// Production returns the address of the node-type choice at a position.
func Production(node int) Address {
	return Address{Node: node, Role: RoleProduction, Field: "type"}
}

// Aggregation returns the address of a leaf parameter choice at a
// position.
func Aggregation(node int, field string) Address {
	return Address{Node: node, Role: RoleAggregation, Field: field}
}

// Choice is one recorded random draw together with its log-probability
// contribution under the distribution it was drawn from. Discrete draws
// (the node-type index) store the index as a float64; it is exact for
// any index the grammar can produce.
type Choice struct {
	Value   float64
	LogProb float64
}
