// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package treeindex maps tree positions to integer ids in an implicit
// fixed-arity tree. The id encodes position only: whatever node value sits
// at a position, its id is the same, which is what lets the sampler swap
// a subtree without renumbering anything.
//
// Root is id 1; child k (1-indexed) of node n is n*maxBranch + k. The
// scheme assigns distinct ids to distinct positions for any maxBranch >= 2.
package treeindex

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/AleutianAI/kernelsearch/kernel"
)

// RootID is the id of the root position.
const RootID = 1

// ChildID returns the id of child k of the node at parent, 1-indexed up
// to maxBranch.
func ChildID(parent, k, maxBranch int) int {
	if k < 1 || k > maxBranch {
		panic(fmt.Sprintf("treeindex: child index %d out of range [1,%d]", k, maxBranch))
	}
	return parent*maxBranch + k
}

// ParentID returns the id of the parent position of id. The root has no
// parent; asking for it panics.
func ParentID(id, maxBranch int) int {
	if id <= RootID {
		panic(fmt.Sprintf("treeindex: node %d has no parent", id))
	}
	return (id - 1) / maxBranch
}

// IsWithin reports whether id lies in the subtree rooted at root
// (inclusive of root itself).
func IsWithin(id, root, maxBranch int) bool {
	for id > root {
		id = ParentID(id, maxBranch)
	}
	return id == root
}

// NodeIDs returns the ids of every node instantiated in the tree, in
// preorder. The same traversal order backs both counting and random
// selection, so index i always refers to the same node across both.
func NodeIDs(root kernel.Node, rootID, maxBranch int) []int {
	ids := make([]int, 0, kernel.Size(root))
	appendIDs(root, rootID, maxBranch, &ids)
	return ids
}

func appendIDs(n kernel.Node, id, maxBranch int, ids *[]int) {
	*ids = append(*ids, id)
	left, right, ok := kernel.Children(n)
	if !ok {
		return
	}
	appendIDs(left, ChildID(id, 1, maxBranch), maxBranch, ids)
	appendIDs(right, ChildID(id, 2, maxBranch), maxBranch, ids)
}

// PickRandomNode selects one node id uniformly at random among all ids
// present in the tree rooted at root. Uniformity over the exact node
// count is load-bearing: the sampler's dimension correction assumes the
// pick probability is 1/count.
func PickRandomNode(root kernel.Node, rootID, maxBranch int, src *rand.Rand) int {
	ids := NodeIDs(root, rootID, maxBranch)
	return ids[src.Intn(len(ids))]
}
