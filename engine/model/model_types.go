package model

import (
	"github.com/Carmen-Shannon/oxy-view/common"
)

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// Name is the bone's identifier.
	Name string

	// ParentIndex is the index of the parent bone (-1 for root bones).
	ParentIndex int32

	// InverseBindMatrix transforms from model space to bone space at bind pose.
	InverseBindMatrix [16]float32

	// BoundingBox encloses the vertices influenced by the bone, in bone space.
	// An undefined box excludes the bone from bounding box updates.
	BoundingBox common.BoundingBox
}

// Skeleton represents a bone hierarchy for skinned geometry.
type Skeleton struct {
	// Bones is the array of all bones in the skeleton.
	Bones []Bone

	// BoneNameToIndex maps bone names to their indices for quick lookup.
	BoneNameToIndex map[string]int32
}

// BoneIndex returns the index of a bone by name, or -1 if not found.
func (s *Skeleton) BoneIndex(name string) int32 {
	if s == nil {
		return -1
	}
	if i, ok := s.BoneNameToIndex[name]; ok {
		return i
	}
	return -1
}
