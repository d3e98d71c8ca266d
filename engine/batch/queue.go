package batch

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
)

// Queue collects the batches of one render pass. Priority batches are drawn before
// non-priority ones; static batches sharing state are gathered into instancing groups
// when instancing is enabled.
type Queue struct {
	instancing bool

	priorityBatches []*Batch
	batches         []*Batch

	priorityGroupIndex map[GroupKey]*Group
	groupIndex         map[GroupKey]*Group
	priorityGroups     []*Group
	groups             []*Group
}

// NewQueue creates an empty queue.
//
// Parameters:
//   - instancing: whether static batches may be grouped for instanced drawing
//
// Returns:
//   - *Queue: the queue
func NewQueue(instancing bool) *Queue {
	return &Queue{
		instancing:         instancing,
		priorityGroupIndex: make(map[GroupKey]*Group),
		groupIndex:         make(map[GroupKey]*Group),
	}
}

// Clear empties the queue and sets whether instancing is used for the next batches.
func (q *Queue) Clear(instancing bool) {
	q.instancing = instancing
	q.priorityBatches = q.priorityBatches[:0]
	q.batches = q.batches[:0]
	q.priorityGroups = q.priorityGroups[:0]
	q.groups = q.groups[:0]
	clear(q.priorityGroupIndex)
	clear(q.groupIndex)
}

// Add queues a copy of a batch. Invalid batches (no geometry, technique or pass) are dropped.
//
// Parameters:
//   - b: the batch
//   - noInstancing: never group this batch
//
// Returns:
//   - bool: false when the batch was dropped
func (q *Queue) Add(b Batch, noInstancing bool) bool {
	if !b.IsValid() {
		return false
	}
	b.CalculateSortKey()

	if q.instancing && !noInstancing && b.GeometryType == drawable.GeometryStatic && b.InstancingShader != nil {
		index, list := q.groupIndex, &q.groups
		if b.HasPriority {
			index, list = q.priorityGroupIndex, &q.priorityGroups
		}
		key := keyOf(&b)
		gr, ok := index[key]
		if !ok {
			gr = newGroup(b)
			index[key] = gr
			*list = append(*list, gr)
		}
		gr.add(&b)
		return true
	}

	if b.HasPriority {
		q.priorityBatches = append(q.priorityBatches, &b)
	} else {
		q.batches = append(q.batches, &b)
	}
	return true
}

// SortFrontToBack orders batches and groups by ascending distance, breaking ties by state.
// Groups of a single instance are moved to the plain batch lists.
func (q *Queue) SortFrontToBack() {
	q.unpackSingleGroups()
	slices.SortStableFunc(q.priorityBatches, frontToBack)
	slices.SortStableFunc(q.batches, frontToBack)
	q.sortGroups(q.priorityGroups)
	q.sortGroups(q.groups)
}

// SortBackToFront merges priority batches into the non-priority list and orders it by
// descending distance. Used for transparent geometry, which is never instanced.
func (q *Queue) SortBackToFront() {
	q.unpackSingleGroups()
	for _, gr := range slices.Concat(q.priorityGroups, q.groups) {
		for _, inst := range gr.Instances {
			b := gr.Batch
			b.WorldTransform = inst.WorldTransform
			b.Distance = inst.Distance
			q.batches = append(q.batches, &b)
		}
	}
	q.priorityGroups = q.priorityGroups[:0]
	q.groups = q.groups[:0]
	clear(q.priorityGroupIndex)
	clear(q.groupIndex)

	q.batches = append(q.batches, q.priorityBatches...)
	q.priorityBatches = q.priorityBatches[:0]
	slices.SortStableFunc(q.batches, func(a, b *Batch) int {
		return cmp.Compare(b.Distance, a.Distance)
	})
}

// IsEmpty reports whether the queue has nothing to draw.
func (q *Queue) IsEmpty() bool {
	return len(q.priorityBatches) == 0 && len(q.batches) == 0 && len(q.priorityGroups) == 0 && len(q.groups) == 0
}

// Len returns the number of draws the queue represents, counting every group instance.
func (q *Queue) Len() int {
	n := len(q.priorityBatches) + len(q.batches)
	for _, gr := range q.priorityGroups {
		n += len(gr.Instances)
	}
	for _, gr := range q.groups {
		n += len(gr.Instances)
	}
	return n
}

// PriorityBatches returns the sorted non-instanced priority batches.
func (q *Queue) PriorityBatches() []*Batch {
	return q.priorityBatches
}

// Batches returns the sorted non-instanced non-priority batches.
func (q *Queue) Batches() []*Batch {
	return q.batches
}

// PriorityGroups returns the sorted priority instancing groups.
func (q *Queue) PriorityGroups() []*Group {
	return q.priorityGroups
}

// Groups returns the sorted non-priority instancing groups.
func (q *Queue) Groups() []*Group {
	return q.groups
}

// NumInstances returns the number of instances drawn with instanced calls.
func (q *Queue) NumInstances() int {
	n := 0
	for _, gr := range slices.Concat(q.priorityGroups, q.groups) {
		if gr.Instanced() {
			n += len(gr.Instances)
		}
	}
	return n
}

// AppendTransforms writes the instance transforms of every instanced group to buf.
func (q *Queue) AppendTransforms(buf []float32) []float32 {
	for _, gr := range slices.Concat(q.priorityGroups, q.groups) {
		if gr.Instanced() {
			buf = gr.AppendTransforms(buf)
		}
	}
	return buf
}

// All returns every queued batch in draw order with groups expanded, for inspection.
func (q *Queue) All() []Batch {
	var out []Batch
	expand := func(groups []*Group) {
		for _, gr := range groups {
			for _, inst := range gr.Instances {
				b := gr.Batch
				b.WorldTransform = inst.WorldTransform
				b.Distance = inst.Distance
				out = append(out, b)
			}
		}
	}
	expand(q.priorityGroups)
	for _, b := range q.priorityBatches {
		out = append(out, *b)
	}
	expand(q.groups)
	for _, b := range q.batches {
		out = append(out, *b)
	}
	return out
}

func (q *Queue) unpackSingleGroups() {
	unpack := func(groups []*Group, index map[GroupKey]*Group, dst *[]*Batch) []*Group {
		kept := groups[:0]
		for _, gr := range groups {
			if len(gr.Instances) >= MinInstances {
				kept = append(kept, gr)
				continue
			}
			delete(index, gr.Key())
			for _, inst := range gr.Instances {
				b := gr.Batch
				b.WorldTransform = inst.WorldTransform
				b.Distance = inst.Distance
				*dst = append(*dst, &b)
			}
		}
		return kept
	}
	q.priorityGroups = unpack(q.priorityGroups, q.priorityGroupIndex, &q.priorityBatches)
	q.groups = unpack(q.groups, q.groupIndex, &q.batches)
}

func (q *Queue) sortGroups(groups []*Group) {
	for _, gr := range groups {
		slices.SortStableFunc(gr.Instances, func(a, b Instance) int {
			return cmp.Compare(a.Distance, b.Distance)
		})
		gr.WorldTransform = gr.Instances[0].WorldTransform
		gr.Distance = gr.Instances[0].Distance
	}
	slices.SortStableFunc(groups, func(a, b *Group) int {
		return frontToBack(&a.Batch, &b.Batch)
	})
}

func frontToBack(a, b *Batch) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.SortKey, b.SortKey)
}
