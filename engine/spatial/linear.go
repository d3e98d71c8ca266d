package spatial

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
)

// linearIndex is an Index that tests every drawable. Insertion order is the result order.
type linearIndex struct {
	mu        *sync.RWMutex
	drawables []drawable.Drawable
	present   map[drawable.Drawable]struct{}
}

var _ Index = &linearIndex{}

// NewLinearIndex creates an empty Index that answers queries by testing every drawable.
//
// Returns:
//   - Index: the index
func NewLinearIndex() Index {
	return &linearIndex{
		mu:      &sync.RWMutex{},
		present: make(map[drawable.Drawable]struct{}),
	}
}

func (x *linearIndex) Insert(d drawable.Drawable) {
	if d == nil {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.present[d]; ok {
		return
	}
	x.present[d] = struct{}{}
	x.drawables = append(x.drawables, d)
}

func (x *linearIndex) Remove(d drawable.Drawable) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.present[d]; !ok {
		return false
	}
	delete(x.present, d)
	if i := slices.Index(x.drawables, d); i >= 0 {
		x.drawables = slices.Delete(x.drawables, i, i+1)
	}
	return true
}

func (x *linearIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.drawables)
}

func (x *linearIndex) QueryFrustum(q FrustumQuery, out []drawable.Drawable) []drawable.Drawable {
	return x.collect(&q.Query, out, func(box common.BoundingBox) bool {
		return q.Frustum.IsInsideBoxFast(box) != common.Outside
	})
}

func (x *linearIndex) QuerySphere(q SphereQuery, out []drawable.Drawable) []drawable.Drawable {
	return x.collect(&q.Query, out, func(box common.BoundingBox) bool {
		return q.Sphere.IsInsideBox(box) != common.Outside
	})
}

func (x *linearIndex) QueryPoint(q PointQuery, out []drawable.Drawable) []drawable.Drawable {
	return x.collect(&q.Query, out, func(box common.BoundingBox) bool {
		return box.IsInside(q.Point) != common.Outside
	})
}

func (x *linearIndex) QueryBox(q BoxQuery, out []drawable.Drawable) []drawable.Drawable {
	return x.collect(&q.Query, out, func(box common.BoundingBox) bool {
		return q.Box.IsInsideBox(box) != common.Outside
	})
}

func (x *linearIndex) collect(q *Query, out []drawable.Drawable, inside func(common.BoundingBox) bool) []drawable.Drawable {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, d := range x.drawables {
		if !q.accepts(d) {
			continue
		}
		box := d.WorldBoundingBox()
		if !box.Defined || !inside(box) || !q.visible(d, box) {
			continue
		}
		out = append(out, d)
	}
	return out
}
