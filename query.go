package ecsloop

// QueryOption configures a query's filter and access declaration at
// construction time. Arity (how many Get slots, how many With/Without
// types) is fixed by the concrete QueryN type; With, Without and ReadOnly
// configure the rest. Go has no variadic type parameters, so this module
// carries them as runtime component-id lists applied through functional
// options instead.
type QueryOption func(*queryConfig)

type queryConfig struct {
	with    []ComponentID
	without []ComponentID
	ro      map[int]bool
}

func newQueryConfig(opts []QueryOption) queryConfig {
	cfg := queryConfig{ro: make(map[int]bool)}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// With declares additional component types that must be present for an
// entity to match, without fetching them.
func With(ids ...ComponentID) QueryOption {
	return func(c *queryConfig) { c.with = append(c.with, ids...) }
}

// Without declares component types that must be absent for an entity to
// match.
func Without(ids ...ComponentID) QueryOption {
	return func(c *queryConfig) { c.without = append(c.without, ids...) }
}

// ReadOnly marks the given Get slot indices (0-based, in declaration order)
// as read-only for the purposes of the Access Descriptor's conflict
// predicate. This is a declared contract, not enforced by the Go type
// system — the same trust boundary a struct tag-driven mutability
// declaration would rely on.
func ReadOnly(slots ...int) QueryOption {
	return func(c *queryConfig) {
		for _, s := range slots {
			c.ro[s] = true
		}
	}
}

func matchMask(mask, include, exclude Bitmask) bool {
	return mask.ContainsAll(include) && !mask.ContainsAny(exclude)
}

// --- Query1 -----------------------------------------------------------

// Query1 iterates entities carrying a T1 component (plus any configured
// With types, minus any configured Without types).
type Query1[T1 any] struct {
	world   *World
	s1      *componentStore[T1]
	include Bitmask
	exclude Bitmask
	ro      [1]bool

	keys []Entity
	pos  int
}

// NewQuery1 constructs and binds a Query1 against w.
func NewQuery1[T1 any](w *World, opts ...QueryOption) *Query1[T1] {
	cfg := newQueryConfig(opts)
	s1 := getStore[T1](w)
	q := &Query1[T1]{world: w, s1: s1}
	q.include.Set(s1.id)
	for _, id := range cfg.with {
		q.include.Set(id)
	}
	for _, id := range cfg.without {
		q.exclude.Set(id)
	}
	q.ro[0] = cfg.ro[0]
	return q
}

func (q *Query1[T1]) describe(d *AccessDescriptor) {
	d.HasQuery = true
	t := queryAccess{Exclude: q.exclude}
	addSlot(&t, componentID[T1](), q.ro[0])
	d.Queries = append(d.Queries, t)
}

// Reset rewinds iteration to the start, recomputing the matching entity
// set. Called by the Stage Runner before each dispatch of the owning
// system.
func (q *Query1[T1]) Reset() {
	q.keys = q.keys[:0]
	for e := range q.s1.data {
		if matchMask(q.world.maskOf(e), q.include, q.exclude) {
			q.keys = append(q.keys, e)
		}
	}
	q.pos = -1
}

// Next advances to the next matching entity, returning false when done.
func (q *Query1[T1]) Next() bool {
	q.pos++
	return q.pos < len(q.keys)
}

// Entity returns the entity at the current iteration position.
func (q *Query1[T1]) Entity() Entity { return q.keys[q.pos] }

// Get returns the current entity's T1 component.
func (q *Query1[T1]) Get() *T1 {
	return q.s1.data[q.keys[q.pos]]
}

// --- Query2 -----------------------------------------------------------

// Query2 iterates entities carrying both T1 and T2 components.
type Query2[T1, T2 any] struct {
	world   *World
	s1      *componentStore[T1]
	s2      *componentStore[T2]
	include Bitmask
	exclude Bitmask
	ro      [2]bool

	keys []Entity
	pos  int
}

// NewQuery2 constructs and binds a Query2 against w.
func NewQuery2[T1, T2 any](w *World, opts ...QueryOption) *Query2[T1, T2] {
	cfg := newQueryConfig(opts)
	s1, s2 := getStore[T1](w), getStore[T2](w)
	q := &Query2[T1, T2]{world: w, s1: s1, s2: s2}
	q.include.Set(s1.id)
	q.include.Set(s2.id)
	for _, id := range cfg.with {
		q.include.Set(id)
	}
	for _, id := range cfg.without {
		q.exclude.Set(id)
	}
	q.ro[0], q.ro[1] = cfg.ro[0], cfg.ro[1]
	return q
}

func (q *Query2[T1, T2]) describe(d *AccessDescriptor) {
	d.HasQuery = true
	t := queryAccess{Exclude: q.exclude}
	addSlot(&t, componentID[T1](), q.ro[0])
	addSlot(&t, componentID[T2](), q.ro[1])
	d.Queries = append(d.Queries, t)
}

// Reset rewinds iteration, recomputing the matching entity set by scanning
// the smaller of the two component stores and checking the other.
func (q *Query2[T1, T2]) Reset() {
	q.keys = q.keys[:0]
	if len(q.s1.data) <= len(q.s2.data) {
		for e := range q.s1.data {
			if _, ok := q.s2.data[e]; !ok {
				continue
			}
			if matchMask(q.world.maskOf(e), q.include, q.exclude) {
				q.keys = append(q.keys, e)
			}
		}
	} else {
		for e := range q.s2.data {
			if _, ok := q.s1.data[e]; !ok {
				continue
			}
			if matchMask(q.world.maskOf(e), q.include, q.exclude) {
				q.keys = append(q.keys, e)
			}
		}
	}
	q.pos = -1
}

// Next advances to the next matching entity.
func (q *Query2[T1, T2]) Next() bool {
	q.pos++
	return q.pos < len(q.keys)
}

// Entity returns the entity at the current iteration position.
func (q *Query2[T1, T2]) Entity() Entity { return q.keys[q.pos] }

// Get returns the current entity's T1 and T2 components.
func (q *Query2[T1, T2]) Get() (*T1, *T2) {
	e := q.keys[q.pos]
	return q.s1.data[e], q.s2.data[e]
}

// --- Query3 -----------------------------------------------------------

// Query3 iterates entities carrying T1, T2 and T3 components.
type Query3[T1, T2, T3 any] struct {
	world   *World
	s1      *componentStore[T1]
	s2      *componentStore[T2]
	s3      *componentStore[T3]
	include Bitmask
	exclude Bitmask
	ro      [3]bool

	keys []Entity
	pos  int
}

// NewQuery3 constructs and binds a Query3 against w.
func NewQuery3[T1, T2, T3 any](w *World, opts ...QueryOption) *Query3[T1, T2, T3] {
	cfg := newQueryConfig(opts)
	s1, s2, s3 := getStore[T1](w), getStore[T2](w), getStore[T3](w)
	q := &Query3[T1, T2, T3]{world: w, s1: s1, s2: s2, s3: s3}
	q.include.Set(s1.id)
	q.include.Set(s2.id)
	q.include.Set(s3.id)
	for _, id := range cfg.with {
		q.include.Set(id)
	}
	for _, id := range cfg.without {
		q.exclude.Set(id)
	}
	q.ro[0], q.ro[1], q.ro[2] = cfg.ro[0], cfg.ro[1], cfg.ro[2]
	return q
}

func (q *Query3[T1, T2, T3]) describe(d *AccessDescriptor) {
	d.HasQuery = true
	t := queryAccess{Exclude: q.exclude}
	addSlot(&t, componentID[T1](), q.ro[0])
	addSlot(&t, componentID[T2](), q.ro[1])
	addSlot(&t, componentID[T3](), q.ro[2])
	d.Queries = append(d.Queries, t)
}

// Reset rewinds iteration, scanning the smallest of the three stores.
func (q *Query3[T1, T2, T3]) Reset() {
	q.keys = q.keys[:0]
	n1, n2, n3 := len(q.s1.data), len(q.s2.data), len(q.s3.data)
	switch {
	case n1 <= n2 && n1 <= n3:
		for e := range q.s1.data {
			if _, ok := q.s2.data[e]; !ok {
				continue
			}
			if _, ok := q.s3.data[e]; !ok {
				continue
			}
			if matchMask(q.world.maskOf(e), q.include, q.exclude) {
				q.keys = append(q.keys, e)
			}
		}
	case n2 <= n1 && n2 <= n3:
		for e := range q.s2.data {
			if _, ok := q.s1.data[e]; !ok {
				continue
			}
			if _, ok := q.s3.data[e]; !ok {
				continue
			}
			if matchMask(q.world.maskOf(e), q.include, q.exclude) {
				q.keys = append(q.keys, e)
			}
		}
	default:
		for e := range q.s3.data {
			if _, ok := q.s1.data[e]; !ok {
				continue
			}
			if _, ok := q.s2.data[e]; !ok {
				continue
			}
			if matchMask(q.world.maskOf(e), q.include, q.exclude) {
				q.keys = append(q.keys, e)
			}
		}
	}
	q.pos = -1
}

// Next advances to the next matching entity.
func (q *Query3[T1, T2, T3]) Next() bool {
	q.pos++
	return q.pos < len(q.keys)
}

// Entity returns the entity at the current iteration position.
func (q *Query3[T1, T2, T3]) Entity() Entity { return q.keys[q.pos] }

// Get returns the current entity's T1, T2 and T3 components.
func (q *Query3[T1, T2, T3]) Get() (*T1, *T2, *T3) {
	e := q.keys[q.pos]
	return q.s1.data[e], q.s2.data[e], q.s3.data[e]
}

// --- Query4 -----------------------------------------------------------

// Query4 iterates entities carrying T1, T2, T3 and T4 components.
type Query4[T1, T2, T3, T4 any] struct {
	world   *World
	s1      *componentStore[T1]
	s2      *componentStore[T2]
	s3      *componentStore[T3]
	s4      *componentStore[T4]
	include Bitmask
	exclude Bitmask
	ro      [4]bool

	keys []Entity
	pos  int
}

// NewQuery4 constructs and binds a Query4 against w.
func NewQuery4[T1, T2, T3, T4 any](w *World, opts ...QueryOption) *Query4[T1, T2, T3, T4] {
	cfg := newQueryConfig(opts)
	s1, s2, s3, s4 := getStore[T1](w), getStore[T2](w), getStore[T3](w), getStore[T4](w)
	q := &Query4[T1, T2, T3, T4]{world: w, s1: s1, s2: s2, s3: s3, s4: s4}
	q.include.Set(s1.id)
	q.include.Set(s2.id)
	q.include.Set(s3.id)
	q.include.Set(s4.id)
	for _, id := range cfg.with {
		q.include.Set(id)
	}
	for _, id := range cfg.without {
		q.exclude.Set(id)
	}
	q.ro[0], q.ro[1], q.ro[2], q.ro[3] = cfg.ro[0], cfg.ro[1], cfg.ro[2], cfg.ro[3]
	return q
}

func (q *Query4[T1, T2, T3, T4]) describe(d *AccessDescriptor) {
	d.HasQuery = true
	t := queryAccess{Exclude: q.exclude}
	addSlot(&t, componentID[T1](), q.ro[0])
	addSlot(&t, componentID[T2](), q.ro[1])
	addSlot(&t, componentID[T3](), q.ro[2])
	addSlot(&t, componentID[T4](), q.ro[3])
	d.Queries = append(d.Queries, t)
}

// Reset rewinds iteration, recomputing the matching entity set by scanning
// T1's store and checking the other three — unlike Query2/Query3, it does
// not pick the smallest store to scan first.
func (q *Query4[T1, T2, T3, T4]) Reset() {
	q.keys = q.keys[:0]
	for e := range q.s1.data {
		if _, ok := q.s2.data[e]; !ok {
			continue
		}
		if _, ok := q.s3.data[e]; !ok {
			continue
		}
		if _, ok := q.s4.data[e]; !ok {
			continue
		}
		if matchMask(q.world.maskOf(e), q.include, q.exclude) {
			q.keys = append(q.keys, e)
		}
	}
	q.pos = -1
}

// Next advances to the next matching entity.
func (q *Query4[T1, T2, T3, T4]) Next() bool {
	q.pos++
	return q.pos < len(q.keys)
}

// Entity returns the entity at the current iteration position.
func (q *Query4[T1, T2, T3, T4]) Entity() Entity { return q.keys[q.pos] }

// Get returns the current entity's T1..T4 components.
func (q *Query4[T1, T2, T3, T4]) Get() (*T1, *T2, *T3, *T4) {
	e := q.keys[q.pos]
	return q.s1.data[e], q.s2.data[e], q.s3.data[e], q.s4.data[e]
}
