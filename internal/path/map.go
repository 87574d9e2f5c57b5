package path

type entry[V any] struct {
	path  *Path
	value V
}

// Map is a hash map keyed by path value rather than by pointer.
type Map[V any] struct {
	buckets map[uint64][]entry[V]
	count   int
}

func NewMap[V any]() *Map[V] {
	return &Map[V]{buckets: make(map[uint64][]entry[V])}
}

func (m *Map[V]) Get(p *Path) (V, bool) {
	for _, e := range m.buckets[p.hash] {
		if e.path.Equal(p) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

func (m *Map[V]) Set(p *Path, value V) {
	bucket := m.buckets[p.hash]
	for i := range bucket {
		if bucket[i].path.Equal(p) {
			bucket[i].value = value
			return
		}
	}
	m.buckets[p.hash] = append(bucket, entry[V]{path: p, value: value})
	m.count++
}

func (m *Map[V]) Delete(p *Path) bool {
	bucket := m.buckets[p.hash]
	for i := range bucket {
		if !bucket[i].path.Equal(p) {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(m.buckets, p.hash)
		} else {
			m.buckets[p.hash] = bucket
		}
		m.count--
		return true
	}
	return false
}

func (m *Map[V]) Len() int {
	return m.count
}

func (m *Map[V]) Clear() {
	m.buckets = make(map[uint64][]entry[V])
	m.count = 0
}

// Interner is a flyweight cache handing out one canonical instance per distinct path,
// so repeated traversals share instances and Equal usually stops at pointer identity.
type Interner struct {
	paths *Map[*Path]
	limit int
}

// NewInterner creates a cache that resets itself once it holds more than limit paths.
func NewInterner(limit int) *Interner {
	return &Interner{paths: NewMap[*Path](), limit: limit}
}

func (in *Interner) Intern(p *Path) *Path {
	if canonical, ok := in.paths.Get(p); ok {
		return canonical
	}
	if in.limit > 0 && in.paths.Len() >= in.limit {
		in.paths.Clear()
	}
	in.paths.Set(p, p)
	return p
}

func (in *Interner) Len() int {
	return in.paths.Len()
}
