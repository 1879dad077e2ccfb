package dbquery

import "sync"

// Library is a single-flight named-query cache: the first caller to
// ask for a name pays the compile cost, every later caller against the
// same dialect reuses the CompiledQuery. It uses a simpler map+mutex
// than pkg/nexus's per-slot double-checked construction, since a
// Library has no lifetime/reclamation policy to manage — every named
// query lives as long as the Library does.
type Library struct {
	mu      sync.Mutex
	dialect SqlDialect
	entries map[string]CompiledQuery
	builders map[string]func() any
}

// NewLibrary creates a Library bound to one dialect; compiled queries
// it caches are only ever valid for that dialect.
func NewLibrary(dialect SqlDialect) *Library {
	return &Library{
		dialect:  dialect,
		entries:  make(map[string]CompiledQuery),
		builders: make(map[string]func() any),
	}
}

// Register associates name with a builder thunk (returning a
// *SelectBuilder, *InsertBuilder, *UpdateBuilder, *DeleteBuilder or
// *SetOpBuilder) that Get compiles lazily on first use.
func (l *Library) Register(name string, builder func() any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.builders[name] = builder
}

// Get returns name's CompiledQuery, compiling and caching it on first
// access. Returns NotRegistered if name was never Register'd.
func (l *Library) Get(name string) (CompiledQuery, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cq, ok := l.entries[name]; ok {
		return cq, nil
	}
	builder, ok := l.builders[name]
	if !ok {
		return CompiledQuery{}, notRegistered(name)
	}
	cq, err := Compile(builder(), l.dialect)
	if err != nil {
		return CompiledQuery{}, err
	}
	l.entries[name] = cq
	return cq, nil
}

// Invalidate drops name's cached CompiledQuery (not its builder
// registration), forcing the next Get to recompile it.
func (l *Library) Invalidate(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, name)
}

// Size reports how many queries are currently compiled and cached.
func (l *Library) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
