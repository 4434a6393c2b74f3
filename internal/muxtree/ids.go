package muxtree

// PaneId, WindowId, and SessionId are small handles into their owning
// arena: an index plus the generation the slot had when the handle was
// issued. A handle from a removed-then-reused slot compares equal in Index
// but fails lookup because Gen no longer matches (spec Design Notes §9).
type PaneId struct {
	Index uint32
	Gen   uint32
}

type WindowId struct {
	Index uint32
	Gen   uint32
}

type SessionId struct {
	Index uint32
	Gen   uint32
}
