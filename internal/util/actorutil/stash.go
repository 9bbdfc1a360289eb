package actorutil

// Stash buffers messages received while an actor is busy and hands them back
// oldest first.
type Stash struct {
	stash []any
}

func (stash *Stash) Stash(msg any) {
	stash.stash = append(stash.stash, msg)
}

func (stash *Stash) Pop() (any, bool) {
	if len(stash.stash) == 0 {
		return nil, false
	}
	first := stash.stash[0]
	stash.stash[0] = nil
	stash.stash = stash.stash[1:]
	return first, true
}

func (stash *Stash) Len() int {
	return len(stash.stash)
}
