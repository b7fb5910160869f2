package schedule

const chunkBits = 4
const chunkSize = 1 << chunkBits

// slot is a placement plus a presence flag, so the zero value means "not
// placed".
type slot struct {
	pl Placement
	ok bool
}

// placements is a persistent vector of slots indexed by task index. Writes
// copy the chunk directory and the one chunk they touch; every other chunk
// is shared with the previous version.
type placements struct {
	dir [][]slot
}

func newPlacements(n int) placements {
	chunks := (n + chunkSize - 1) / chunkSize
	dir := make([][]slot, chunks)
	empty := make([]slot, chunkSize)
	for i := range dir {
		dir[i] = empty
	}
	return placements{dir: dir}
}

func (p placements) get(i int) (Placement, bool) {
	s := p.dir[i>>chunkBits][i&(chunkSize-1)]
	return s.pl, s.ok
}

func (p placements) with(i int, pl Placement) placements {
	dir := make([][]slot, len(p.dir))
	copy(dir, p.dir)
	c := i >> chunkBits
	chunk := make([]slot, chunkSize)
	copy(chunk, p.dir[c])
	chunk[i&(chunkSize-1)] = slot{pl: pl, ok: true}
	dir[c] = chunk
	return placements{dir: dir}
}

func (p placements) each(fn func(i int, pl Placement)) {
	for c, chunk := range p.dir {
		for j, s := range chunk {
			if s.ok {
				fn(c<<chunkBits|j, s.pl)
			}
		}
	}
}
