package tasklist

// CompletionSource reports the completion flag of a task by id. Unknown ids
// are treated as active.
type CompletionSource interface {
	IsCompleted(id string) bool
}

// CompletionFunc adapts a plain function to CompletionSource.
type CompletionFunc func(id string) bool

func (f CompletionFunc) IsCompleted(id string) bool { return f(id) }

// SortedByCompletion reports whether no active task follows a completed one.
func SortedByCompletion(seq []string, src CompletionSource) bool {
	seenCompleted := false
	for _, id := range seq {
		done := src.IsCompleted(id)
		if seenCompleted && !done {
			return false
		}
		seenCompleted = done
	}
	return true
}

// ReorderByCompletion moves completed tasks behind active ones in place,
// keeping the relative order inside both groups. It returns the number of
// tasks relocated.
func ReorderByCompletion(seq []string, src CompletionSource) int {
	if len(seq) < 2 || SortedByCompletion(seq, src) {
		return 0
	}

	// end is the boundary: everything at or after it is completed and final.
	moves := 0
	end := len(seq)
	for i := len(seq) - 1; i >= 0; i-- {
		if !src.IsCompleted(seq[i]) {
			continue
		}
		if i != end-1 {
			moveTo(seq, i, end-1)
			moves++
		}
		end--
	}
	return moves
}

// moveTo shifts seq[from] to position to (to > from), sliding the items in
// between one slot left.
func moveTo(seq []string, from, to int) {
	item := seq[from]
	copy(seq[from:to], seq[from+1:to+1])
	seq[to] = item
}
