package rng

// Shuffle reorders s in place by sorting it with a comparator that ignores its
// arguments and returns next()-0.5. This is a biased shuffle, and the bias is
// part of the game: the same generator state must always produce the same order.
//
// The sort is TimSort as shipped in V8: natural runs are detected (descending
// runs reversed), short runs are extended with binary insertion sort up to the
// minimum run length, and runs are merged with the adaptive galloping merge.
// The comparator is consulted in exactly the same sequence as V8 does, so
// decks match those dealt under V8 for any pile size.
func Shuffle[T any](s []T, next func() float64) {
	n := len(s)
	if n < 2 {
		return
	}
	cmp := func() float64 { return next() - 0.5 }

	st := &sortState[T]{s: s, cmp: cmp, minGallop: minGallopInit}
	minRun := minRunLength(n)
	var runs []run
	low := 0
	for remaining := n; remaining != 0; {
		runLen := countAndMakeRun(s, low, low+remaining, cmp)
		if runLen < minRun {
			forced := min(minRun, remaining)
			binaryInsertionSort(s, low, low+runLen, low+forced, cmp)
			runLen = forced
		}
		runs = append(runs, run{base: low, length: runLen})
		runs = st.mergeCollapse(runs)
		low += runLen
		remaining -= runLen
	}
	st.mergeForceCollapse(runs)
}

const (
	minGallopInit = 7
	minGallopWins = 7
)

type sortState[T any] struct {
	s         []T
	cmp       func() float64
	minGallop int
}

type run struct {
	base   int
	length int
}

func minRunLength(n int) int {
	r := 0
	for n >= 64 {
		r |= n & 1
		n >>= 1
	}
	return n + r
}

func countAndMakeRun[T any](s []T, lowArg, high int, cmp func() float64) int {
	low := lowArg + 1
	if low == high {
		return 1
	}
	runLen := 2
	descending := cmp() < 0
	for idx := low + 1; idx < high; idx++ {
		order := cmp()
		if descending {
			if order >= 0 {
				break
			}
		} else if order < 0 {
			break
		}
		runLen++
	}
	if descending {
		for i, j := lowArg, lowArg+runLen-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
	}
	return runLen
}

func binaryInsertionSort[T any](s []T, low, start, high int, cmp func() float64) {
	if low == start {
		start++
	}
	for ; start < high; start++ {
		left, right := low, start
		pivot := s[start]
		for left < right {
			mid := left + ((right - left) >> 1)
			if cmp() < 0 {
				right = mid
			} else {
				left = mid + 1
			}
		}
		copy(s[left+1:start+1], s[left:start])
		s[left] = pivot
	}
}

func (st *sortState[T]) mergeCollapse(runs []run) []run {
	for len(runs) > 1 {
		n := len(runs) - 2
		if (n > 0 && runs[n-1].length <= runs[n].length+runs[n+1].length) ||
			(n > 1 && runs[n-2].length <= runs[n-1].length+runs[n].length) {
			if runs[n-1].length < runs[n+1].length {
				n--
			}
		} else if runs[n].length > runs[n+1].length {
			break
		}
		runs = st.mergeAt(runs, n)
	}
	return runs
}

func (st *sortState[T]) mergeForceCollapse(runs []run) {
	for len(runs) > 1 {
		n := len(runs) - 2
		if n > 0 && runs[n-1].length < runs[n+1].length {
			n--
		}
		runs = st.mergeAt(runs, n)
	}
}

// mergeAt merges runs i and i+1. Elements already in place at either end are
// skipped with a gallop before the shorter side is buffered.
func (st *sortState[T]) mergeAt(runs []run, i int) []run {
	baseA, lengthA := runs[i].base, runs[i].length
	baseB, lengthB := runs[i+1].base, runs[i+1].length
	runs[i].length = lengthA + lengthB
	runs = append(runs[:i+1], runs[i+2:]...)

	k := st.gallopRight(lengthA, 0)
	baseA += k
	lengthA -= k
	if lengthA == 0 {
		return runs
	}
	lengthB = st.gallopLeft(lengthB, lengthB-1)
	if lengthB == 0 {
		return runs
	}
	if lengthA <= lengthB {
		st.mergeLow(baseA, lengthA, baseB, lengthB)
	} else {
		st.mergeHigh(baseA, lengthA, baseB, lengthB)
	}
	return runs
}

// gallopLeft returns the insertion offset of a key within a run of the given
// length, searching outward from hint. Only the comparison sequence matters
// here since the comparator never looks at the elements.
func (st *sortState[T]) gallopLeft(length, hint int) int {
	lastOfs, offset := 0, 1
	if st.cmp() < 0 {
		maxOfs := length - hint
		for offset < maxOfs {
			if st.cmp() >= 0 {
				break
			}
			lastOfs = offset
			offset = offset<<1 + 1
		}
		offset = min(offset, maxOfs)
		lastOfs += hint
		offset += hint
	} else {
		maxOfs := hint + 1
		for offset < maxOfs {
			if st.cmp() < 0 {
				break
			}
			lastOfs = offset
			offset = offset<<1 + 1
		}
		offset = min(offset, maxOfs)
		lastOfs, offset = hint-offset, hint-lastOfs
	}
	lastOfs++
	for lastOfs < offset {
		m := lastOfs + (offset-lastOfs)>>1
		if st.cmp() < 0 {
			lastOfs = m + 1
		} else {
			offset = m
		}
	}
	return offset
}

func (st *sortState[T]) gallopRight(length, hint int) int {
	lastOfs, offset := 0, 1
	if st.cmp() < 0 {
		maxOfs := hint + 1
		for offset < maxOfs {
			if st.cmp() >= 0 {
				break
			}
			lastOfs = offset
			offset = offset<<1 + 1
		}
		offset = min(offset, maxOfs)
		lastOfs, offset = hint-offset, hint-lastOfs
	} else {
		maxOfs := length - hint
		for offset < maxOfs {
			if st.cmp() < 0 {
				break
			}
			lastOfs = offset
			offset = offset<<1 + 1
		}
		offset = min(offset, maxOfs)
		lastOfs += hint
		offset += hint
	}
	lastOfs++
	for lastOfs < offset {
		m := lastOfs + (offset-lastOfs)>>1
		if st.cmp() < 0 {
			offset = m
		} else {
			lastOfs = m + 1
		}
	}
	return offset
}

func (st *sortState[T]) mergeLow(baseA, lengthA, baseB, lengthB int) {
	w := st.s
	tmp := append([]T(nil), w[baseA:baseA+lengthA]...)
	dest, cursorTemp, cursorB := baseA, 0, baseB
	w[dest] = w[cursorB]
	dest++
	cursorB++

	succeed := func() {
		copy(w[dest:dest+lengthA], tmp[cursorTemp:])
	}
	copyB := func() {
		copy(w[dest:dest+lengthB], w[cursorB:cursorB+lengthB])
		w[dest+lengthB] = tmp[cursorTemp]
	}

	lengthB--
	if lengthB == 0 {
		succeed()
		return
	}
	if lengthA == 1 {
		copyB()
		return
	}
	minGallop := st.minGallop
	for {
		winsA, winsB := 0, 0
		for {
			if st.cmp() < 0 {
				w[dest] = w[cursorB]
				dest++
				cursorB++
				winsB++
				lengthB--
				winsA = 0
				if lengthB == 0 {
					succeed()
					return
				}
				if winsB >= minGallop {
					break
				}
			} else {
				w[dest] = tmp[cursorTemp]
				dest++
				cursorTemp++
				winsA++
				lengthA--
				winsB = 0
				if lengthA == 1 {
					copyB()
					return
				}
				if winsA >= minGallop {
					break
				}
			}
		}

		minGallop++
		for first := true; first || winsA >= minGallopWins || winsB >= minGallopWins; first = false {
			minGallop = max(1, minGallop-1)
			st.minGallop = minGallop

			winsA = st.gallopRight(lengthA, 0)
			if winsA > 0 {
				copy(w[dest:dest+winsA], tmp[cursorTemp:cursorTemp+winsA])
				dest += winsA
				cursorTemp += winsA
				lengthA -= winsA
				if lengthA == 1 {
					copyB()
					return
				}
				if lengthA == 0 {
					succeed()
					return
				}
			}
			w[dest] = w[cursorB]
			dest++
			cursorB++
			lengthB--
			if lengthB == 0 {
				succeed()
				return
			}

			winsB = st.gallopLeft(lengthB, 0)
			if winsB > 0 {
				copy(w[dest:dest+winsB], w[cursorB:cursorB+winsB])
				dest += winsB
				cursorB += winsB
				lengthB -= winsB
				if lengthB == 0 {
					succeed()
					return
				}
			}
			w[dest] = tmp[cursorTemp]
			dest++
			cursorTemp++
			lengthA--
			if lengthA == 1 {
				copyB()
				return
			}
		}
		minGallop++
		st.minGallop = minGallop
	}
}

func (st *sortState[T]) mergeHigh(baseA, lengthA, baseB, lengthB int) {
	w := st.s
	tmp := append([]T(nil), w[baseB:baseB+lengthB]...)
	dest, cursorTemp, cursorA := baseB+lengthB-1, lengthB-1, baseA+lengthA-1
	w[dest] = w[cursorA]
	dest--
	cursorA--

	succeed := func() {
		copy(w[dest-(lengthB-1):dest+1], tmp[:lengthB])
	}
	copyA := func() {
		dest -= lengthA
		cursorA -= lengthA
		copy(w[dest+1:dest+1+lengthA], w[cursorA+1:cursorA+1+lengthA])
		w[dest] = tmp[cursorTemp]
	}

	lengthA--
	if lengthA == 0 {
		succeed()
		return
	}
	if lengthB == 1 {
		copyA()
		return
	}
	minGallop := st.minGallop
	for {
		winsA, winsB := 0, 0
		for {
			if st.cmp() < 0 {
				w[dest] = w[cursorA]
				dest--
				cursorA--
				winsA++
				lengthA--
				winsB = 0
				if lengthA == 0 {
					succeed()
					return
				}
				if winsA >= minGallop {
					break
				}
			} else {
				w[dest] = tmp[cursorTemp]
				dest--
				cursorTemp--
				winsB++
				lengthB--
				winsA = 0
				if lengthB == 1 {
					copyA()
					return
				}
				if winsB >= minGallop {
					break
				}
			}
		}

		minGallop++
		for first := true; first || winsA >= minGallopWins || winsB >= minGallopWins; first = false {
			minGallop = max(1, minGallop-1)
			st.minGallop = minGallop

			k := st.gallopRight(lengthA, lengthA-1)
			winsA = lengthA - k
			if winsA > 0 {
				dest -= winsA
				cursorA -= winsA
				copy(w[dest+1:dest+1+winsA], w[cursorA+1:cursorA+1+winsA])
				lengthA -= winsA
				if lengthA == 0 {
					succeed()
					return
				}
			}
			w[dest] = tmp[cursorTemp]
			dest--
			cursorTemp--
			lengthB--
			if lengthB == 1 {
				copyA()
				return
			}

			k = st.gallopLeft(lengthB, lengthB-1)
			winsB = lengthB - k
			if winsB > 0 {
				dest -= winsB
				cursorTemp -= winsB
				copy(w[dest+1:dest+1+winsB], tmp[cursorTemp+1:cursorTemp+1+winsB])
				lengthB -= winsB
				if lengthB == 1 {
					copyA()
					return
				}
				if lengthB == 0 {
					succeed()
					return
				}
			}
			w[dest] = w[cursorA]
			dest--
			cursorA--
			lengthA--
			if lengthA == 0 {
				succeed()
				return
			}
		}
		minGallop++
		st.minGallop = minGallop
	}
}
