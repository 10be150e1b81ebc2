package diff

// OpType classifies a line in an edit script.
type OpType int

const (
	Equal  OpType = iota // Line is unchanged between a and b.
	Insert               // Line is present in b only.
	Delete               // Line is present in a only.
)

// Op is a single operation in an edit script produced by Myers.
type Op struct {
	Type OpType
	Line string
}

// Myers computes the shortest edit script turning a into b, comparing
// whole lines. It runs in O((N+M)*D) time where D is the edit distance.
// When a line is replaced, its Delete precedes the Insert.
func Myers(a, b []string) []Op {
	n, m := len(a), len(b)
	switch {
	case n == 0 && m == 0:
		return nil
	case n == 0:
		return uniform(Insert, b)
	case m == 0:
		return uniform(Delete, a)
	}

	offset := n + m
	v := make([]int, 2*offset+1)
	// trace[d] is a copy of v once every diagonal reachable with d edits
	// has been extended.
	var trace [][]int

	for d := 0; d <= offset; d++ {
		for k := -d; k <= d; k += 2 {
			idx := k + offset
			var x int
			if k == -d || (k != d && v[idx-1] < v[idx+1]) {
				x = v[idx+1]
			} else {
				x = v[idx-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[idx] = x

			if x >= n && y >= m {
				trace = append(trace, append([]int(nil), v...))
				return backtrack(trace, a, b, d)
			}
		}
		trace = append(trace, append([]int(nil), v...))
	}
	return nil
}

func uniform(t OpType, lines []string) []Op {
	ops := make([]Op, len(lines))
	for i, line := range lines {
		ops[i] = Op{Type: t, Line: line}
	}
	return ops
}

func backtrack(trace [][]int, a, b []string, final int) []Op {
	offset := len(a) + len(b)
	x, y := len(a), len(b)

	var ops []Op
	for d := final; d > 0; d-- {
		k := x - y
		prev := trace[d-1]

		var prevK int
		if k == -d || (k != d && prev[k+offset-1] < prev[k+offset+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := prev[prevK+offset]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			ops = append(ops, Op{Type: Equal, Line: a[x]})
		}
		if k == prevK+1 {
			x--
			ops = append(ops, Op{Type: Delete, Line: a[x]})
		} else {
			y--
			ops = append(ops, Op{Type: Insert, Line: b[y]})
		}
	}
	for x > 0 && y > 0 {
		x--
		y--
		ops = append(ops, Op{Type: Equal, Line: a[x]})
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}
