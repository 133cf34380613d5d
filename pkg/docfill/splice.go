package docfill

import "strings"

// spliceSpan replaces the logical-text span [start, end) with repl, mutating
// the paragraph's run list in place. It returns the Children indices of
// every run whose text changed, for the later formatting pass.
//
// Two cases:
//   - single-run span: the run's text becomes prefix + repl + suffix, where
//     prefix and suffix are the run's own text outside the span;
//   - multi-run span: the first run keeps its prefix plus the full
//     replacement, the last run keeps its suffix, and every run strictly
//     between them has its text cleared to empty. Middle runs are cleared,
//     not deleted, so their formatting anchors stay in place and no run is
//     left holding a partial placeholder fragment.
//
// Text outside the span is byte-for-byte unchanged. The caller's charMap is
// stale after this returns and must be rebuilt before the next span.
func spliceSpan(p *Paragraph, cm *charMap, start, end int, repl string) []int {
	if start < 0 || end > len(cm.pos) || start >= end {
		return nil
	}

	first := cm.pos[start]
	last := cm.pos[end-1]

	var touched []int

	if first.child == last.child {
		run := p.Children[first.child].(*Run)
		content := run.Text.Content
		setRunText(run, content[:first.off]+repl+content[last.off+1:])
		return append(touched, first.child)
	}

	firstRun := p.Children[first.child].(*Run)
	setRunText(firstRun, firstRun.Text.Content[:first.off]+repl)
	touched = append(touched, first.child)

	for i := first.child + 1; i < last.child; i++ {
		run, ok := p.Children[i].(*Run)
		if !ok || run.Text == nil {
			continue
		}
		setRunText(run, "")
		touched = append(touched, i)
	}

	lastRun := p.Children[last.child].(*Run)
	setRunText(lastRun, lastRun.Text.Content[last.off+1:])
	touched = append(touched, last.child)

	return touched
}

// setRunText rewrites a run's text, flagging whitespace preservation when
// the new content would otherwise lose leading or trailing spaces.
func setRunText(run *Run, content string) {
	run.Text.Content = content
	if content != strings.TrimSpace(content) {
		run.Text.Space = "preserve"
	}
}
