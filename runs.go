package ircchat

// Span marks a range of message text to be replaced by an image run.
// Start and End are codepoint offsets into the whole message text; End is inclusive.
type Span struct {
	Start   int
	End     int
	Payload string
}

// SplitRuns splits runs so that every span becomes its own image run.
// Spans are applied in order. A span that does not fall entirely inside a single
// text run is skipped, so when spans overlap the first one wins.
// Out-of-range and inverted spans are skipped too.
//
// The text before and after a span stays in text runs that keep the style and
// color of the run they were cut from. Concatenating the Text of the result
// always reproduces the concatenated Text of runs.
func SplitRuns(runs []TextRun, spans []Span) []TextRun {
	if len(spans) == 0 {
		return runs
	}
	text := RunsText(runs)
	out := make([]TextRun, len(runs), len(runs)+2*len(spans))
	copy(out, runs)

	for _, sp := range spans {
		if sp.Start < 0 || sp.End < sp.Start {
			continue
		}
		start, ok := ByteOffset(text, sp.Start)
		if !ok {
			continue
		}
		end, ok := ByteOffset(text, sp.End+1)
		if !ok {
			continue
		}
		out = splitAt(out, start, end, sp.Payload)
	}
	return out
}

// splitAt replaces bytes [start, end) of the concatenated run text with an image run.
// runs is returned unchanged when the range is not inside one text run.
func splitAt(runs []TextRun, start, end int, payload string) []TextRun {
	pos := 0
	for i, r := range runs {
		next := pos + len(r.Text)
		if start < pos || start >= next {
			pos = next
			continue
		}
		if end > next || r.Kind != RunText {
			return runs
		}

		parts := make([]TextRun, 0, 3)
		if left := r.Text[:start-pos]; left != "" {
			parts = append(parts, TextRun{Text: left, Style: r.Style, Color: r.Color})
		}
		parts = append(parts, TextRun{
			Text:    r.Text[start-pos : end-pos],
			Payload: payload,
			Style:   r.Style,
			Color:   r.Color,
			Kind:    RunImage,
		})
		if right := r.Text[end-pos:]; right != "" {
			parts = append(parts, TextRun{Text: right, Style: r.Style, Color: r.Color})
		}

		// splice parts in place of runs[i]
		spliced := make([]TextRun, 0, len(runs)+len(parts)-1)
		spliced = append(spliced, runs[:i]...)
		spliced = append(spliced, parts...)
		spliced = append(spliced, runs[i+1:]...)
		return spliced
	}
	return runs
}
