// Package chunk splits long documents into bounded segments for classification
package chunk

import (
	"regexp"
	"strings"
)

const (
	// paragraphSeparator joins paragraphs that share a chunk
	paragraphSeparator = "\n\n"
	// sentenceSeparator joins sentences and words that share a chunk
	sentenceSeparator = " "
)

var (
	// paragraphBreak matches a blank line, optionally containing whitespace
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	// sentenceEnd matches terminal punctuation followed by whitespace
	sentenceEnd = regexp.MustCompile(`[.!?]\s+`)
)

// Split breaks text into chunks of at most maxSize bytes, preferring paragraph
// boundaries, then sentence boundaries, then word boundaries. A single word longer
// than maxSize is emitted whole as its own chunk. Empty or whitespace-only text
// yields no chunks
func Split(text string, maxSize int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if maxSize <= 0 || len(text) <= maxSize {
		return []string{text}
	}

	acc := &accumulator{max: maxSize}

	for _, paragraph := range paragraphBreak.Split(text, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if len(paragraph) <= maxSize {
			acc.add(paragraph, paragraphSeparator)
			continue
		}

		sep := paragraphSeparator

		for _, sentence := range sentences(paragraph) {
			if len(sentence) <= maxSize {
				acc.add(sentence, sep)
				sep = sentenceSeparator

				continue
			}

			for _, word := range strings.Fields(sentence) {
				acc.add(word, sep)
				sep = sentenceSeparator
			}
		}
	}

	return acc.finish()
}

// sentences splits a paragraph after each terminal punctuation mark that is followed by whitespace
func sentences(paragraph string) []string {
	var out []string

	start := 0

	for _, loc := range sentenceEnd.FindAllStringIndex(paragraph, -1) {
		if s := strings.TrimSpace(paragraph[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}

		start = loc[1]
	}

	if s := strings.TrimSpace(paragraph[start:]); s != "" {
		out = append(out, s)
	}

	return out
}

// accumulator packs pieces into chunks without letting a chunk grow past max
type accumulator struct {
	max     int
	chunks  []string
	current strings.Builder
}

// add appends piece to the current chunk using sep, starting a new chunk when it would overflow
func (a *accumulator) add(piece, sep string) {
	if a.current.Len() > 0 && a.current.Len()+len(sep)+len(piece) > a.max {
		a.flush()
	}

	if a.current.Len() > 0 {
		a.current.WriteString(sep)
	}

	a.current.WriteString(piece)
}

func (a *accumulator) flush() {
	if a.current.Len() == 0 {
		return
	}

	a.chunks = append(a.chunks, a.current.String())
	a.current.Reset()
}

func (a *accumulator) finish() []string {
	a.flush()

	return a.chunks
}
