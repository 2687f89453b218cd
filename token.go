package cyphercompiler

import "strings"

// Token is a tagged emission unit (§3): tokens are append-only while a
// subtree is walked and are collapsed into their parent when the
// selection set that produced them closes (§4.4.6). Representing
// pending output as tokens rather than concatenating strings directly
// is what lets a child selection set's contribution be wrapped in a
// "{ ... }" map projection and attached to its parent after the fact
// (§9 design note).
type Token struct {
	Level int
	Value []string
}

func (t *Token) emit(piece string) {
	t.Value = append(t.Value, piece)
}

func (t *Token) text() string {
	return strings.Join(t.Value, "")
}

// tokenBuffer holds every pending token across all currently-open
// selection sets, ungrouped; partitioning by level happens only when a
// selection set closes.
type tokenBuffer struct {
	tokens []*Token
}

func (b *tokenBuffer) push(level int) *Token {
	t := &Token{Level: level}
	b.tokens = append(b.tokens, t)
	return t
}

// partitionDeeperThan splits the buffer into tokens belonging to a
// just-closed scope (Level > level, i.e. children of the closing
// selection set) and the rest, which stays pending for ancestor scopes
// still open above it.
func (b *tokenBuffer) partitionDeeperThan(level int) (deeper, rest []*Token) {
	for _, t := range b.tokens {
		if t.Level > level {
			deeper = append(deeper, t)
		} else {
			rest = append(rest, t)
		}
	}
	return deeper, rest
}

func (b *tokenBuffer) retain(rest []*Token) {
	b.tokens = rest
}

// drain flushes every remaining token's text, in order, used once at
// the very end of compile() (§4.4.10).
func (b *tokenBuffer) drain() []string {
	out := make([]string, 0, len(b.tokens))
	for _, t := range b.tokens {
		out = append(out, t.text())
	}
	b.tokens = nil
	return out
}

// projection renders a set of tokens as a Cypher map projection
// "{a, b, c}", the shape §4.4.6 attaches to the parent token or the
// main buffer when a selection set closes.
func projection(tokens []*Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		text := t.text()
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
