package marker_test

import (
	"math/rand/v2"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synergyreader/synergy/pkg/marker"
)

// feed runs chunks through a fresh parser, including Close.
func feed(chunks ...string) []marker.Event {
	p := marker.NewParser()
	var events []marker.Event
	for _, c := range chunks {
		events = append(events, p.Feed(c)...)
	}
	return append(events, p.Close()...)
}

func splitEvery(s string, n int) []string {
	var chunks []string
	for len(s) > n {
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return append(chunks, s)
}

func splitRandom(s string, r *rand.Rand) []string {
	var chunks []string
	for len(s) > 0 {
		n := 1 + r.IntN(8)
		if n > len(s) {
			n = len(s)
		}
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return chunks
}

var _ = Describe("Parser", func() {
	Describe("marker-free text", func() {
		inputs := []string{
			"",
			"plain answer text",
			"snake_case and __init__ and _x_ and ___",
			"__Email__ me at a_b@example.com, see __E and __ERR or",
			"trailing underscore_",
			"ends with a prefix __ENTRY",
			"Unicode: héllo wörld 日本語 🎉\nsecond line",
		}

		It("reconstructs the input under every fixed chunk size", func() {
			for _, in := range inputs {
				for n := 1; n <= 8; n++ {
					events := feed(splitEvery(in, n)...)
					Expect(marker.Text(events)).To(Equal(in), "input %q, chunk size %d", in, n)
					for _, ev := range events {
						Expect(ev).To(BeAssignableToTypeOf(marker.Token{}))
					}
				}
			}
		})

		It("reconstructs the input under random chunkings", func() {
			r := rand.New(rand.NewPCG(1, 2))
			for _, in := range inputs {
				for range 50 {
					Expect(marker.Text(feed(splitRandom(in, r)...))).To(Equal(in))
				}
			}
		})

		It("emits text immediately when it cannot start a marker", func() {
			p := marker.NewParser()
			Expect(p.Feed("hello")).To(Equal([]marker.Event{marker.Token{Text: "hello"}}))
		})

		It("withholds a trailing prefix until it is disambiguated", func() {
			p := marker.NewParser()
			Expect(p.Feed("hello __ENT")).To(Equal([]marker.Event{marker.Token{Text: "hello "}}))
			Expect(p.Feed("ER")).To(Equal([]marker.Event{marker.Token{Text: "__ENTER"}}))
		})
	})

	Describe("__ENTRY_ID__", func() {
		const stream = "Hello __ENTRY_ID__42__World"
		expected := []marker.Event{
			marker.Token{Text: "Hello "},
			marker.EntryRecorded{ID: 42},
			marker.Token{Text: "World"},
		}

		It("parses a single chunk", func() {
			Expect(feed(stream)).To(Equal(expected))
		})

		It("parses every two and three way split", func() {
			for i := 0; i <= len(stream); i++ {
				for j := i; j <= len(stream); j++ {
					events := feed(stream[:i], stream[i:j], stream[j:])
					Expect(marker.Coalesce(events)).To(Equal(expected), "split at %d and %d", i, j)
				}
			}
		})

		It("recognises a marker split inside its header", func() {
			Expect(feed("__ENTR", "Y_ID__42__")).To(Equal([]marker.Event{marker.EntryRecorded{ID: 42}}))
		})

		It("reports an unterminated id at end of stream", func() {
			Expect(feed("x __ENTRY_ID__12")).To(Equal([]marker.Event{
				marker.Token{Text: "x "},
				marker.StreamError{Message: "unterminated __ENTRY_ID__ marker"},
			}))
		})

		It("skips a non-numeric id through its terminator", func() {
			stream := "Answer.__ENTRY_ID__12x__Next"
			for n := 1; n <= 5; n++ {
				Expect(marker.Coalesce(feed(splitEvery(stream, n)...))).To(Equal([]marker.Event{
					marker.Token{Text: "Answer."},
					marker.StreamError{Message: `malformed __ENTRY_ID__ marker: unexpected 'x'`},
					marker.Token{Text: "Next"},
				}), "chunk size %d", n)
			}
		})

		It("hands a malformed id back as text when no terminator follows", func() {
			events := feed("__ENTRY_ID__7 is the answer")
			Expect(events[0].(marker.StreamError).Message).To(ContainSubstring("malformed"))
			Expect(marker.Text(events)).To(Equal(" is the answer"))
		})

		It("stops waiting for the terminator of a malformed id after a bound", func() {
			p := marker.NewParser()
			events := p.Feed("__ENTRY_ID__9x" + strings.Repeat("y", 100))
			Expect(events).To(HaveLen(2))
			Expect(events[0]).To(BeAssignableToTypeOf(marker.StreamError{}))
			Expect(marker.Text(events)).To(Equal("x" + strings.Repeat("y", 100)))
		})

		It("reports an empty id", func() {
			events := feed("__ENTRY_ID____")
			Expect(events).To(HaveLen(1))
			Expect(events[0].(marker.StreamError).Message).To(ContainSubstring("empty id"))
		})

		It("reports an id that overflows", func() {
			events := feed("__ENTRY_ID__99999999999999999999999__")
			Expect(events).To(HaveLen(1))
			Expect(events[0]).To(BeAssignableToTypeOf(marker.StreamError{}))
		})

		It("keeps the first id and reports duplicates", func() {
			events := feed("__ENTRY_ID__1____ENTRY_ID__2__")
			Expect(events).To(HaveLen(2))
			Expect(events[0]).To(Equal(marker.EntryRecorded{ID: 1}))
			Expect(events[1].(marker.StreamError).Message).To(ContainSubstring("duplicate"))
		})
	})

	Describe("__CONTEXT__", func() {
		const raw = `{"context_chunks":["a"],"citations":[]}`

		It("emits the context before the tokens that follow it", func() {
			Expect(feed("__CONTEXT__" + raw + "__The answer")).To(Equal([]marker.Event{
				marker.ContextAttached{RawJSON: raw},
				marker.Token{Text: "The answer"},
			}))
		})

		It("parses an object spanning lines and chunks", func() {
			multiline := "{\n  \"context_chunks\": [\"x__y\", \"}\"],\n  \"similarity_score\": 0.8\n}"
			stream := "pre __CONTEXT__" + multiline + "__post"
			for n := 1; n <= 6; n++ {
				Expect(marker.Coalesce(feed(splitEvery(stream, n)...))).To(Equal([]marker.Event{
					marker.Token{Text: "pre "},
					marker.ContextAttached{RawJSON: multiline},
					marker.Token{Text: "post"},
				}))
			}
		})

		It("turns invalid JSON into an error and drops its bytes", func() {
			events := feed(`a__CONTEXT__{"context_chunks": oops}__b`)
			Expect(marker.Text(events)).To(Equal("ab"))
			Expect(events).To(ContainElement(BeAssignableToTypeOf(marker.StreamError{})))
		})

		It("rejects a payload that is not an object", func() {
			events := feed("x__CONTEXT__[1,2]__y")
			Expect(marker.Text(events)).To(Equal("xy"))
			Expect(events[1].(marker.StreamError).Message).To(ContainSubstring("not a JSON object"))
		})

		It("reports an unterminated object at end of stream", func() {
			events := feed(`__CONTEXT__{"context_chunks": ["a"`)
			Expect(events).To(Equal([]marker.Event{
				marker.StreamError{Message: "unterminated __CONTEXT__ marker"},
			}))
		})

		It("recovers the rest of the stream after an unbalanced object", func() {
			stream := `A__CONTEXT__{"a":1__B__ENTRY_ID__5__C`
			expected := []marker.Event{
				marker.Token{Text: "A"},
				marker.StreamError{Message: "invalid __CONTEXT__ JSON: unterminated object"},
				marker.Token{Text: "B"},
				marker.EntryRecorded{ID: 5},
				marker.Token{Text: "C"},
			}
			Expect(marker.Coalesce(feed(stream))).To(Equal(expected))
			Expect(marker.Coalesce(feed(splitEvery(stream, 1)...))).To(Equal(expected))
		})

		It("stops waiting for an unbalanced object after a bound", func() {
			p := marker.NewParser()
			Expect(p.Feed(`__CONTEXT__{"a":[1__after`)).To(BeEmpty())

			events := p.Feed(strings.Repeat("z", 1<<20))
			Expect(events[0]).To(Equal(marker.StreamError{Message: "invalid __CONTEXT__ JSON: unterminated object"}))
			Expect(marker.Text(events)).To(Equal("after" + strings.Repeat("z", 1<<20)))
		})

		It("keeps the first context and reports duplicates", func() {
			events := feed("__CONTEXT__{}____CONTEXT__{}__")
			Expect(events).To(HaveLen(2))
			Expect(events[0]).To(Equal(marker.ContextAttached{RawJSON: "{}"}))
			Expect(events[1]).To(BeAssignableToTypeOf(marker.StreamError{}))
		})
	})

	Describe("__ERROR__", func() {
		It("reports an error and continues parsing", func() {
			Expect(feed("a\n\n__ERROR__LLM streaming error: boom__b")).To(Equal([]marker.Event{
				marker.Token{Text: "a\n\n"},
				marker.StreamError{Message: "LLM streaming error: boom"},
				marker.Token{Text: "b"},
			}))
		})

		It("carries captured text when the stream ends early", func() {
			Expect(feed("text __ERROR__oops")).To(Equal([]marker.Event{
				marker.Token{Text: "text "},
				marker.StreamError{Message: "oops"},
			}))
		})

		It("finds a terminator split across chunks", func() {
			Expect(feed("__ERROR__db down_", "_ok")).To(Equal([]marker.Event{
				marker.StreamError{Message: "db down"},
				marker.Token{Text: "ok"},
			}))
		})
	})

	Describe("__READY__", func() {
		It("drops the marker", func() {
			Expect(feed("__READY__Hi")).To(Equal([]marker.Event{marker.Token{Text: "Hi"}}))
			Expect(feed("__REA", "DY__", "Hi")).To(Equal([]marker.Event{marker.Token{Text: "Hi"}}))
		})
	})

	Describe("a full backend stream", func() {
		const stream = "__READY____CONTEXT__{\"context_chunks\":[\"c1\",\"c2\"],\"citations\":[\"doc.pdf\"],\"similarity_score\":0.91}__" +
			"Photosynthesis converts light into chemical energy. Snake_case stays.\n\n" +
			"__ERROR__Database error occurred__\n\n__ENTRY_ID__314__"

		It("yields the same events for a single chunk and one-byte chunks", func() {
			whole := marker.Coalesce(feed(stream))
			Expect(marker.Coalesce(feed(splitEvery(stream, 1)...))).To(Equal(whole))

			Expect(whole).To(HaveLen(5))
			Expect(whole[0]).To(BeAssignableToTypeOf(marker.ContextAttached{}))
			Expect(whole[1]).To(Equal(marker.Token{Text: "Photosynthesis converts light into chemical energy. Snake_case stays.\n\n"}))
			Expect(whole[2]).To(Equal(marker.StreamError{Message: "Database error occurred"}))
			Expect(whole[3]).To(Equal(marker.Token{Text: "\n\n"}))
			Expect(whole[4]).To(Equal(marker.EntryRecorded{ID: 314}))
		})
	})

	Describe("Close", func() {
		It("ignores input after close", func() {
			p := marker.NewParser()
			p.Close()
			Expect(p.Feed("late")).To(BeNil())
			Expect(p.Close()).To(BeNil())
		})
	})
})

var _ = Describe("Coalesce", func() {
	It("merges adjacent tokens only", func() {
		Expect(marker.Coalesce([]marker.Event{
			marker.Token{Text: "a"},
			marker.Token{Text: "b"},
			marker.EntryRecorded{ID: 1},
			marker.Token{Text: "c"},
		})).To(Equal([]marker.Event{
			marker.Token{Text: "ab"},
			marker.EntryRecorded{ID: 1},
			marker.Token{Text: "c"},
		}))
	})
})
