package mergetag

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFind(t *testing.T) {
	tags := Find("Hi {{borrower:first_name}}, your {{ deal:loan_amount }} loan. {{unknown}} {{ }")
	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %d: %+v", len(tags), tags)
	}
	if tags[1].Namespace != "deal" || tags[1].Field != "loan_amount" {
		t.Fatalf("unexpected tag %+v", tags[1])
	}
	if tags[2].Namespace != "" || tags[2].Key() != "unknown" {
		t.Fatalf("unexpected tag %+v", tags[2])
	}
}

func TestRender(t *testing.T) {
	out, unresolved := Render("Dear {{borrower:first_name}}, rate {{deal:rate}} {{deal:rate}} {{made:up}}", map[string]string{
		"borrower:first_name": "Ada",
		"deal:rate":           "7.25%",
	})
	if out != "Dear Ada, rate 7.25% 7.25% {{made:up}}" {
		t.Fatalf("unexpected render %q", out)
	}
	if len(unresolved) != 1 || unresolved[0] != "{{made:up}}" {
		t.Fatalf("unexpected unresolved %v", unresolved)
	}
}

func TestSplit(t *testing.T) {
	segs := Split("Re: {{deal:name}} closing")
	if len(segs) != 3 || !segs[1].IsTag || segs[1].Tag.Field != "name" {
		t.Fatalf("unexpected segments %+v", segs)
	}
	if len(Split("")) != 0 {
		t.Fatal("empty input should yield no segments")
	}
}

func TestInsert(t *testing.T) {
	if got := Insert("Subject", "deal:name", 99); got != "Subject{{deal:name}}" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Insert("ab", "x", -3); got != "{{x}}ab" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestProperty_SplitRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genPiece := gen.OneGenOf(
		gen.AlphaString(),
		gen.AlphaString().Map(func(s string) string { return "{{ns:" + s + "x}}" }),
		gen.Const("{{"), gen.Const("}}"), gen.Const(" "),
	)

	properties.Property("concatenated segments rebuild the input", prop.ForAll(
		func(pieces []string) bool {
			s := strings.Join(pieces, "")
			var b strings.Builder
			for _, seg := range Split(s) {
				b.WriteString(seg.Text)
			}
			return b.String() == s
		},
		gen.SliceOf(genPiece),
	))

	properties.Property("rendering with no values leaves text unchanged", prop.ForAll(
		func(pieces []string) bool {
			s := strings.Join(pieces, "")
			out, _ := Render(s, nil)
			return out == s
		},
		gen.SliceOf(genPiece),
	))

	properties.TestingRun(t)
}
