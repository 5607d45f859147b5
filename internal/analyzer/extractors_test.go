package analyzer

import (
	"reflect"
	"testing"
)

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "dedupes repeated name and skips scene headings",
			input: "Maria enters the room. Maria sits. INT. KITCHEN - NIGHT. Maria waits. Day breaks. Ed nods.",
			want:  []string{"Maria"},
		},
		{
			name:  "multi word span",
			input: "They fly to New York and then New York again.",
			want:  []string{"They", "New York"},
		},
		{
			name:  "accented names are not cut into fragments",
			input: "We meet at Café Rouge with Zoë and Josée in Paris.",
			want:  []string{"Rouge", "Paris"},
		},
		{
			name:  "no capitals",
			input: "nothing to see here",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.input, 0)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractEntities(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractEntities_Cap(t *testing.T) {
	got := ExtractEntities("Alpha. Bravo. Charlie. Delta.", 2)
	if !reflect.DeepEqual(got, []string{"Alpha", "Bravo"}) {
		t.Fatalf("ExtractEntities() = %v", got)
	}
}

func TestExtractActions(t *testing.T) {
	got := ExtractActions("running running walk walk walk jumping", 0)
	want := []string{"walk", "running", "jumping"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractActions() = %v, want %v", got, want)
	}

	got = ExtractActions("jumping walk", 0)
	if !reflect.DeepEqual(got, []string{"jumping", "walk"}) {
		t.Fatalf("ties should keep first-seen order, got %v", got)
	}

	got = ExtractActions("walk run sit stand", 2)
	if len(got) != 2 {
		t.Fatalf("cap not applied: %v", got)
	}
}

func TestExtractEmotions_CanonicalOrder(t *testing.T) {
	// mentioned as angry, calm, happy; reported in canonical order
	got := ExtractEmotions("Furious at first, then calm, finally happy.")
	want := []string{"happy", "calm", "angry"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractEmotions() = %v, want %v", got, want)
	}
}

func TestExtractEmotions_SubstringMatching(t *testing.T) {
	// "hopeless" contains the "hope" trigger
	got := ExtractEmotions("a hopeless night")
	if !reflect.DeepEqual(got, []string{"hope"}) {
		t.Fatalf("ExtractEmotions() = %v, want [hope]", got)
	}
	if got := ExtractEmotions(""); len(got) != 0 {
		t.Fatalf("empty text should have no emotions, got %v", got)
	}
}
