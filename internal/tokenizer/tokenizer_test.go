package tokenizer

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/docrank/docrank/pkg/errors"
)

func TestTokenizeTagsWords(t *testing.T) {
	a := NewAnalyzer()
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "nouns by default",
			input: "cat dog bird",
			want: []Token{
				{Surface: "cat", Tag: TagNoun},
				{Surface: "dog", Tag: TagNoun},
				{Surface: "bird", Tag: TagNoun},
			},
		},
		{
			name:  "function words tagged",
			input: "the cat and the dog",
			want: []Token{
				{Surface: "the", Tag: TagFunction},
				{Surface: "cat", Tag: TagNoun},
				{Surface: "and", Tag: TagFunction},
				{Surface: "the", Tag: TagFunction},
				{Surface: "dog", Tag: TagNoun},
			},
		},
		{
			name:  "suffix heuristics",
			input: "quickly running painted famous helpful",
			want: []Token{
				{Surface: "quickly", Tag: TagAdverb},
				{Surface: "running", Tag: TagVerb},
				{Surface: "painted", Tag: TagVerb},
				{Surface: "famous", Tag: TagAdjective},
				{Surface: "helpful", Tag: TagAdjective},
			},
		},
		{
			name:  "lowercased and split on punctuation",
			input: "Cat, DOG; bird!",
			want: []Token{
				{Surface: "cat", Tag: TagNoun},
				{Surface: "dog", Tag: TagNoun},
				{Surface: "bird", Tag: TagNoun},
			},
		},
		{
			name:  "single letters dropped",
			input: "a b cat",
			want: []Token{
				{Surface: "cat", Tag: TagNoun},
			},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Token{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q): %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeRejectsInvalidUTF8(t *testing.T) {
	a := NewAnalyzer()
	_, err := a.Tokenize("cat \xff\xfe dog")
	if !errors.Is(err, apperrors.ErrTokenization) {
		t.Fatalf("expected ErrTokenization, got %v", err)
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	a := NewAnalyzer()
	input := "the quick brown fox jumps over the lazy dog"
	first, err := a.Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := a.Tokenize(input)
		if err != nil {
			t.Fatalf("Tokenize: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, again, first)
		}
	}
}

func TestNounsPreservesDuplicates(t *testing.T) {
	a := NewAnalyzer()
	tokens, err := a.Tokenize("cat cat bird")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	got := Nouns(tokens)
	want := []string{"cat", "cat", "bird"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Nouns = %v, want %v", got, want)
	}
}

func TestDistinctNounsFirstOccurrenceOrder(t *testing.T) {
	a := NewAnalyzer()
	tokens, err := a.Tokenize("bird cat bird dog cat")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	got := DistinctNouns(tokens)
	want := []string{"bird", "cat", "dog"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctNouns = %v, want %v", got, want)
	}
}

func TestNounsDropNonContentTags(t *testing.T) {
	a := NewAnalyzer()
	tokens, err := a.Tokenize("the cat was quickly running")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	got := Nouns(tokens)
	want := []string{"cat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Nouns = %v, want %v", got, want)
	}
}
