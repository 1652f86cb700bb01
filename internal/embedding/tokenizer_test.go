package embedding

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var testVocab = []string{
	TokenPad, TokenUnk, TokenCLS, TokenSEP,
	"grant", "funding", "for", "climate", "change", "cafe", ",", "!",
	"un", "##aff", "##able", "resilience",
}

func newTestTokenizer(t *testing.T) *WordPieceTokenizer {
	t.Helper()
	tok, err := NewWordPieceTokenizer(testVocab)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestWordPieceTokenizer_Tokenize(t *testing.T) {
	tok := newTestTokenizer(t)
	tests := []struct {
		in   string
		want []string
	}{
		{"Funding for climate change", []string{"funding", "for", "climate", "change"}},
		{"Café, grant!", []string{"cafe", ",", "grant", "!"}},
		{"unaffable", []string{"un", "##aff", "##able"}},
		{"zebra", []string{TokenUnk}},
		{"  \t\n ", nil},
	}
	for _, tt := range tests {
		got := tok.Tokenize(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWordPieceTokenizer_Encode(t *testing.T) {
	tok := newTestTokenizer(t)
	enc := tok.Encode("grant funding", 10)
	want := []int64{2, 4, 5, 3}
	if !reflect.DeepEqual(enc.InputIDs, want) {
		t.Errorf("InputIDs = %v, want %v", enc.InputIDs, want)
	}
	if !reflect.DeepEqual(enc.AttentionMask, []int64{1, 1, 1, 1}) {
		t.Errorf("AttentionMask = %v", enc.AttentionMask)
	}
	if !reflect.DeepEqual(enc.TokenTypeIDs, []int64{0, 0, 0, 0}) {
		t.Errorf("TokenTypeIDs = %v", enc.TokenTypeIDs)
	}
}

func TestWordPieceTokenizer_EncodeTruncates(t *testing.T) {
	tok := newTestTokenizer(t)
	enc := tok.Encode(strings.Repeat("grant ", 20), 5)
	if enc.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", enc.Len())
	}
	if enc.InputIDs[0] != 2 || enc.InputIDs[4] != 3 {
		t.Errorf("expected [CLS] ... [SEP], got %v", enc.InputIDs)
	}
}

func TestWordPieceTokenizer_EncodeEmpty(t *testing.T) {
	tok := newTestTokenizer(t)
	enc := tok.Encode("", 8)
	if !reflect.DeepEqual(enc.InputIDs, []int64{2, 3}) {
		t.Errorf("empty text should encode to [CLS][SEP], got %v", enc.InputIDs)
	}
}

func TestNewWordPieceTokenizer_missingSpecial(t *testing.T) {
	if _, err := NewWordPieceTokenizer([]string{"grant"}); err == nil {
		t.Error("expected error for vocab without special tokens")
	}
}

func TestLoadVocab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(strings.Join(testVocab, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadVocab(path)
	if err != nil {
		t.Fatal(err)
	}
	if tok.PadID() != 0 {
		t.Errorf("PadID() = %d", tok.PadID())
	}
	if _, err := LoadVocab(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing vocab")
	}
}

func TestPadBatch(t *testing.T) {
	tok := newTestTokenizer(t)
	encs := []Encoding{tok.Encode("grant", 8), tok.Encode("grant funding for", 8)}
	ids, mask, types, seqLen := PadBatch(encs, tok.PadID())
	if seqLen != 5 {
		t.Fatalf("seqLen = %d, want 5", seqLen)
	}
	wantIDs := []int64{2, 4, 3, 0, 0, 2, 4, 5, 6, 3}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Errorf("ids = %v, want %v", ids, wantIDs)
	}
	wantMask := []int64{1, 1, 1, 0, 0, 1, 1, 1, 1, 1}
	if !reflect.DeepEqual(mask, wantMask) {
		t.Errorf("mask = %v, want %v", mask, wantMask)
	}
	if len(types) != 10 {
		t.Errorf("len(types) = %d", len(types))
	}
}
