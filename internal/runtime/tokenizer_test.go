package runtime

import (
	"os"
	"path/filepath"
	"testing"
)

// writeVocab writes a vocab.txt with the given tokens and returns its path.
// IDs are line numbers, so specials go first to get stable IDs.
func writeVocab(t *testing.T, tokens []string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.txt")
	content := ""
	for _, tok := range tokens {
		content += tok + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testVocab(t *testing.T) *Vocab {
	t.Helper()
	path := writeVocab(t, []string{
		"[PAD]", "[UNK]", "[CLS]", "[SEP]",
		"hello", "world", ",", "!", "un", "##aff", "##able",
	})
	v, err := LoadVocab(path)
	if err != nil {
		t.Fatalf("LoadVocab: %v", err)
	}
	return v
}

func TestLoadVocab(t *testing.T) {
	v := testVocab(t)
	if v.Size() != 11 {
		t.Errorf("Size = %d, want 11", v.Size())
	}
	if v.pad != 0 || v.unk != 1 || v.cls != 2 || v.sep != 3 {
		t.Errorf("special token IDs = %d %d %d %d", v.pad, v.unk, v.cls, v.sep)
	}
}

func TestLoadVocabMissingSpecials(t *testing.T) {
	path := writeVocab(t, []string{"hello", "world"})
	if _, err := LoadVocab(path); err == nil {
		t.Fatal("expected error for vocab without special tokens")
	}
}

func TestLoadVocabMissingFile(t *testing.T) {
	if _, err := LoadVocab(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTokenize(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab(t))

	inputIDs, mask, types := tok.Tokenize("Hello, world!", 16)
	if len(inputIDs) != 16 || len(mask) != 16 || len(types) != 16 {
		t.Fatalf("lengths = %d %d %d, want 16", len(inputIDs), len(mask), len(types))
	}
	// [CLS] hello , world ! [SEP]
	want := []int64{2, 4, 6, 5, 7, 3}
	for i, w := range want {
		if inputIDs[i] != w {
			t.Errorf("inputIDs[%d] = %d, want %d", i, inputIDs[i], w)
		}
		if mask[i] != 1 {
			t.Errorf("mask[%d] = %d, want 1", i, mask[i])
		}
	}
	for i := len(want); i < 16; i++ {
		if inputIDs[i] != 0 || mask[i] != 0 {
			t.Errorf("padding slot %d = (%d, %d), want (0, 0)", i, inputIDs[i], mask[i])
		}
	}
	for i, ty := range types {
		if ty != 0 {
			t.Errorf("tokenTypeIDs[%d] = %d, want 0", i, ty)
		}
	}
}

func TestTokenizeWordPieces(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab(t))
	inputIDs, _, _ := tok.Tokenize("unaffable", 8)
	// [CLS] un ##aff ##able [SEP]
	want := []int64{2, 8, 9, 10, 3}
	for i, w := range want {
		if inputIDs[i] != w {
			t.Errorf("inputIDs[%d] = %d, want %d", i, inputIDs[i], w)
		}
	}
}

func TestTokenizeUnknownWord(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab(t))
	inputIDs, _, _ := tok.Tokenize("zzzz", 8)
	// [CLS] [UNK] [SEP]
	if inputIDs[1] != 1 {
		t.Errorf("inputIDs[1] = %d, want [UNK]=1", inputIDs[1])
	}
	if inputIDs[2] != 3 {
		t.Errorf("inputIDs[2] = %d, want [SEP]=3", inputIDs[2])
	}
}

func TestTokenizeEmpty(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab(t))
	inputIDs, mask, _ := tok.Tokenize("", 8)
	if inputIDs[0] != 2 || inputIDs[1] != 3 {
		t.Errorf("empty text: got %v, want [CLS] [SEP] padding", inputIDs[:3])
	}
	var real int64
	for _, m := range mask {
		real += m
	}
	if real != 2 {
		t.Errorf("attention count = %d, want 2", real)
	}
}

func TestTokenizeTruncation(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab(t))
	inputIDs, mask, _ := tok.Tokenize("hello world hello world hello world", 4)
	if inputIDs[0] != 2 {
		t.Errorf("inputIDs[0] = %d, want [CLS]", inputIDs[0])
	}
	if inputIDs[3] != 3 {
		t.Errorf("inputIDs[3] = %d, want [SEP] in final slot", inputIDs[3])
	}
	for i := 0; i < 4; i++ {
		if mask[i] != 1 {
			t.Errorf("mask[%d] = %d, want 1", i, mask[i])
		}
	}
}

func TestSplitBasic(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello, world!", []string{"hello", ",", "world", "!"}},
		{"  spaced\tout\n", []string{"spaced", "out"}},
		{"", nil},
		{"a+b", []string{"a", "+", "b"}},
	}
	for _, tt := range tests {
		got := splitBasic(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitBasic(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitBasic(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
