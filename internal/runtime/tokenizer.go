package runtime

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// BERT special tokens expected in every vocab file.
const (
	tokenPad = "[PAD]"
	tokenUnk = "[UNK]"
	tokenCls = "[CLS]"
	tokenSep = "[SEP]"
)

// maxWordChars caps the length of a single word passed to WordPiece matching;
// longer words map to [UNK] (mirrors the BERT reference tokenizer).
const maxWordChars = 100

// Vocab maps token strings to their IDs, as read from a vocab.txt file where
// the ID is the zero-based line number.
type Vocab struct {
	ids  map[string]int64
	pad  int64
	unk  int64
	cls  int64
	sep  int64
}

// LoadVocab reads a vocab.txt file. It fails if any of the BERT special
// tokens is missing, since inference cannot proceed without them.
func LoadVocab(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	ids := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var line int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r\n")
		ids[token] = line
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}

	v := &Vocab{ids: ids}
	for _, req := range []struct {
		token string
		dst   *int64
	}{
		{tokenPad, &v.pad},
		{tokenUnk, &v.unk},
		{tokenCls, &v.cls},
		{tokenSep, &v.sep},
	} {
		id, ok := ids[req.token]
		if !ok {
			return nil, fmt.Errorf("vocab %s missing required token %s", path, req.token)
		}
		*req.dst = id
	}
	return v, nil
}

// Size returns the number of tokens in the vocabulary.
func (v *Vocab) Size() int { return len(v.ids) }

// WordPieceTokenizer implements lowercased BERT WordPiece tokenization:
// whitespace and punctuation splitting followed by greedy longest-match
// subword lookup with "##" continuation pieces.
type WordPieceTokenizer struct {
	vocab *Vocab
}

// NewWordPieceTokenizer returns a tokenizer over the given vocabulary.
func NewWordPieceTokenizer(vocab *Vocab) *WordPieceTokenizer {
	return &WordPieceTokenizer{vocab: vocab}
}

// Tokenize encodes text into fixed-length model inputs: [CLS] tokens... [SEP]
// padded with [PAD] up to maxTokens. The attention mask is 1 for real tokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = t.vocab.pad
	}

	inputIDs[0] = t.vocab.cls
	attentionMask[0] = 1
	pos := 1

	// Reserve the final slot for [SEP].
	limit := maxTokens - 1
	for _, word := range splitBasic(text) {
		for _, id := range t.wordPiece(word) {
			if pos >= limit {
				break
			}
			inputIDs[pos] = id
			attentionMask[pos] = 1
			pos++
		}
		if pos >= limit {
			break
		}
	}

	inputIDs[pos] = t.vocab.sep
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// wordPiece splits a single lowercased word into subword IDs using greedy
// longest-match-first lookup. Unknown words map to a single [UNK].
func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []int64{t.vocab.unk}
	}

	var pieces []int64
	start := 0
	for start < len(runes) {
		end := len(runes)
		var id int64
		found := false
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if v, ok := t.vocab.ids[piece]; ok {
				id = v
				found = true
				break
			}
			end--
		}
		if !found {
			return []int64{t.vocab.unk}
		}
		pieces = append(pieces, id)
		start = end
	}
	return pieces
}

// splitBasic lowercases text and splits it into words on whitespace, with
// punctuation characters emitted as standalone words.
func splitBasic(text string) []string {
	var words []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return words
}
