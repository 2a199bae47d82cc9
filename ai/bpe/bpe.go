// Package bpe implements ai.Tokenizer with byte-pair encoding over a
// tiktoken rank file, loaded offline.
package bpe

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/nyaya/ai"
)

// Cl100kPattern is the pre-tokenization split pattern of cl100k_base.
const Cl100kPattern = `(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`

// Tokenizer implements ai.Tokenizer on top of tiktoken-go.
type Tokenizer struct {
	enc     *tiktoken.Tiktoken
	version string
}

var _ ai.Tokenizer = (*Tokenizer)(nil)

// LoadRanks parses a .tiktoken file: one "<base64 token> <rank>" per line.
func LoadRanks(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bpe: read ranks: %w", err)
	}

	ranks := make(map[string]int)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: want \"<token> <rank>\"", ai.ErrInvalidVocabulary, line)
		}
		token, err := base64.StdEncoding.DecodeString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ai.ErrInvalidVocabulary, line, err)
		}
		rank, err := strconv.Atoi(fields[1])
		if err != nil || rank < 0 {
			return nil, fmt.Errorf("%w: line %d: bad rank %q", ai.ErrInvalidVocabulary, line, fields[1])
		}
		ranks[string(token)] = rank
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("bpe: read ranks: %w", err)
	}
	return ranks, nil
}

// Load reads a rank file and builds a Tokenizer using the cl100k pattern.
func Load(path string) (*Tokenizer, error) {
	ranks, err := LoadRanks(path)
	if err != nil {
		return nil, err
	}
	return New(ranks, Cl100kPattern)
}

// New builds a Tokenizer from mergeable ranks and a split pattern.
// Ranks must be unique.
func New(ranks map[string]int, pattern string) (*Tokenizer, error) {
	if len(ranks) == 0 {
		return nil, fmt.Errorf("%w: no ranks", ai.ErrInvalidVocabulary)
	}

	core, err := tiktoken.NewCoreBPE(ranks, map[string]int{}, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrInvalidVocabulary, err)
	}
	enc := tiktoken.NewTiktoken(core, &tiktoken.Encoding{
		Name:           "nyaya-bpe",
		PatStr:         pattern,
		MergeableRanks: ranks,
		SpecialTokens:  map[string]int{},
	}, map[string]any{})

	return &Tokenizer{enc: enc, version: "bpe-" + fingerprint(ranks, pattern)}, nil
}

// Tokenize implements ai.Tokenizer.
func (t *Tokenizer) Tokenize(text string) (ids []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			ids = nil
			err = fmt.Errorf("bpe: tokenize: %v", r)
		}
	}()
	return t.enc.EncodeOrdinary(text), nil
}

// Version implements ai.Tokenizer.
func (t *Tokenizer) Version() string {
	return t.version
}

func fingerprint(ranks map[string]int, pattern string) string {
	tokens := make([]string, 0, len(ranks))
	for tok := range ranks {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool { return ranks[tokens[i]] < ranks[tokens[j]] })

	h := sha256.New()
	h.Write([]byte(pattern))
	for _, tok := range tokens {
		fmt.Fprintf(h, "\n%s %d", base64.StdEncoding.EncodeToString([]byte(tok)), ranks[tok])
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}
