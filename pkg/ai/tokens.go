package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tokenizer used for prompt size estimates.
const DefaultEncoding = "o200k_base"

var (
	encoders   = map[string]*tiktoken.Tiktoken{}
	encodersMu sync.Mutex
)

func getEncoder(encoding string) (*tiktoken.Tiktoken, error) {
	encodersMu.Lock()
	defer encodersMu.Unlock()

	if enc, ok := encoders[encoding]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	encoders[encoding] = enc
	return enc, nil
}

// CountTokens returns the number of tokens text encodes to.
func CountTokens(encoding string, text string) (int, error) {
	enc, err := getEncoder(encoding)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
