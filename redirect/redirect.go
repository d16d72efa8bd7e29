// Package redirect builds the obfuscated redirect URLs broadcast at the end
// of a turn and at the end of a game. Query parameters (question id, free
// text answer, vote tally) are AES-GCM encrypted with a server secret and
// URL-safe base64 encoded, so clients carry game state across page
// transitions without exposing it.
package redirect

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

var (
	// ErrEmptyParam means there was no value to encode.
	ErrEmptyParam = errors.New("empty parameter")
	// ErrBadCiphertext means the encoded value could not be decrypted.
	ErrBadCiphertext = errors.New("malformed encrypted parameter")
)

// Codec encrypts and decrypts redirect parameters.
type Codec struct {
	aead cipher.AEAD

	answerBase  string
	endGameBase string
}

// NewCodec derives the AES key from the server secret and fixes the answer
// and end-game redirect base URLs.
func NewCodec(secret, answerBase, endGameBase string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("redirect secret is required")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Codec{aead: aead, answerBase: answerBase, endGameBase: endGameBase}, nil
}

// EncryptParam encrypts one parameter value into a URL-safe string.
func (c *Codec) EncryptParam(value string) (string, error) {
	if value == "" {
		return "", ErrEmptyParam
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(value), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptParam reverses EncryptParam.
func (c *Codec) DecryptParam(encoded string) (string, error) {
	if encoded == "" {
		return "", ErrEmptyParam
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrBadCiphertext
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrBadCiphertext
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrBadCiphertext
	}
	return string(plain), nil
}

// AnswerURL builds the redirect broadcast after an answer submission,
// carrying the encrypted question id and answer.
func (c *Codec) AnswerURL(questionID int, answer string) (string, error) {
	encQuestion, err := c.EncryptParam(strconv.Itoa(questionID))
	if err != nil {
		return "", fmt.Errorf("encode question id: %w", err)
	}
	values := url.Values{}
	values.Set("question", encQuestion)
	if answer != "" {
		encAnswer, err := c.EncryptParam(answer)
		if err != nil {
			return "", fmt.Errorf("encode answer: %w", err)
		}
		values.Set("answer", encAnswer)
	}
	return c.answerBase + "?" + values.Encode(), nil
}

// EndGameURL builds the end-of-game redirect carrying the encrypted vote
// tally.
func (c *Codec) EndGameURL(votes map[string]string) (string, error) {
	encoded, err := json.Marshal(votes)
	if err != nil {
		return "", fmt.Errorf("encode votes: %w", err)
	}
	encVotes, err := c.EncryptParam(string(encoded))
	if err != nil {
		return "", fmt.Errorf("encode votes: %w", err)
	}
	values := url.Values{}
	values.Set("votes", encVotes)
	return c.endGameBase + "?" + values.Encode(), nil
}
